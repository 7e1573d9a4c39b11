package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
host:
  name: control-1
  address: 203.0.113.10
  privateKeyPath: ~/.ssh/id_ed25519
`

func clearSecretEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{EnvHCloudToken, EnvS3AccessKey, EnvS3SecretKey, EnvStoreDSN} {
		t.Setenv(v, "")
	}
}

func TestLoadFromBytes_Defaults(t *testing.T) {
	clearSecretEnv(t)

	cfg, err := LoadFromBytes([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, SourceStatic, cfg.Host.Source)
	assert.Equal(t, 22, cfg.Host.Port)
	assert.Equal(t, "root", cfg.Host.User)
	assert.Equal(t, DefaultRemoteDir, cfg.RemoteDir)
	assert.Equal(t, "default", cfg.DefaultNamespace)
	assert.Equal(t, int32(5), cfg.Limits.MaxReplicas)
	assert.Equal(t, 100, cfg.Limits.MaxCapacityGi)
	assert.Equal(t, 8, cfg.Identity.Length)
	assert.Equal(t, 10, cfg.Identity.MaxAttempts)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.Serve.Address)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadFromBytes_Full(t *testing.T) {
	clearSecretEnv(t)
	t.Setenv(EnvHCloudToken, "token")
	t.Setenv(EnvS3AccessKey, "ak")
	t.Setenv(EnvS3SecretKey, "sk")
	t.Setenv(EnvStoreDSN, "postgres://localhost/k8zdb")

	cfg, err := LoadFromBytes([]byte(`
host:
  name: control-1
  source: hcloud
  private: true
  user: admin
  privateKeyPath: /keys/id
  clusterAddress: 10.0.1.2
kubeconfig:
  path: /etc/rancher/k3s/k3s.yaml
  fallbacks: [/root/.kube/config]
remoteDir: /srv/k8zdb
defaultNamespace: databases
limits:
  maxReplicas: 3
  maxCapacityGi: 50
identity:
  length: 12
  maxAttempts: 4
s3:
  region: fsn1
store:
  driver: postgres
serve:
  address: 127.0.0.1:9000
`))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.HCloudToken)
	assert.True(t, cfg.Host.Private)
	assert.Equal(t, []string{"/root/.kube/config"}, cfg.Kubeconfig.Fallbacks)
	assert.Equal(t, "https://fsn1.your-objectstorage.com", cfg.S3.Endpoint)
	assert.Equal(t, "ak", cfg.S3.AccessKey)
	assert.Equal(t, "postgres://localhost/k8zdb", cfg.Store.DSN)
	assert.Equal(t, int32(3), cfg.Limits.MaxReplicas)
	assert.Equal(t, 12, cfg.Identity.Length)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{"unknown field", minimalConfig + "bogus: 1\n", nil, "field bogus not found"},
		{"missing host name", "host:\n  address: 1.2.3.4\n  privateKeyPath: k\n", nil, "host.name is required"},
		{"static without address", "host:\n  name: h\n  privateKeyPath: k\n", nil, "host.address is required"},
		{"hcloud without token", "host:\n  name: h\n  source: hcloud\n  privateKeyPath: k\n", nil, "HCLOUD_TOKEN"},
		{"bad source", "host:\n  name: h\n  source: ftp\n  privateKeyPath: k\n", nil, "unknown host.source"},
		{"missing key", "host:\n  name: h\n  address: 1.2.3.4\n", nil, "privateKeyPath"},
		{"relative remote dir", minimalConfig + "remoteDir: data\n", nil, "absolute"},
		{"bad namespace", minimalConfig + "defaultNamespace: Not_Valid\n", nil, "defaultNamespace"},
		{"negative replicas", minimalConfig + "limits:\n  maxReplicas: -1\n", nil, "maxReplicas"},
		{"short identity", minimalConfig + "identity:\n  length: 2\n", nil, "identity.length"},
		{"postgres without dsn", minimalConfig + "store:\n  driver: postgres\n", nil, "K8ZDB_STORE_DSN"},
		{"unknown store", minimalConfig + "store:\n  driver: sqlite\n", nil, "unknown store driver"},
		{"half s3 keys", minimalConfig + "s3:\n  region: fsn1\n", map[string]string{EnvS3AccessKey: "ak"}, "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSecretEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_File(t *testing.T) {
	clearSecretEnv(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "control-1", cfg.Host.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultConfigFilename), []byte(minimalConfig), 0o600))
	t.Chdir(nested)

	path, err := FindConfigFile()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigFilename, filepath.Base(path))
}
