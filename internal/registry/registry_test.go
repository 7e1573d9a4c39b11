package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8zdb/internal/platform/hcloud"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	testutil "github.com/imamik/k8zdb/internal/testing"
)

func TestStatic_Lookup(t *testing.T) {
	t.Parallel()
	reg := NewStatic(
		Host{Name: "control", Address: "203.0.113.10", User: "root"},
		Host{Name: "broken"},
	)

	h, err := reg.Lookup(context.Background(), "control")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", h.Address)
	assert.Equal(t, "203.0.113.10", h.APIAddress())

	_, err = reg.Lookup(context.Background(), "other")
	require.ErrorIs(t, err, ErrHostNotFound)

	_, err = reg.Lookup(context.Background(), "broken")
	require.Error(t, err)
}

func TestHost_APIAddressOverride(t *testing.T) {
	t.Parallel()
	h := Host{Address: "10.0.0.2", ClusterAddress: "k8s.example.com"}
	assert.Equal(t, "k8s.example.com", h.APIAddress())
}

func TestHost_Key(t *testing.T) {
	t.Parallel()

	inline := Host{Name: "a", PrivateKey: []byte("inline"), PrivateKeyPath: "/nonexistent"}
	key, err := inline.Key()
	require.NoError(t, err)
	assert.Equal(t, "inline", string(key))

	p := filepath.Join(t.TempDir(), "id")
	require.NoError(t, os.WriteFile(p, []byte("from-file"), 0o600))
	key, err = (&Host{Name: "b", PrivateKeyPath: p}).Key()
	require.NoError(t, err)
	assert.Equal(t, "from-file", string(key))

	_, err = (&Host{Name: "c"}).Key()
	require.Error(t, err)

	_, err = (&Host{Name: "d", PrivateKeyPath: filepath.Join(t.TempDir(), "missing")}).Key()
	require.Error(t, err)
}

type fakeLookup struct {
	ip      string
	err     error
	private bool
}

func (f *fakeLookup) GetServerIP(_ context.Context, name string, private bool) (string, error) {
	f.private = private
	if f.err != nil {
		return "", f.err
	}
	if name != "control-1" {
		return "", fmt.Errorf("%w: %s", hcloud.ErrServerNotFound, name)
	}
	return f.ip, nil
}

func TestHCloud_Lookup(t *testing.T) {
	t.Parallel()
	lookup := &fakeLookup{ip: "10.0.1.2"}
	reg := NewHCloud(lookup, Host{User: "root", Port: 2222}, true)

	h, err := reg.Lookup(context.Background(), "control-1")
	require.NoError(t, err)
	assert.Equal(t, Host{Name: "control-1", Address: "10.0.1.2", User: "root", Port: 2222}, *h)
	assert.True(t, lookup.private)

	_, err = reg.Lookup(context.Background(), "control-2")
	require.ErrorIs(t, err, ErrHostNotFound)

	lookup.err = errors.New("api down")
	_, err = reg.Lookup(context.Background(), "control-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHostNotFound)
}

func TestConnector_Errors(t *testing.T) {
	t.Parallel()

	c := &Connector{Registry: NewStatic(), HostName: "missing"}
	_, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrHostNotFound)

	c = &Connector{Registry: NewStatic(Host{Name: "h", Address: "127.0.0.1", User: "root"}), HostName: "h"}
	_, err = c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no private key")

	c = &Connector{Registry: NewStatic(Host{Name: "h", Address: "127.0.0.1", User: "root", PrivateKey: []byte("junk")}), HostName: "h"}
	_, err = c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse private key")
	assert.False(t, ssh.IsConnectionError(err))
}

func TestCredentials_ResolveUsesHostAddress(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	reg := NewStatic(Host{Name: "control", Address: "203.0.113.10", ClusterAddress: "10.0.0.2", User: "root", PrivateKey: []byte("k")})
	creds := &Credentials{
		Connector: &Connector{Registry: reg, HostName: "control"},
		Preferred: "/etc/k3s.yaml",
		TempDir:   dir,
	}

	runner := testutil.NewFakeRemote().On("cat '/etc/k3s.yaml'", testutil.Reply{Output: testutil.Kubeconfig("127.0.0.1")})
	c, err := creds.Resolve(context.Background(), runner)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	data, err := os.ReadFile(c.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://10.0.0.2:6443")
	assert.Equal(t, dir, filepath.Dir(c.Path))
}

func TestCredentials_UnknownHost(t *testing.T) {
	t.Parallel()
	creds := &Credentials{Connector: &Connector{Registry: NewStatic(), HostName: "missing"}}
	_, err := creds.Resolve(context.Background(), testutil.NewFakeRemote())
	assert.ErrorIs(t, err, ErrHostNotFound)
}
