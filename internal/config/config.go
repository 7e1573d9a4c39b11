package config

// Host sources.
const (
	SourceStatic = "static"
	SourceHCloud = "hcloud"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	Host       HostConfig       `yaml:"host"`
	Kubeconfig KubeconfigConfig `yaml:"kubeconfig"`

	// RemoteDir is where per-workload directories are created on the host.
	RemoteDir string `yaml:"remoteDir"`
	// DefaultNamespace is used when tearing down identities with no record.
	DefaultNamespace string `yaml:"defaultNamespace"`

	Limits   LimitsConfig   `yaml:"limits"`
	Identity IdentityConfig `yaml:"identity"`
	S3       S3Config       `yaml:"s3"`
	Store    StoreConfig    `yaml:"store"`
	Serve    ServeConfig    `yaml:"serve"`

	// HCloudToken is read from HCLOUD_TOKEN.
	HCloudToken string `yaml:"-"`
}

// HostConfig describes the designated cluster host.
type HostConfig struct {
	Name string `yaml:"name"`
	// Source is "static" (Address is used) or "hcloud" (looked up by Name).
	Source         string `yaml:"source"`
	Address        string `yaml:"address,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	User           string `yaml:"user"`
	PrivateKeyPath string `yaml:"privateKeyPath"`
	// ClusterAddress replaces loopback API server addresses in the kubeconfig.
	ClusterAddress string `yaml:"clusterAddress,omitempty"`
	// Private selects the private network IP for hcloud hosts.
	Private     bool `yaml:"private,omitempty"`
	DialRetries int  `yaml:"dialRetries,omitempty"`
}

// KubeconfigConfig lists kubeconfig locations on the host.
type KubeconfigConfig struct {
	Path      string   `yaml:"path,omitempty"`
	Fallbacks []string `yaml:"fallbacks,omitempty"`
	// RemotePath is passed to kubectl on the host. Empty lets kubectl discover it.
	RemotePath string `yaml:"remotePath,omitempty"`
}

// LimitsConfig bounds scale and resize requests.
type LimitsConfig struct {
	MaxReplicas   int32 `yaml:"maxReplicas"`
	MaxCapacityGi int   `yaml:"maxCapacityGi"`
}

// IdentityConfig tunes identity generation.
type IdentityConfig struct {
	Length      int `yaml:"length"`
	MaxAttempts int `yaml:"maxAttempts"`
}

// S3Config configures the data file source. Keys come from
// K8ZDB_S3_ACCESS_KEY and K8ZDB_S3_SECRET_KEY.
type S3Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	PathStyle bool   `yaml:"pathStyle,omitempty"`

	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Enabled reports whether an S3 source is configured.
func (c S3Config) Enabled() bool {
	return c.Region != ""
}

// HetznerEndpoint returns the Hetzner object storage endpoint for a location.
func HetznerEndpoint(region string) string {
	return "https://" + region + ".your-objectstorage.com"
}

// StoreConfig selects the record store. The DSN comes from K8ZDB_STORE_DSN.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"-"`
}

// ServeConfig configures the HTTP status surface.
type ServeConfig struct {
	Address string `yaml:"address"`
}
