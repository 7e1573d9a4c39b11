package config

// Default values applied by [Config.ApplyDefaults].
const (
	DefaultConfigFilename = "k8zdb.yaml"
	DefaultSSHPort        = 22
	DefaultRemoteDir      = "/var/lib/k8zdb"
	DefaultNamespace      = "default"
	DefaultMaxReplicas    = 5
	DefaultMaxCapacityGi  = 100
	DefaultIdentityLength = 8
	DefaultIdentityTries  = 10
	DefaultServeAddress   = ":8080"
)

// hetznerLocations are regions that get an object storage endpoint by default.
var hetznerLocations = map[string]bool{
	"fsn1": true,
	"nbg1": true,
	"hel1": true,
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host.Source == "" {
		c.Host.Source = SourceStatic
	}
	if c.Host.Port == 0 {
		c.Host.Port = DefaultSSHPort
	}
	if c.Host.User == "" {
		c.Host.User = "root"
	}
	if c.RemoteDir == "" {
		c.RemoteDir = DefaultRemoteDir
	}
	if c.DefaultNamespace == "" {
		c.DefaultNamespace = DefaultNamespace
	}
	if c.Limits.MaxReplicas == 0 {
		c.Limits.MaxReplicas = DefaultMaxReplicas
	}
	if c.Limits.MaxCapacityGi == 0 {
		c.Limits.MaxCapacityGi = DefaultMaxCapacityGi
	}
	if c.Identity.Length == 0 {
		c.Identity.Length = DefaultIdentityLength
	}
	if c.Identity.MaxAttempts == 0 {
		c.Identity.MaxAttempts = DefaultIdentityTries
	}
	if c.S3.Endpoint == "" && hetznerLocations[c.S3.Region] {
		c.S3.Endpoint = HetznerEndpoint(c.S3.Region)
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	if c.Serve.Address == "" {
		c.Serve.Address = DefaultServeAddress
	}
}
