package registry

import (
	"context"

	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/platform/ssh"
)

// Credentials resolves the kubeconfig of the connector's host, pointing it
// at the host's API address.
type Credentials struct {
	Connector *Connector
	// Preferred overrides the host's KubeconfigPath.
	Preferred string
	// Fallbacks replace kube.DefaultKubeconfigPaths when set.
	Fallbacks []string
	TempDir   string
}

// Resolve implements the provisioning credential source.
func (c *Credentials) Resolve(ctx context.Context, runner ssh.Runner) (*kube.Credentials, error) {
	host, err := c.Connector.Host(ctx)
	if err != nil {
		return nil, err
	}
	preferred := c.Preferred
	if preferred == "" {
		preferred = host.KubeconfigPath
	}
	r := kube.NewResolver(preferred, host.APIAddress())
	if len(c.Fallbacks) > 0 {
		r.Fallbacks = c.Fallbacks
	}
	r.TempDir = c.TempDir
	return r.Resolve(ctx, runner)
}
