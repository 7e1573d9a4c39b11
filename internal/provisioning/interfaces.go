package provisioning

import (
	"context"

	"github.com/imamik/k8zdb/internal/artifact"
	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/platform/ssh"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the step name reported in task logs and metrics.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Connector opens the SSH session to the cluster host.
// Implemented by registry.Connector.
type Connector interface {
	Connect(ctx context.Context) (ssh.Remote, error)
}

// CredentialSource reads cluster credentials over the session.
// Implemented by kube.Resolver.
type CredentialSource interface {
	Resolve(ctx context.Context, runner ssh.Runner) (*kube.Credentials, error)
}

// InspectorFactory builds a cluster inspector from resolved credentials.
type InspectorFactory func(creds *kube.Credentials) (kube.Inspector, error)

// ArtifactSource opens data files. Implemented by artifact.Fetcher.
type ArtifactSource interface {
	Open(ctx context.Context, ref string) (*artifact.Source, error)
}

// ClientsetInspector is the InspectorFactory used outside tests.
func ClientsetInspector(creds *kube.Credentials) (kube.Inspector, error) {
	cs, err := creds.Clientset()
	if err != nil {
		return nil, err
	}
	return kube.NewInspector(cs), nil
}
