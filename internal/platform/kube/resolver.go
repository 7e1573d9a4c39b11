package kube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/util/shell"
)

// DefaultKubeconfigPaths are tried in order when none is configured.
var DefaultKubeconfigPaths = []string{
	"/etc/rancher/k3s/k3s.yaml",
	"/etc/kubernetes/admin.conf",
	"/root/.kube/config",
}

// ErrKubeconfigNotFound is returned when no candidate path yields content.
var ErrKubeconfigNotFound = errors.New("kubeconfig not found on host")

// loopbackServers are the endpoint prefixes a control node writes into its
// own kubeconfig.
var loopbackServers = []string{"https://127.0.0.1:", "https://localhost:"}

// Resolver obtains cluster credentials from the control host.
type Resolver struct {
	// Preferred is read first; empty skips straight to Fallbacks.
	Preferred string
	Fallbacks []string
	// ServerAddress replaces the loopback host in the kubeconfig.
	ServerAddress string
	// TempDir holds materialized kubeconfigs. Empty uses os.TempDir.
	TempDir string
}

// NewResolver creates a resolver with the default fallback paths.
func NewResolver(preferred, serverAddress string) *Resolver {
	return &Resolver{
		Preferred:     preferred,
		Fallbacks:     DefaultKubeconfigPaths,
		ServerAddress: serverAddress,
	}
}

func (r *Resolver) candidates() []string {
	paths := make([]string, 0, len(r.Fallbacks)+1)
	seen := map[string]bool{}
	for _, p := range append([]string{r.Preferred}, r.Fallbacks...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// Resolve reads the first non-empty kubeconfig and materializes it. The
// caller must Close the returned credentials.
func (r *Resolver) Resolve(ctx context.Context, runner ssh.Runner) (*Credentials, error) {
	logger := log.FromContext(ctx)

	var blob []byte
	var source string
	for _, p := range r.candidates() {
		res, err := runner.Run(ctx, "cat "+shell.Quote(p), ssh.IgnoreExitCode())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if res.ExitCode == 0 && len(bytes.TrimSpace([]byte(res.Output))) > 0 {
			blob = []byte(res.Output)
			source = p
			break
		}
		logger.V(1).Info("kubeconfig candidate empty or missing", "path", p)
	}
	if blob == nil {
		return nil, fmt.Errorf("%w (tried %v)", ErrKubeconfigNotFound, r.candidates())
	}

	if r.ServerAddress == "" {
		logger.Info("no cluster address configured, using kubeconfig endpoint as is", "path", source)
	}
	blob = RewriteServer(blob, r.ServerAddress)

	return materialize(blob, source, r.TempDir)
}

// RewriteServer points loopback API endpoints at address. An empty address
// returns the blob unchanged.
func RewriteServer(blob []byte, address string) []byte {
	if address == "" {
		return blob
	}
	out := blob
	for _, pattern := range loopbackServers {
		out = bytes.ReplaceAll(out, []byte(pattern), []byte("https://"+address+":"))
	}
	return out
}

// Credentials is a materialized kubeconfig.
type Credentials struct {
	// Path is the local temporary file.
	Path string
	// Source is the remote path it was read from.
	Source     string
	Kubeconfig []byte

	closeOnce sync.Once
	closeErr  error
}

func materialize(blob []byte, source, dir string) (*Credentials, error) {
	f, err := os.CreateTemp(dir, "k8zdb-kubeconfig-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to create kubeconfig file: %w", err)
	}
	creds := &Credentials{Path: f.Name(), Source: source, Kubeconfig: blob}

	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		_ = creds.Close()
		return nil, fmt.Errorf("failed to restrict kubeconfig file: %w", err)
	}
	if _, err := f.Write(blob); err != nil {
		_ = f.Close()
		_ = creds.Close()
		return nil, fmt.Errorf("failed to write kubeconfig file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = creds.Close()
		return nil, fmt.Errorf("failed to write kubeconfig file: %w", err)
	}
	return creds, nil
}

// Clientset builds a typed client from the materialized file.
func (c *Credentials) Clientset() (kubernetes.Interface, error) {
	restConfig, err := clientcmd.BuildConfigFromFlags("", c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST config from kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	return clientset, nil
}

// Close removes the temporary file. It is safe to call more than once.
func (c *Credentials) Close() error {
	c.closeOnce.Do(func() {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			c.closeErr = err
		}
	})
	return c.closeErr
}
