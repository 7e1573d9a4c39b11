package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrHostNotFound is returned for names no registry knows.
var ErrHostNotFound = errors.New("host not found")

// Host holds everything needed to reach a cluster host.
type Host struct {
	Name    string
	Address string
	Port    int
	User    string
	// PrivateKey wins over PrivateKeyPath when both are set.
	PrivateKey     []byte
	PrivateKeyPath string
	// ClusterAddress is the API server address written into the kubeconfig.
	// Empty falls back to Address.
	ClusterAddress string
	// KubeconfigPath is the preferred kubeconfig location on the host.
	KubeconfigPath string
}

// APIAddress returns the address used to reach the Kubernetes API.
func (h *Host) APIAddress() string {
	if h.ClusterAddress != "" {
		return h.ClusterAddress
	}
	return h.Address
}

// Key returns the private key, reading PrivateKeyPath when needed.
func (h *Host) Key() ([]byte, error) {
	if len(h.PrivateKey) > 0 {
		return h.PrivateKey, nil
	}
	if h.PrivateKeyPath == "" {
		return nil, fmt.Errorf("host %s has no private key configured", h.Name)
	}
	p, err := expandHome(h.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	key, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key for host %s: %w", h.Name, err)
	}
	return key, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Registry looks up hosts by name.
type Registry interface {
	Lookup(ctx context.Context, name string) (*Host, error)
}

// Static is a fixed set of hosts.
type Static struct {
	hosts map[string]Host
}

// NewStatic creates a registry from hosts keyed by name.
func NewStatic(hosts ...Host) *Static {
	s := &Static{hosts: make(map[string]Host, len(hosts))}
	for _, h := range hosts {
		s.hosts[h.Name] = h
	}
	return s
}

// Lookup implements Registry.
func (s *Static) Lookup(_ context.Context, name string) (*Host, error) {
	h, ok := s.hosts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHostNotFound, name)
	}
	if h.Address == "" {
		return nil, fmt.Errorf("host %s has no address", name)
	}
	return &h, nil
}
