package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/k8zdb/internal/metrics"
	"github.com/imamik/k8zdb/internal/platform/hcloud"
)

// ServerLookup resolves a server name to an IP.
type ServerLookup interface {
	GetServerIP(ctx context.Context, name string, private bool) (string, error)
}

// HCloud resolves host addresses through the Hetzner Cloud API. Every other
// connection parameter comes from Template.
type HCloud struct {
	lookup   ServerLookup
	template Host
	private  bool
}

// NewHCloud creates a registry backed by a server lookup. When private is
// set the host is reached on its private network IP.
func NewHCloud(lookup ServerLookup, template Host, private bool) *HCloud {
	return &HCloud{lookup: lookup, template: template, private: private}
}

// Lookup implements Registry.
func (r *HCloud) Lookup(ctx context.Context, name string) (*Host, error) {
	ip, err := r.lookup.GetServerIP(ctx, name, r.private)
	metrics.RecordHCloudAPICall("get_server", err)
	if err != nil {
		if errors.Is(err, hcloud.ErrServerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrHostNotFound, name)
		}
		return nil, fmt.Errorf("failed to look up host %s: %w", name, err)
	}
	h := r.template
	h.Name = name
	h.Address = ip
	return &h, nil
}
