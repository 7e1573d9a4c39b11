package registry

import (
	"context"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/platform/ssh"
)

// Connector dials the designated host.
type Connector struct {
	Registry Registry
	HostName string

	DialTimeout    time.Duration
	MaxRetries     int
	CommandTimeout time.Duration
}

// Connect looks up the host and opens an SSH connection. The caller must
// close the returned Remote.
func (c *Connector) Connect(ctx context.Context) (ssh.Remote, error) {
	host, err := c.Registry.Lookup(ctx, c.HostName)
	if err != nil {
		return nil, err
	}
	key, err := host.Key()
	if err != nil {
		return nil, err
	}

	client, err := ssh.NewClient(&ssh.Config{
		Host:           host.Address,
		Port:           host.Port,
		User:           host.User,
		PrivateKey:     key,
		DialTimeout:    c.DialTimeout,
		MaxRetries:     c.MaxRetries,
		CommandTimeout: c.CommandTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid ssh settings for host %s: %w", host.Name, err)
	}

	log.FromContext(ctx).V(1).Info("connecting to cluster host", "host", host.Name, "addr", client.Addr())
	return client.Dial(ctx)
}

// Host returns the resolved host without connecting.
func (c *Connector) Host(ctx context.Context) (*Host, error) {
	return c.Registry.Lookup(ctx, c.HostName)
}
