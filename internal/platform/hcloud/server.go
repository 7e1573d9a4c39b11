package hcloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/k8zdb/internal/util/retry"
)

// ErrServerNotFound is returned when no server has the requested name.
var ErrServerNotFound = errors.New("server not found")

// retryable reports whether a failed lookup is worth repeating.
func retryable(err error) bool {
	return hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded, hcloud.ErrorCodeLocked)
}

// GetServerIP returns the public IPv4 of a server, or its first private
// network IP when private is set.
func (c *RealClient) GetServerIP(ctx context.Context, name string, private bool) (string, error) {
	var server *hcloud.Server
	backoff := retry.Backoff{Retries: c.maxRetries, Delay: c.initialDelay}
	_, err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s, _, err := c.client.Server.Get(ctx, name)
		if err != nil {
			if !retryable(err) {
				return retry.Fatal(err)
			}
			return err
		}
		server = s
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get server %s: %w", name, err)
	}
	if server == nil {
		return "", fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}

	if private {
		for _, pn := range server.PrivateNet {
			if pn.IP != nil {
				return pn.IP.String(), nil
			}
		}
		return "", fmt.Errorf("server %s has no private network IP", name)
	}

	if server.PublicNet.IPv4.IP == nil || server.PublicNet.IPv4.IP.IsUnspecified() {
		return "", fmt.Errorf("server %s has no public IPv4", name)
	}
	return server.PublicNet.IPv4.IP.String(), nil
}
