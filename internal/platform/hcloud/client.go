package hcloud

import (
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// RealClient wraps the Hetzner Cloud API client.
type RealClient struct {
	client       *hcloud.Client
	maxRetries   int
	initialDelay time.Duration
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// WithRetry sets the rate-limit retry budget.
func WithRetry(maxRetries int, initialDelay time.Duration) ClientOption {
	return func(c *RealClient) {
		c.maxRetries = maxRetries
		c.initialDelay = initialDelay
	}
}

// NewRealClient creates a new RealClient with optional configuration.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client:       hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("k8zdb", "")),
		maxRetries:   3,
		initialDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
