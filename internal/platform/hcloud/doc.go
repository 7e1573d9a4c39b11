// Package hcloud looks up servers in Hetzner Cloud.
//
// The control host of a cluster can be registered by server name instead of
// a fixed address. Lookups retry on rate limiting with exponential backoff;
// any other API error is returned immediately.
package hcloud
