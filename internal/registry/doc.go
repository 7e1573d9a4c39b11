// Package registry resolves the designated cluster host to SSH connection
// parameters.
//
// Hosts are either listed statically in configuration or looked up by
// server name in Hetzner Cloud. A [Connector] combines a registry lookup
// with an SSH dial and is what provisioning operations use to reach the host.
package registry
