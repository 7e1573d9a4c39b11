// Package scale changes the replica count and volume capacity of running
// workloads.
package scale
