// Package destroy tears down workloads.
//
// Every object of a workload is deleted by name with --ignore-not-found:
// the statefulset first, then the service, the secret and the data claim.
// The workload directory on the host and the record follow. Running a
// teardown twice leaves the same state as running it once.
package destroy
