// Package provisioning drives stateful workloads onto a remote cluster.
//
// # Subpackages
//
//   - scale/: replica scaling and volume resize
//   - destroy/: idempotent teardown
//
// # Core Types
//
// Orchestrator validates a request, allocates an identity and a BUILDING
// record, then runs eight Phases over one SSH session: namespace, artifact
// upload, manifest apply, volume bound, workload ready, endpoint, data
// import and finalize. Context carries the session, the record and the
// Observer that mirrors progress into the task tracker. Any fatal phase
// leaves the record in ERROR and the remote resources in place.
package provisioning
