// Package naming provides the deterministic names of every resource that
// belongs to one provisioned workload.
//
// Names follow the pattern {prefix}-{token}[-suffix], where prefix is the
// workload kind's short name (pg, mysql, mongo) and token is the workload's
// identity. All functions are pure so teardown can rebuild the full resource
// set from the identity alone.
package naming
