// Package workload defines the stateful workloads k8zdb provisions.
//
// A workload is described by a [Spec] supplied by the caller, named by an
// [Identity] generated once and never changed, and tracked durably through a
// [Record]. The set of supported [Kind] values is closed; each kind carries
// its own resource prefix, port, image and default capacity.
package workload
