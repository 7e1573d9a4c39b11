// Package manifest renders the Kubernetes resources of a workload.
//
// Rendering is pure: the same kind, identity and spec always produce
// byte-identical YAML. Objects are built from typed k8s.io/api structs and
// serialized through sigs.k8s.io/yaml, so field values never need manual
// YAML escaping. The only text this package splices by hand is the shell
// command of readiness probes, which it quotes with the shell package.
package manifest
