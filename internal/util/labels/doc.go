// Package labels provides consistent labeling for workload resources.
//
// Every object rendered for a workload carries the recommended
// app.kubernetes.io labels plus the k8zdb.io/identity label, so the
// resource set can be selected from the identity alone.
package labels
