// Package kube reaches the cluster behind the control host.
//
// The resolver reads the cluster's kubeconfig over SSH, points it at the
// operator-configured address and materializes it as a short-lived file.
// The inspector reads claim, pod and service state through client-go.
// Kubectl builds the shell commands that mutate the cluster on the host.
package kube
