// Package config defines the k8zdb configuration model.
//
// Configuration comes from a YAML file (k8zdb.yaml by default) describing
// the cluster host, kubeconfig locations, limits and collaborators. Secrets
// are never read from the file; they come from the environment. Timeouts and
// poll budgets are tuned separately through environment variables, see
// [LoadTimeouts].
package config
