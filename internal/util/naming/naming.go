package naming

import (
	"fmt"
	"path"
)

// ClaimTemplate is the name of the StatefulSet volume claim template.
const ClaimTemplate = "data"

// ManifestFile is the file name of the rendered manifest inside the remote workload directory.
const ManifestFile = "manifest.yaml"

func Base(prefix, token string) string {
	return fmt.Sprintf("%s-%s", prefix, token)
}

func StatefulSet(prefix, token string) string {
	return Base(prefix, token)
}

func Secret(prefix, token string) string {
	return fmt.Sprintf("%s-secret", Base(prefix, token))
}

func Service(prefix, token string) string {
	return fmt.Sprintf("%s-svc", Base(prefix, token))
}

// Pod is the single replica's pod name (ordinal 0).
func Pod(prefix, token string) string {
	return fmt.Sprintf("%s-0", StatefulSet(prefix, token))
}

// Claim is the PersistentVolumeClaim the StatefulSet controller creates for ordinal 0.
func Claim(prefix, token string) string {
	return fmt.Sprintf("%s-%s-0", ClaimTemplate, StatefulSet(prefix, token))
}

// ClaimPattern describes the claims of every ordinal, for logs.
func ClaimPattern(prefix, token string) string {
	return fmt.Sprintf("%s-%s-*", ClaimTemplate, StatefulSet(prefix, token))
}

// ServiceDNS is the cluster-local DNS name of the workload's service.
func ServiceDNS(prefix, token, namespace string) string {
	return fmt.Sprintf("%s.%s.svc.cluster.local", Service(prefix, token), namespace)
}

// RemoteDir is the per-workload directory on the cluster host.
func RemoteDir(baseDir, prefix, token string) string {
	return path.Join(baseDir, Base(prefix, token))
}

func ManifestPath(baseDir, prefix, token string) string {
	return path.Join(RemoteDir(baseDir, prefix, token), ManifestFile)
}
