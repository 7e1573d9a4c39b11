package kube

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/imamik/k8zdb/internal/util/shell"
)

// Kubectl builds kubectl command lines for the control host. Every caller
// value is shell-quoted.
type Kubectl struct {
	// Binary defaults to "kubectl".
	Binary string
	// Kubeconfig is a path on the host; empty uses kubectl's own discovery.
	Kubeconfig string
}

func (k Kubectl) cmd(args ...string) string {
	bin := k.Binary
	if bin == "" {
		bin = "kubectl"
	}
	if k.Kubeconfig != "" {
		args = append([]string{"--kubeconfig", k.Kubeconfig}, args...)
	}
	return shell.Command(bin, args...)
}

// GetNamespace exits 0 iff the namespace exists.
func (k Kubectl) GetNamespace(ns string) string {
	return k.cmd("get", "namespace", ns, "-o", "name")
}

// CreateNamespace creates a namespace.
func (k Kubectl) CreateNamespace(ns string) string {
	return k.cmd("create", "namespace", ns)
}

// Apply applies a manifest file on the host.
func (k Kubectl) Apply(path string) string {
	return k.cmd("apply", "-f", path)
}

// Delete removes one object and succeeds when it is already gone.
func (k Kubectl) Delete(resource, ns, name string) string {
	return k.cmd("delete", resource, name, "-n", ns, "--ignore-not-found", "--wait=false")
}

// DeleteBySelector removes every object of resource matching selector.
func (k Kubectl) DeleteBySelector(resource, ns, selector string) string {
	return k.cmd("delete", resource, "-n", ns, "-l", selector, "--ignore-not-found", "--wait=false")
}

// GetReplicas prints the desired replicas of a statefulset.
func (k Kubectl) GetReplicas(ns, name string) string {
	return k.cmd("get", "statefulset", name, "-n", ns, "-o", "jsonpath={.spec.replicas}")
}

// Scale sets the replicas of a statefulset.
func (k Kubectl) Scale(ns, name string, replicas int32) string {
	return k.cmd("scale", "statefulset", name, "-n", ns, "--replicas="+strconv.Itoa(int(replicas)))
}

// GetClaimStorage prints the requested storage of a claim.
func (k Kubectl) GetClaimStorage(ns, name string) string {
	return k.cmd("get", "pvc", name, "-n", ns, "-o", "jsonpath={.spec.resources.requests.storage}")
}

// PatchClaimStorage raises the storage request of a claim.
func (k Kubectl) PatchClaimStorage(ns, name string, capacityGi int) string {
	patch := map[string]any{
		"spec": map[string]any{
			"resources": map[string]any{
				"requests": map[string]string{"storage": fmt.Sprintf("%dGi", capacityGi)},
			},
		},
	}
	data, _ := json.Marshal(patch)
	return k.cmd("patch", "pvc", name, "-n", ns, "--type", "merge", "-p", string(data))
}

// Copy copies a host file into a pod container.
func (k Kubectl) Copy(localPath, ns, pod, container, podPath string) string {
	return k.cmd("cp", localPath, ns+"/"+pod+":"+podPath, "-c", container)
}

// Exec runs script with sh -c inside a pod container.
func (k Kubectl) Exec(ns, pod, container, script string) string {
	return k.cmd("exec", pod, "-n", ns, "-c", container, "--", "sh", "-c", script)
}

// TopPod prints CPU and memory of pods matching selector.
func (k Kubectl) TopPod(ns, selector string) string {
	return k.cmd("top", "pod", "-n", ns, "-l", selector, "--no-headers")
}
