package labels

import (
	"sort"
	"strings"
)

// Standard label keys for workload resources.
const (
	// KeyName identifies the workload kind (postgresql, mysql, mongodb)
	KeyName = "app.kubernetes.io/name"

	// KeyInstance identifies one workload instance ({prefix}-{token})
	KeyInstance = "app.kubernetes.io/instance"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "app.kubernetes.io/managed-by"

	// KeyIdentity carries the bare identity token
	KeyIdentity = "k8zdb.io/identity"
)

// ManagedByK8zdb is the KeyManagedBy value for everything this tool renders.
const ManagedByK8zdb = "k8zdb"

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the instance name pre-set.
func NewLabelBuilder(instance string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyInstance:  instance,
			KeyManagedBy: ManagedByK8zdb,
		},
	}
}

// WithKind adds the workload kind label.
func (lb *LabelBuilder) WithKind(kind string) *LabelBuilder {
	lb.labels[KeyName] = kind
	return lb
}

// WithIdentity adds the identity token label.
func (lb *LabelBuilder) WithIdentity(token string) *LabelBuilder {
	lb.labels[KeyIdentity] = token
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Selector returns the pod selector used by both the StatefulSet and the Service.
// It is deliberately narrower than the full label set so that label additions
// never change an immutable StatefulSet selector.
func Selector(instance string) map[string]string {
	return map[string]string{KeyInstance: instance}
}

// SelectorString renders a label map as a kubectl -l selector with sorted keys.
func SelectorString(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}
