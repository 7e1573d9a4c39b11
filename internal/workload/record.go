package workload

import (
	"fmt"
	"time"
)

// Status is the durable lifecycle state of a workload.
type Status string

// Workload statuses.
const (
	StatusBuilding Status = "BUILDING"
	StatusRunning  Status = "RUNNING"
	StatusStopped  Status = "STOPPED"
	StatusError    Status = "ERROR"
)

// validTransitions lists the statuses reachable from each status.
var validTransitions = map[Status][]Status{
	StatusBuilding: {StatusRunning, StatusError},
	StatusRunning:  {StatusStopped, StatusRunning, StatusError},
	StatusStopped:  {StatusRunning, StatusStopped, StatusError},
	StatusError:    {},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Record is the durable state of one provisioned workload.
type Record struct {
	Identity Identity `json:"identity"`
	Spec     Spec     `json:"spec"`
	Status   Status   `json:"status"`
	Endpoint string   `json:"endpoint,omitempty"`
	Port     int32    `json:"port,omitempty"`
	Replicas int32    `json:"replicas"`
	// ManifestPath and ArtifactPaths are kept for cleanup.
	ManifestPath  string    `json:"manifestPath,omitempty"`
	ArtifactPaths []string  `json:"artifactPaths,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewRecord creates a BUILDING record for a freshly generated identity.
func NewRecord(id Identity, spec Spec, now time.Time) *Record {
	if spec.CapacityGi == 0 {
		spec.CapacityGi = spec.Capacity()
	}
	return &Record{
		Identity:  id,
		Spec:      spec.Redacted(),
		Status:    StatusBuilding,
		Port:      MustLookup(spec.Kind).Port,
		Replicas:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the record to a new status.
func (r *Record) Transition(to Status, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("invalid status transition %s -> %s for workload %s", r.Status, to, r.Identity)
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// Fail moves the record to ERROR with a message. It is allowed from any
// non-terminal status.
func (r *Record) Fail(msg string, now time.Time) {
	r.Status = StatusError
	r.Error = msg
	r.UpdatedAt = now
}

// Names returns the resource names of the record's workload.
func (r *Record) Names() Names {
	return r.Identity.Names(MustLookup(r.Spec.Kind))
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.ArtifactPaths = append([]string(nil), r.ArtifactPaths...)
	return &c
}
