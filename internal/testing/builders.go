package testing

import (
	"time"

	"github.com/imamik/k8zdb/internal/workload"
)

// SpecBuilder provides a fluent interface for constructing test specs.
// Each method returns a new builder (immutable) for chaining.
type SpecBuilder struct {
	spec workload.Spec
}

// NewSpecBuilder creates a SpecBuilder for a valid PostgreSQL spec.
func NewSpecBuilder() *SpecBuilder {
	return &SpecBuilder{
		spec: workload.Spec{
			Kind:       workload.KindPostgreSQL,
			Namespace:  "tenant-a",
			Database:   "app",
			User:       "app",
			Password:   "secret",
			CapacityGi: 1,
		},
	}
}

// WithKind sets the workload kind.
func (b *SpecBuilder) WithKind(k workload.Kind) *SpecBuilder {
	n := b.clone()
	n.spec.Kind = k
	return n
}

// WithNamespace sets the namespace.
func (b *SpecBuilder) WithNamespace(ns string) *SpecBuilder {
	n := b.clone()
	n.spec.Namespace = ns
	return n
}

// WithCapacity sets the capacity in GiB.
func (b *SpecBuilder) WithCapacity(gi int) *SpecBuilder {
	n := b.clone()
	n.spec.CapacityGi = gi
	return n
}

// WithDataFile sets the import source.
func (b *SpecBuilder) WithDataFile(path string) *SpecBuilder {
	n := b.clone()
	n.spec.DataFile = path
	return n
}

// WithCredentials sets database, user and password.
func (b *SpecBuilder) WithCredentials(database, user, password string) *SpecBuilder {
	n := b.clone()
	n.spec.Database = database
	n.spec.User = user
	n.spec.Password = password
	return n
}

// Build returns the spec.
func (b *SpecBuilder) Build() workload.Spec {
	return b.spec
}

func (b *SpecBuilder) clone() *SpecBuilder {
	return &SpecBuilder{spec: b.spec}
}

// RecordBuilder constructs workload records in any status.
type RecordBuilder struct {
	rec workload.Record
}

// NewRecordBuilder creates a RUNNING single-replica record for spec.
func NewRecordBuilder(id workload.Identity, spec workload.Spec) *RecordBuilder {
	rec := workload.NewRecord(id, spec, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec.Status = workload.StatusRunning
	rec.Endpoint = "203.0.113.7"
	return &RecordBuilder{rec: *rec}
}

// WithStatus sets the status.
func (b *RecordBuilder) WithStatus(s workload.Status) *RecordBuilder {
	n := b.clone()
	n.rec.Status = s
	return n
}

// WithReplicas sets the replica count.
func (b *RecordBuilder) WithReplicas(r int32) *RecordBuilder {
	n := b.clone()
	n.rec.Replicas = r
	return n
}

// Build returns a fresh copy of the record.
func (b *RecordBuilder) Build() *workload.Record {
	return b.rec.Clone()
}

func (b *RecordBuilder) clone() *RecordBuilder {
	return &RecordBuilder{rec: *b.rec.Clone()}
}
