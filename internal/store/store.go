package store

import (
	"context"
	"errors"

	"github.com/imamik/k8zdb/internal/workload"
)

// ErrExists is returned when creating a record whose identity is taken.
var ErrExists = errors.New("workload already exists")

// Store is the durable record collaborator. Get and Update return
// workload.ErrNotFound for unknown identities. Delete is idempotent.
type Store interface {
	Create(ctx context.Context, r *workload.Record) error
	Get(ctx context.Context, id workload.Identity) (*workload.Record, error)
	Update(ctx context.Context, r *workload.Record) error
	Delete(ctx context.Context, id workload.Identity) error
	List(ctx context.Context) ([]*workload.Record, error)
	Exists(ctx context.Context, id workload.Identity) (bool, error)
}

var (
	_ Store            = (*Memory)(nil)
	_ Store            = (*Postgres)(nil)
	_ workload.Catalog = (*Memory)(nil)
	_ workload.Catalog = (*Postgres)(nil)
)

func sanitize(r *workload.Record) *workload.Record {
	c := r.Clone()
	c.Spec = c.Spec.Redacted()
	return c
}
