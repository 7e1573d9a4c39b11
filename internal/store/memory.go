package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/imamik/k8zdb/internal/workload"
)

// Memory is an in-process Store. Records are copied in and out.
type Memory struct {
	mu      sync.RWMutex
	records map[workload.Identity]*workload.Record
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{records: make(map[workload.Identity]*workload.Record)}
}

func (m *Memory) Create(_ context.Context, r *workload.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.Identity]; ok {
		return fmt.Errorf("%w: %s", ErrExists, r.Identity)
	}
	m.records[r.Identity] = sanitize(r)
	return nil
}

func (m *Memory) Get(_ context.Context, id workload.Identity) (*workload.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workload.ErrNotFound, id)
	}
	return r.Clone(), nil
}

func (m *Memory) Update(_ context.Context, r *workload.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.Identity]; !ok {
		return fmt.Errorf("%w: %s", workload.ErrNotFound, r.Identity)
	}
	m.records[r.Identity] = sanitize(r)
	return nil
}

func (m *Memory) Delete(_ context.Context, id workload.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *Memory) List(_ context.Context) ([]*workload.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*workload.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Identity < out[j].Identity
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Exists(_ context.Context, id workload.Identity) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[id]
	return ok, nil
}
