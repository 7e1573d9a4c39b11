package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/imamik/k8zdb/internal/testing"
	"github.com/imamik/k8zdb/internal/workload"
)

func newRecord(id string, created time.Time) *workload.Record {
	spec := testutil.NewSpecBuilder().Build()
	return workload.NewRecord(workload.Identity(id), spec, created)
}

func TestMemory_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	r := newRecord("abcd1234", now)
	require.NoError(t, s.Create(ctx, r))
	require.ErrorIs(t, s.Create(ctx, r), ErrExists)

	ok, err := s.Exists(ctx, "abcd1234")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, workload.StatusBuilding, got.Status)

	// Returned records are copies.
	got.Status = workload.StatusRunning
	again, err := s.Get(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, workload.StatusBuilding, again.Status)

	require.NoError(t, s.Update(ctx, got))
	again, err = s.Get(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, again.Status)

	require.NoError(t, s.Delete(ctx, "abcd1234"))
	require.NoError(t, s.Delete(ctx, "abcd1234"))

	_, err = s.Get(ctx, "abcd1234")
	require.ErrorIs(t, err, workload.ErrNotFound)
	require.ErrorIs(t, s.Update(ctx, got), workload.ErrNotFound)

	ok, err = s.Exists(ctx, "abcd1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_NeverStoresPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	r := newRecord("pw000001", time.Now())
	r.Spec.Password = "hunter2"
	require.NoError(t, s.Create(ctx, r))

	got, err := s.Get(ctx, "pw000001")
	require.NoError(t, err)
	assert.Empty(t, got.Spec.Password)

	got.Spec.Password = "again"
	require.NoError(t, s.Update(ctx, got))
	got, err = s.Get(ctx, "pw000001")
	require.NoError(t, err)
	assert.Empty(t, got.Spec.Password)
}

func TestMemory_ListOrdered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, newRecord("cccccccc", base.Add(time.Minute))))
	require.NoError(t, s.Create(ctx, newRecord("bbbbbbbb", base)))
	require.NoError(t, s.Create(ctx, newRecord("aaaaaaaa", base)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, workload.Identity("aaaaaaaa"), list[0].Identity)
	assert.Equal(t, workload.Identity("bbbbbbbb"), list[1].Identity)
	assert.Equal(t, workload.Identity("cccccccc"), list[2].Identity)
}
