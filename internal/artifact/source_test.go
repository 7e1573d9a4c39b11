package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8zdb/internal/platform/s3"
)

type fakeObjects struct {
	bucket, key string
	err         error
}

func (f *fakeObjects) Open(_ context.Context, bucket, key string) (*s3.Object, error) {
	f.bucket, f.key = bucket, key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.Object{Body: io.NopCloser(strings.NewReader("data")), Size: 4}, nil
}

func TestFetcher_Local(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "dump.sql")
	require.NoError(t, os.WriteFile(p, []byte("CREATE TABLE t();"), 0o600))

	src, err := (&Fetcher{}).Open(context.Background(), p)
	require.NoError(t, err)
	defer func() { _ = src.Body.Close() }()

	assert.Equal(t, "dump.sql", src.Name)
	assert.Equal(t, int64(17), src.Size)
}

func TestFetcher_LocalErrors(t *testing.T) {
	t.Parallel()

	_, err := (&Fetcher{}).Open(context.Background(), filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)

	_, err = (&Fetcher{}).Open(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestFetcher_S3(t *testing.T) {
	t.Parallel()

	objs := &fakeObjects{}
	src, err := (&Fetcher{Objects: objs}).Open(context.Background(), "s3://dumps/shop/data.zip")
	require.NoError(t, err)

	assert.Equal(t, "dumps", objs.bucket)
	assert.Equal(t, "shop/data.zip", objs.key)
	assert.Equal(t, "data.zip", src.Name)
	assert.Equal(t, int64(4), src.Size)
}

func TestFetcher_S3Errors(t *testing.T) {
	t.Parallel()

	_, err := (&Fetcher{}).Open(context.Background(), "s3://dumps/a.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	_, err = (&Fetcher{Objects: &fakeObjects{}}).Open(context.Background(), "s3://dumps")
	require.Error(t, err)

	notFound := &fakeObjects{err: s3.ErrObjectNotFound}
	_, err = (&Fetcher{Objects: notFound}).Open(context.Background(), "s3://dumps/a.sql")
	assert.True(t, errors.Is(err, s3.ErrObjectNotFound))
}
