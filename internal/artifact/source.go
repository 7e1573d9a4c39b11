package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/imamik/k8zdb/internal/platform/s3"
)

// ObjectOpener streams objects from a bucket.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, key string) (*s3.Object, error)
}

// Source is an opened data file.
type Source struct {
	// Name is the base file name, used for the remote copy.
	Name string
	Body io.ReadCloser
	Size int64
}

// Fetcher opens data files by reference.
type Fetcher struct {
	// Objects serves s3:// references. Nil rejects them.
	Objects ObjectOpener
}

// Open resolves ref as an s3:// URI or a local path.
func (f *Fetcher) Open(ctx context.Context, ref string) (*Source, error) {
	if s3.IsURI(ref) {
		bucket, key, err := s3.ParseURI(ref)
		if err != nil {
			return nil, err
		}
		if f.Objects == nil {
			return nil, fmt.Errorf("data file %s: object storage is not configured", ref)
		}
		obj, err := f.Objects.Open(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		return &Source{Name: path.Base(key), Body: obj.Body, Size: obj.Size}, nil
	}

	file, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat data file: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("data file %s is a directory", ref)
	}
	return &Source{Name: filepath.Base(ref), Body: file, Size: info.Size()}, nil
}
