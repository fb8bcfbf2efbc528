package storage

import (
	"context"
	"io"
)

// ObjectStore keeps the original uploaded bytes so a document can be
// reprocessed without a re-upload.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
