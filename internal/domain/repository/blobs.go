package repository

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the object-storage operations the application needs.
type BlobStore interface {
	// Put writes the object under key. The reader is consumed fully.
	Put(ctx context.Context, key string, body io.Reader, size int64) error

	// Stream opens the object for reading. The caller closes the stream.
	Stream(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// PresignPut issues a time-boxed URL allowing a single PUT of exactly
	// the given key without storage credentials.
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
}
