package storage

import (
	"context"
	"io"
)

// Blob describes an object written to the blob store.
type Blob struct {
	// PublicID is the store-side identifier used for deletion.
	PublicID string
	URL      string
}

// BlobStore is the object storage boundary. Size and MIME validation happen
// before a reader ever reaches an implementation.
type BlobStore interface {
	Put(ctx context.Context, folder, filename string, r io.Reader) (*Blob, error)
	Delete(ctx context.Context, publicID string) error
}
