package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStore implements BlobStore on the local filesystem. It is the
// development and test backend used when no Cloudinary account is
// configured; blobs land under dir and URLs are served relative to it.
type LocalStore struct {
	dir string
	log zerolog.Logger
}

// NewLocalStore creates a BlobStore rooted at dir, creating it if needed.
func NewLocalStore(dir string, log zerolog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{
		dir: dir,
		log: log.With().Str("component", "blob_store").Logger(),
	}, nil
}

// Put writes the blob under dir/folder/filename. The public ID is the
// slash path relative to dir, mirroring how Cloudinary addresses blobs.
func (s *LocalStore) Put(ctx context.Context, folder, filename string, r io.Reader) (*Blob, error) {
	publicID := path.Join(folder, filename)
	if !validPublicID(publicID) {
		return nil, fmt.Errorf("invalid blob name %q", publicID)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(publicID))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close blob: %w", err)
	}

	s.log.Debug().Str("public_id", publicID).Msg("blob uploaded")

	return &Blob{PublicID: publicID, URL: "/uploads/" + publicID}, nil
}

// Delete removes a blob by public ID. A missing file is not an error; the
// cleanup worker may retry a delete that already succeeded.
func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	if !validPublicID(publicID) {
		return fmt.Errorf("invalid blob name %q", publicID)
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(publicID)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}

	s.log.Debug().Str("public_id", publicID).Msg("blob deleted")
	return nil
}

// validPublicID rejects IDs that would escape the storage root.
func validPublicID(id string) bool {
	if id == "" || strings.HasPrefix(id, "/") {
		return false
	}
	for _, part := range strings.Split(id, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
