package storage

import (
	"context"
	"fmt"
	"io"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// CloudinaryStore implements BlobStore on Cloudinary.
type CloudinaryStore struct {
	cld *cld.Cloudinary
	log zerolog.Logger
}

// NewCloudinaryStore creates a BlobStore from a cloudinary:// URL.
func NewCloudinaryStore(url string, log zerolog.Logger) (*CloudinaryStore, error) {
	c, err := cld.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{
		cld: c,
		log: log.With().Str("component", "blob_store").Logger(),
	}, nil
}

// Put uploads an image and returns its public ID and HTTPS URL.
func (s *CloudinaryStore) Put(ctx context.Context, folder, filename string, r io.Reader) (*Blob, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		PublicID:     filename,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}

	s.log.Debug().Str("public_id", res.PublicID).Msg("blob uploaded")

	return &Blob{
		PublicID: res.PublicID,
		URL:      res.SecureURL,
	}, nil
}

// Delete removes a previously uploaded image by public ID.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}

	s.log.Debug().Str("public_id", publicID).Msg("blob deleted")
	return nil
}
