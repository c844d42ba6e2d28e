package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/batchbook/batchbook-backend/internal/response"
	"github.com/batchbook/batchbook-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// allowedImageTypes is the accepted upload mime allow-list.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type memoryStore interface {
	Create(ctx context.Context, m *model.Memory) error
	GetByID(ctx context.Context, id int, viewer string) (*model.Memory, error)
	List(ctx context.Context, q model.MemoryQuery, viewer string) ([]model.Memory, int, error)
	Update(ctx context.Context, id int, title, description string) error
	Delete(ctx context.Context, id int) error
	MediaURLs(ctx context.Context, id int) ([]string, error)
	ToggleLike(ctx context.Context, id int, email string) (*model.LikeResult, error)
}

type commentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByMemory(ctx context.Context, memoryID int) ([]model.Comment, error)
}

type blobLedger interface {
	Create(ctx context.Context, publicID, url, uploaderEmail string) error
	MarkAttached(ctx context.Context, urls []string) error
	PublicIDsForURLs(ctx context.Context, urls []string) ([]string, error)
}

type blobQueue interface {
	Enqueue(ctx context.Context, publicID string) error
}

// MemoryService handles memory creation, visibility, ownership, likes and
// comments.
type MemoryService struct {
	cfg      *config.Config
	memories memoryStore
	comments commentStore
	ledger   blobLedger
	store    storage.BlobStore
	queue    blobQueue
	log      zerolog.Logger
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(cfg *config.Config, memories memoryStore, comments commentStore, ledger blobLedger, store storage.BlobStore, queue blobQueue) *MemoryService {
	return &MemoryService{
		cfg:      cfg,
		memories: memories,
		comments: comments,
		ledger:   ledger,
		store:    store,
		queue:    queue,
		log:      log.With().Str("component", "memory_service").Logger(),
	}
}

// Create validates the uploaded files, writes them to the blob store, then
// inserts the memory. Every blob is recorded in the ledger before the
// insert; if the insert fails the blobs are queued for deletion and the
// caller gets a partial-write error rather than a silent orphan.
func (s *MemoryService) Create(ctx context.Context, uploader string, req model.CreateMemoryRequest, files []*multipart.FileHeader) (*model.Memory, error) {
	if err := s.validateFiles(files); err != nil {
		return nil, err
	}

	media := make([]model.Media, 0, len(files))
	publicIDs := make([]string, 0, len(files))
	urls := make([]string, 0, len(files))

	for _, fh := range files {
		blob, err := s.uploadOne(ctx, uploader, fh)
		if err != nil {
			s.discard(ctx, publicIDs)
			return nil, err
		}
		publicIDs = append(publicIDs, blob.PublicID)
		urls = append(urls, blob.URL)
		media = append(media, model.Media{
			URL:      blob.URL,
			Filename: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
		})
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	memory := &model.Memory{
		Title:         req.Title,
		Description:   req.Description,
		Media:         media,
		SchoolName:    req.SchoolName,
		SchoolYear:    req.SchoolYear,
		SchoolClass:   req.SchoolClass,
		Batch:         req.Batch,
		UploaderEmail: strings.ToLower(uploader),
		IsPublic:      isPublic,
	}

	if err := s.memories.Create(ctx, memory); err != nil {
		s.log.Error().Err(err).Str("uploader", uploader).Msg("memory insert failed after upload")
		s.discard(ctx, publicIDs)
		return nil, ErrPartialWrite
	}

	if err := s.ledger.MarkAttached(ctx, urls); err != nil {
		// The memory exists; a stale pending row only delays the sweep.
		s.log.Warn().Err(err).Int("memory_id", memory.ID).Msg("mark attached failed")
	}

	return memory, nil
}

// uploadOne streams one multipart file into the blob store and records it
// in the ledger as pending.
func (s *MemoryService) uploadOne(ctx context.Context, uploader string, fh *multipart.FileHeader) (*storage.Blob, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
	blob, err := s.store.Put(ctx, s.cfg.UploadFolder, name, f)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	if err := s.ledger.Create(ctx, blob.PublicID, blob.URL, uploader); err != nil {
		// Blob exists but was never recorded; delete it right away.
		s.discard(ctx, []string{blob.PublicID})
		return nil, fmt.Errorf("record upload: %w", err)
	}
	return blob, nil
}

// discard queues blobs for deletion by the cleanup worker.
func (s *MemoryService) discard(ctx context.Context, publicIDs []string) {
	for _, id := range publicIDs {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			s.log.Error().Err(err).Str("public_id", id).Msg("enqueue blob delete failed")
		}
	}
}

func (s *MemoryService) validateFiles(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return ErrFileRequired
	}
	if len(files) > s.cfg.MaxUploadFiles {
		return ErrTooManyFiles
	}
	for _, fh := range files {
		if fh.Size > s.cfg.MaxUploadBytes {
			return ErrFileTooLarge
		}
		if !allowedImageTypes[fh.Header.Get("Content-Type")] {
			return ErrUnsupportedFileType
		}
	}
	return nil
}

// Get retrieves one memory. viewer may be empty for anonymous reads.
func (s *MemoryService) Get(ctx context.Context, id int, viewer string) (*model.Memory, error) {
	m, err := s.memories.GetByID(ctx, id, viewer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns the feed or a search page. The plain feed shows public
// memories only; a school or year filter switches to search, which includes
// private ones.
func (s *MemoryService) List(ctx context.Context, q model.MemoryQuery, viewer string) ([]model.Memory, *response.Pagination, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	if q.PerPage > 100 {
		q.PerPage = 100
	}

	memories, total, err := s.memories.List(ctx, q, viewer)
	if err != nil {
		return nil, nil, err
	}
	if memories == nil {
		memories = []model.Memory{}
	}

	return memories, response.NewPagination(q.Page, q.PerPage, total), nil
}

// Update changes a memory's title and description. Only the uploader or
// the platform admin may do so.
func (s *MemoryService) Update(ctx context.Context, id int, ident model.Identity, req model.UpdateMemoryRequest) (*model.Memory, error) {
	m, err := s.Get(ctx, id, ident.Email)
	if err != nil {
		return nil, err
	}
	if !canModify(ident, m) {
		return nil, ErrForbidden
	}

	if err := s.memories.Update(ctx, id, req.Title, req.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Title = req.Title
	m.Description = req.Description
	return m, nil
}

// Delete removes a memory and queues its blobs for deletion. Only the
// uploader or the platform admin may do so.
func (s *MemoryService) Delete(ctx context.Context, id int, ident model.Identity) error {
	m, err := s.Get(ctx, id, ident.Email)
	if err != nil {
		return err
	}
	if !canModify(ident, m) {
		return ErrForbidden
	}

	urls, err := s.memories.MediaURLs(ctx, id)
	if err != nil {
		return err
	}
	publicIDs, err := s.ledger.PublicIDsForURLs(ctx, urls)
	if err != nil {
		return err
	}

	if err := s.memories.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	s.discard(ctx, publicIDs)
	return nil
}

// ToggleLike flips the viewer's like on a memory and returns the new state.
func (s *MemoryService) ToggleLike(ctx context.Context, id int, email string) (*model.LikeResult, error) {
	res, err := s.memories.ToggleLike(ctx, id, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// Comments lists a memory's comments oldest first.
func (s *MemoryService) Comments(ctx context.Context, memoryID int, viewer string) ([]model.Comment, error) {
	if _, err := s.Get(ctx, memoryID, viewer); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a memory.
func (s *MemoryService) AddComment(ctx context.Context, memoryID int, email string, req model.AddCommentRequest) (*model.Comment, error) {
	comment := &model.Comment{
		MemoryID:  memoryID,
		UserEmail: strings.ToLower(email),
		Text:      req.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

// canModify reports whether the identity may edit or delete a memory: the
// uploader or the platform admin.
func canModify(ident model.Identity, m *model.Memory) bool {
	return ident.IsAdmin() || strings.EqualFold(ident.Email, m.UploaderEmail)
}
