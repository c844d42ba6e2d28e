package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/batchbook/batchbook-backend/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemoryStore struct {
	byID      map[int]*model.Memory
	nextID    int
	createErr error
	media     map[int][]string
	likes     map[string]bool
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{
		byID:  map[int]*model.Memory{},
		media: map[int][]string{},
		likes: map[string]bool{},
	}
}

func (f *fakeMemoryStore) Create(ctx context.Context, m *model.Memory) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	m.ID = f.nextID
	f.byID[m.ID] = m
	for _, media := range m.Media {
		f.media[m.ID] = append(f.media[m.ID], media.URL)
	}
	return nil
}

func (f *fakeMemoryStore) GetByID(ctx context.Context, id int, viewer string) (*model.Memory, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMemoryStore) List(ctx context.Context, q model.MemoryQuery, viewer string) ([]model.Memory, int, error) {
	var out []model.Memory
	for _, m := range f.byID {
		if !q.IsSearch() && !m.IsPublic {
			continue
		}
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (f *fakeMemoryStore) Update(ctx context.Context, id int, title, description string) error {
	m, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.Title = title
	m.Description = description
	return nil
}

func (f *fakeMemoryStore) Delete(ctx context.Context, id int) error {
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeMemoryStore) MediaURLs(ctx context.Context, id int) ([]string, error) {
	return f.media[id], nil
}

func (f *fakeMemoryStore) ToggleLike(ctx context.Context, id int, email string) (*model.LikeResult, error) {
	if _, ok := f.byID[id]; !ok {
		return nil, pgx.ErrNoRows
	}
	key := fmt.Sprintf("%d:%s", id, email)
	f.likes[key] = !f.likes[key]
	count := 0
	if f.likes[key] {
		count = 1
	}
	return &model.LikeResult{IsLiked: f.likes[key], LikeCount: count}, nil
}

type fakeCommentStore struct {
	comments []model.Comment
}

func (f *fakeCommentStore) Create(ctx context.Context, c *model.Comment) error {
	c.ID = len(f.comments) + 1
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeCommentStore) ListByMemory(ctx context.Context, memoryID int) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range f.comments {
		if c.MemoryID == memoryID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLedger struct {
	pending  map[string]string // publicID -> url
	attached map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{pending: map[string]string{}, attached: map[string]bool{}}
}

func (f *fakeLedger) Create(ctx context.Context, publicID, url, uploaderEmail string) error {
	f.pending[publicID] = url
	return nil
}

func (f *fakeLedger) MarkAttached(ctx context.Context, urls []string) error {
	for _, url := range urls {
		for id, u := range f.pending {
			if u == url {
				f.attached[id] = true
			}
		}
	}
	return nil
}

func (f *fakeLedger) PublicIDsForURLs(ctx context.Context, urls []string) ([]string, error) {
	var ids []string
	for _, url := range urls {
		for id, u := range f.pending {
			if u == url {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

type fakeBlobStore struct {
	uploads int
	putErr  error
	failAt  int // fail the nth upload (1-based); 0 disables
}

func (f *fakeBlobStore) Put(ctx context.Context, folder, filename string, r io.Reader) (*storage.Blob, error) {
	f.uploads++
	if f.putErr != nil && (f.failAt == 0 || f.uploads == f.failAt) {
		return nil, f.putErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &storage.Blob{
		PublicID: folder + "/" + filename,
		URL:      "https://cdn.test/" + folder + "/" + filename,
	}, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, publicID string) error {
	return nil
}

type fakeQueue struct {
	queued []string
}

func (f *fakeQueue) Enqueue(ctx context.Context, publicID string) error {
	f.queued = append(f.queued, publicID)
	return nil
}

type memoryFixture struct {
	svc    *MemoryService
	store  *fakeMemoryStore
	ledger *fakeLedger
	blobs  *fakeBlobStore
	queue  *fakeQueue
}

func newMemoryFixture() *memoryFixture {
	cfg := &config.Config{
		UploadFolder:   "memories",
		MaxUploadBytes: 10 << 20,
		MaxUploadFiles: 5,
	}
	f := &memoryFixture{
		store:  newFakeMemoryStore(),
		ledger: newFakeLedger(),
		blobs:  &fakeBlobStore{},
		queue:  &fakeQueue{},
	}
	f.svc = NewMemoryService(cfg, f.store, &fakeCommentStore{}, f.ledger, f.blobs, f.queue)
	return f
}

// makeFiles builds real multipart file headers so fh.Open works.
func makeFiles(t *testing.T, contentType string, sizes ...int) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, size := range sizes {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="photo%d.jpg"`, i))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func createRequest() model.CreateMemoryRequest {
	return model.CreateMemoryRequest{
		Title:      "Class of 1999",
		SchoolName: "Springfield High",
		SchoolYear: 1999,
	}
}

func TestMemoryCreate(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 128, 256)

	m, err := f.svc.Create(context.Background(), "Edna@springfield.edu", createRequest(), files)
	require.NoError(t, err)

	assert.Equal(t, 1, m.ID)
	assert.Equal(t, "edna@springfield.edu", m.UploaderEmail)
	assert.True(t, m.IsPublic)
	assert.Len(t, m.Media, 2)
	assert.Equal(t, 2, f.blobs.uploads)
	assert.Len(t, f.ledger.attached, 2)
	assert.Empty(t, f.queue.queued)
}

func TestMemoryCreatePrivate(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/png", 64)

	req := createRequest()
	private := false
	req.IsPublic = &private

	m, err := f.svc.Create(context.Background(), "edna@springfield.edu", req, files)
	require.NoError(t, err)
	assert.False(t, m.IsPublic)
}

func TestMemoryCreateNoFiles(t *testing.T) {
	f := newMemoryFixture()

	_, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), nil)
	assert.ErrorIs(t, err, ErrFileRequired)
	assert.Zero(t, f.blobs.uploads)
}

func TestMemoryCreateTooManyFiles(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 1, 1, 1, 1, 1, 1)

	_, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestMemoryCreateUnsupportedType(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "application/pdf", 64)

	_, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestMemoryCreateOversized(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 64)
	files[0].Size = 11 << 20

	_, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestMemoryCreateInsertFailsQueuesBlobs(t *testing.T) {
	f := newMemoryFixture()
	f.store.createErr = errors.New("db down")
	files := makeFiles(t, "image/jpeg", 64, 64)

	_, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	assert.ErrorIs(t, err, ErrPartialWrite)
	assert.Len(t, f.queue.queued, 2)
}

func TestMemoryCreateUploadFailsDiscardsEarlier(t *testing.T) {
	f := newMemoryFixture()
	f.blobs.putErr = errors.New("cloud down")
	f.blobs.failAt = 2
	files := makeFiles(t, "image/jpeg", 64, 64)

	_, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPartialWrite)
	assert.Len(t, f.queue.queued, 1)
}

func TestMemoryUpdateOwnership(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 64)
	m, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	require.NoError(t, err)

	req := model.UpdateMemoryRequest{Title: "Renamed", Description: "A new description"}

	owner := model.Identity{Email: "edna@springfield.edu", Role: model.RoleStaff}
	updated, err := f.svc.Update(context.Background(), m.ID, owner, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	stranger := model.Identity{Email: "other@gmail.com", Role: model.RoleGeneral}
	_, err = f.svc.Update(context.Background(), m.ID, stranger, req)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := model.Identity{Email: "admin@batchbook.app", Role: model.RoleAdmin}
	_, err = f.svc.Update(context.Background(), m.ID, admin, req)
	assert.NoError(t, err)
}

func TestMemoryDeleteQueuesBlobs(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 64, 64)
	m, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	require.NoError(t, err)

	stranger := model.Identity{Email: "other@gmail.com", Role: model.RoleGeneral}
	assert.ErrorIs(t, f.svc.Delete(context.Background(), m.ID, stranger), ErrForbidden)

	owner := model.Identity{Email: "edna@springfield.edu", Role: model.RoleStaff}
	require.NoError(t, f.svc.Delete(context.Background(), m.ID, owner))

	assert.Len(t, f.queue.queued, 2)
	_, err = f.svc.Get(context.Background(), m.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryToggleLike(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 64)
	m, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	require.NoError(t, err)

	res, err := f.svc.ToggleLike(context.Background(), m.ID, "alum@gmail.com")
	require.NoError(t, err)
	assert.True(t, res.IsLiked)
	assert.Equal(t, 1, res.LikeCount)

	res, err = f.svc.ToggleLike(context.Background(), m.ID, "alum@gmail.com")
	require.NoError(t, err)
	assert.False(t, res.IsLiked)
	assert.Equal(t, 0, res.LikeCount)

	_, err = f.svc.ToggleLike(context.Background(), 999, "alum@gmail.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryComments(t *testing.T) {
	f := newMemoryFixture()
	files := makeFiles(t, "image/jpeg", 64)
	m, err := f.svc.Create(context.Background(), "edna@springfield.edu", createRequest(), files)
	require.NoError(t, err)

	comment, err := f.svc.AddComment(context.Background(), m.ID, "Alum@gmail.com", model.AddCommentRequest{Text: "great times"})
	require.NoError(t, err)
	assert.Equal(t, "alum@gmail.com", comment.UserEmail)

	comments, err := f.svc.Comments(context.Background(), m.ID, "")
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, err = f.svc.Comments(context.Background(), 999, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
