package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStaffFinder struct {
	byEmail map[string]*model.Staff
	calls   int
}

func (f *countingStaffFinder) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	f.calls++
	s, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func identityFixture(t *testing.T) (*IdentityService, *fakeInstituteStore, *countingStaffFinder) {
	t.Helper()
	cfg := &config.Config{
		AdminEmails:    []string{"admin@batchbook.app"},
		StaffStatusTTL: 5 * time.Minute,
	}
	institutes := newFakeInstituteStore()
	staff := &countingStaffFinder{byEmail: map[string]*model.Staff{}}
	return NewIdentityService(cfg, testRedis(t), institutes, staff), institutes, staff
}

func TestResolveAdmin(t *testing.T) {
	svc, _, _ := identityFixture(t)

	ident, err := svc.Resolve(context.Background(), "ADMIN@batchbook.app")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, ident.Role)
	assert.True(t, ident.IsAdmin())
}

func TestResolveInstitute(t *testing.T) {
	svc, institutes, _ := identityFixture(t)
	institutes.byEmail["principal@springfield.edu"] = &model.Institute{ID: 1, Email: "principal@springfield.edu"}

	ident, err := svc.Resolve(context.Background(), "principal@springfield.edu")
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstitute, ident.Role)
}

func TestResolveStaff(t *testing.T) {
	svc, _, staff := identityFixture(t)
	staff.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusPending,
	}

	ident, err := svc.Resolve(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, ident.Role)
}

func TestResolveGeneral(t *testing.T) {
	svc, _, _ := identityFixture(t)

	ident, err := svc.Resolve(context.Background(), "alum@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleGeneral, ident.Role)
}

func TestCanUploadAdmin(t *testing.T) {
	svc, _, _ := identityFixture(t)

	ok, err := svc.CanUpload(context.Background(), "admin@batchbook.app")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanUploadVerifiedStaff(t *testing.T) {
	svc, _, staff := identityFixture(t)
	staff.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusAutoVerified,
	}

	ok, err := svc.CanUpload(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanUploadPendingStaffDenied(t *testing.T) {
	svc, _, staff := identityFixture(t)
	staff.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusPending,
	}

	ok, err := svc.CanUpload(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanUploadGeneralDenied(t *testing.T) {
	svc, _, _ := identityFixture(t)

	ok, err := svc.CanUpload(context.Background(), "alum@gmail.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaffStatusCached(t *testing.T) {
	svc, _, staff := identityFixture(t)
	staff.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusAutoVerified,
	}

	for i := 0; i < 3; i++ {
		ok, err := svc.CanUpload(context.Background(), "edna@springfield.edu")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, staff.calls)
}

func TestStaffStatusInvalidation(t *testing.T) {
	svc, _, staff := identityFixture(t)

	// Negative lookups are cached too.
	ok, err := svc.CanUpload(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, staff.calls)

	staff.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusAutoVerified,
	}

	// Still denied until the cache entry is dropped.
	ok, err = svc.CanUpload(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.InvalidateStaffStatus(context.Background(), "edna@springfield.edu"))

	ok, err = svc.CanUpload(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.True(t, ok)
}
