package service

import (
	"context"
	"testing"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStaffStore struct {
	byEmail   map[string]*model.Staff
	createErr error
	triplet   *model.Staff
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{byEmail: map[string]*model.Staff{}}
}

func (f *fakeStaffStore) Create(ctx context.Context, s *model.Staff) error {
	if f.createErr != nil {
		return f.createErr
	}
	s.ID = len(f.byEmail) + 1
	f.byEmail[s.Email] = s
	return nil
}

func (f *fakeStaffStore) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	s, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStaffStore) FindVerifiedByTriplet(ctx context.Context, email, fullName, employeeID string) (*model.Staff, error) {
	if f.triplet == nil {
		return nil, pgx.ErrNoRows
	}
	return f.triplet, nil
}

type fakeInvalidator struct {
	invalidated []string
}

func (f *fakeInvalidator) InvalidateStaffStatus(ctx context.Context, email string) error {
	f.invalidated = append(f.invalidated, email)
	return nil
}

func approvedInstituteStore() *fakeInstituteStore {
	store := newFakeInstituteStore()
	store.byID[1] = &model.Institute{
		ID:                 1,
		Name:               "Springfield High",
		Domain:             "springfield.edu",
		VerificationStatus: model.InstituteStatusApproved,
	}
	return store
}

func staffRequest() model.RegisterStaffRequest {
	return model.RegisterStaffRequest{
		FullName:    "Edna Krabappel",
		Designation: "Teacher",
		InstituteID: 1,
	}
}

func TestStaffRegisterDomainMatch(t *testing.T) {
	store := newFakeStaffStore()
	cache := &fakeInvalidator{}
	svc := NewStaffService(store, approvedInstituteStore(), cache)

	res, err := svc.Register(context.Background(), "edna@springfield.edu", staffRequest())
	require.NoError(t, err)

	assert.True(t, res.AutoVerified)
	assert.Equal(t, model.StaffStatusAutoVerified, res.Staff.VerificationStatus)
	assert.Equal(t, model.VerificationMethodDomainMatch, res.Staff.VerificationMethod)
	require.NotNil(t, res.Staff.VerifiedAt)
	assert.Equal(t, "Springfield High", res.Staff.InstituteName)
	assert.Equal(t, []string{"edna@springfield.edu"}, cache.invalidated)
}

func TestStaffRegisterDomainMismatchStaysPending(t *testing.T) {
	store := newFakeStaffStore()
	svc := NewStaffService(store, approvedInstituteStore(), &fakeInvalidator{})

	res, err := svc.Register(context.Background(), "edna@gmail.com", staffRequest())
	require.NoError(t, err)

	assert.False(t, res.AutoVerified)
	assert.Equal(t, model.StaffStatusPending, res.Staff.VerificationStatus)
	assert.Equal(t, model.VerificationMethodManualApproval, res.Staff.VerificationMethod)
	assert.Nil(t, res.Staff.VerifiedAt)
}

func TestStaffRegisterCaseInsensitiveDomain(t *testing.T) {
	svc := NewStaffService(newFakeStaffStore(), approvedInstituteStore(), &fakeInvalidator{})

	res, err := svc.Register(context.Background(), "Edna@SPRINGFIELD.EDU", staffRequest())
	require.NoError(t, err)
	assert.True(t, res.AutoVerified)
}

func TestStaffRegisterInstituteNotApproved(t *testing.T) {
	institutes := approvedInstituteStore()
	institutes.byID[1].VerificationStatus = model.InstituteStatusPending
	svc := NewStaffService(newFakeStaffStore(), institutes, &fakeInvalidator{})

	_, err := svc.Register(context.Background(), "edna@springfield.edu", staffRequest())
	assert.ErrorIs(t, err, ErrInstituteNotApproved)
}

func TestStaffRegisterUnknownInstitute(t *testing.T) {
	svc := NewStaffService(newFakeStaffStore(), newFakeInstituteStore(), &fakeInvalidator{})

	_, err := svc.Register(context.Background(), "edna@springfield.edu", staffRequest())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaffRegisterDuplicate(t *testing.T) {
	store := newFakeStaffStore()
	store.createErr = &pgconn.PgError{Code: "23505"}
	svc := NewStaffService(store, approvedInstituteStore(), &fakeInvalidator{})

	_, err := svc.Register(context.Background(), "edna@springfield.edu", staffRequest())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestStaffStatus(t *testing.T) {
	store := newFakeStaffStore()
	store.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusAutoVerified,
	}
	svc := NewStaffService(store, newFakeInstituteStore(), &fakeInvalidator{})

	status, err := svc.Status(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.True(t, status.IsStaff)
	assert.True(t, status.IsVerified)

	status, err = svc.Status(context.Background(), "nobody@springfield.edu")
	require.NoError(t, err)
	assert.False(t, status.IsStaff)
	assert.False(t, status.IsVerified)
	assert.Nil(t, status.Staff)
}

func TestStaffStatusPendingNotVerified(t *testing.T) {
	store := newFakeStaffStore()
	store.byEmail["edna@springfield.edu"] = &model.Staff{
		Email:              "edna@springfield.edu",
		VerificationStatus: model.StaffStatusPending,
	}
	svc := NewStaffService(store, newFakeInstituteStore(), &fakeInvalidator{})

	status, err := svc.Status(context.Background(), "edna@springfield.edu")
	require.NoError(t, err)
	assert.True(t, status.IsStaff)
	assert.False(t, status.IsVerified)
}

func TestStaffVerifyLoginNoMatch(t *testing.T) {
	svc := NewStaffService(newFakeStaffStore(), newFakeInstituteStore(), &fakeInvalidator{})

	_, err := svc.VerifyLogin(context.Background(), model.StaffLoginRequest{
		Email:      "edna@springfield.edu",
		FullName:   "Edna Krabappel",
		EmployeeID: "EMP-1",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
