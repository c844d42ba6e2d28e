package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type staffStore interface {
	Create(ctx context.Context, s *model.Staff) error
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)
	FindVerifiedByTriplet(ctx context.Context, email, fullName, employeeID string) (*model.Staff, error)
}

type instituteGetter interface {
	GetByID(ctx context.Context, id int) (*model.Institute, error)
}

type statusInvalidator interface {
	InvalidateStaffStatus(ctx context.Context, email string) error
}

// StaffService handles staff registration and verification.
type StaffService struct {
	repo       staffStore
	institutes instituteGetter
	cache      statusInvalidator
}

// NewStaffService creates a new StaffService.
func NewStaffService(repo staffStore, institutes instituteGetter, cache statusInvalidator) *StaffService {
	return &StaffService{repo: repo, institutes: institutes, cache: cache}
}

// Register creates a staff record for the authenticated email. The chosen
// institute must exist and be approved. When the email's domain equals the
// institute's domain the record is verified immediately; otherwise it stays
// pending for manual approval.
func (s *StaffService) Register(ctx context.Context, email string, req model.RegisterStaffRequest) (*model.RegisterStaffResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	inst, err := s.institutes.GetByID(ctx, req.InstituteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get institute: %w", err)
	}
	if inst.VerificationStatus != model.InstituteStatusApproved {
		return nil, ErrInstituteNotApproved
	}

	staff := &model.Staff{
		FullName:           req.FullName,
		Email:              email,
		Designation:        req.Designation,
		Department:         req.Department,
		EmployeeID:         req.EmployeeID,
		InstituteID:        inst.ID,
		InstituteName:      inst.Name,
		VerificationStatus: model.StaffStatusPending,
		VerificationMethod: model.VerificationMethodManualApproval,
	}

	autoVerified := EmailDomain(email) == strings.ToLower(inst.Domain)
	if autoVerified {
		now := time.Now()
		staff.VerificationStatus = model.StaffStatusAutoVerified
		staff.VerificationMethod = model.VerificationMethodDomainMatch
		staff.VerifiedAt = &now
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create staff: %w", err)
	}

	if err := s.cache.InvalidateStaffStatus(ctx, email); err != nil {
		return nil, fmt.Errorf("invalidate status cache: %w", err)
	}

	return &model.RegisterStaffResponse{Staff: staff, AutoVerified: autoVerified}, nil
}

// Status reports whether the email belongs to a staff member and whether
// they are verified.
func (s *StaffService) Status(ctx context.Context, email string) (*model.StaffStatusResponse, error) {
	staff, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.StaffStatusResponse{}, nil
		}
		return nil, err
	}
	return &model.StaffStatusResponse{
		IsStaff:    true,
		IsVerified: staff.VerificationStatus.IsVerified(),
		Staff:      staff,
	}, nil
}

// VerifyLogin matches a verified staff member by the login triplet. All
// three fields match partially and case-insensitively.
func (s *StaffService) VerifyLogin(ctx context.Context, req model.StaffLoginRequest) (*model.Staff, error) {
	staff, err := s.repo.FindVerifiedByTriplet(ctx, req.Email, req.FullName, req.EmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return staff, nil
}
