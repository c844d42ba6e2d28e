package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type instituteStore interface {
	Create(ctx context.Context, inst *model.Institute) error
	GetByID(ctx context.Context, id int) (*model.Institute, error)
	GetByEmail(ctx context.Context, email string) (*model.Institute, error)
	SetVerification(ctx context.Context, id int, status model.InstituteStatus, verifiedBy string) (*model.Institute, error)
	ListApproved(ctx context.Context) ([]model.InstituteOption, error)
	ListAll(ctx context.Context) ([]model.Institute, error)
	FindApprovedByTriplet(ctx context.Context, name, adminName, designation string) (*model.Institute, error)
}

// InstituteService handles institute registration and verification.
type InstituteService struct {
	repo instituteStore
}

// NewInstituteService creates a new InstituteService.
func NewInstituteService(repo instituteStore) *InstituteService {
	return &InstituteService{repo: repo}
}

// Register creates a pending institute. The contact email's domain part
// must equal the supplied domain, and both email and domain must be unused.
func (s *InstituteService) Register(ctx context.Context, req model.RegisterInstituteRequest) (*model.Institute, error) {
	if EmailDomain(req.Email) != strings.ToLower(req.Domain) {
		return nil, ErrDomainMismatch
	}

	inst := &model.Institute{
		Name:          req.Name,
		Email:         strings.ToLower(req.Email),
		Domain:        strings.ToLower(req.Domain),
		LogoURL:       req.LogoURL,
		AdminName:     req.AdminName,
		Designation:   req.Designation,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	}

	if err := s.repo.Create(ctx, inst); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create institute: %w", err)
	}
	return inst, nil
}

// GetByID retrieves an institute.
func (s *InstituteService) GetByID(ctx context.Context, id int) (*model.Institute, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inst, nil
}

// Profile returns the institute whose contact email is the caller's.
func (s *InstituteService) Profile(ctx context.Context, email string) (*model.Institute, error) {
	inst, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inst, nil
}

// Approve marks an institute approved, recording the deciding admin.
// Repeatable; a later call overwrites the earlier decision.
func (s *InstituteService) Approve(ctx context.Context, id int, adminEmail string) (*model.Institute, error) {
	return s.setVerification(ctx, id, model.InstituteStatusApproved, adminEmail)
}

// Reject marks an institute rejected.
func (s *InstituteService) Reject(ctx context.Context, id int, adminEmail string) (*model.Institute, error) {
	return s.setVerification(ctx, id, model.InstituteStatusRejected, adminEmail)
}

func (s *InstituteService) setVerification(ctx context.Context, id int, status model.InstituteStatus, adminEmail string) (*model.Institute, error) {
	inst, err := s.repo.SetVerification(ctx, id, status, adminEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inst, nil
}

// ListApproved returns the public projection of approved institutes.
func (s *InstituteService) ListApproved(ctx context.Context) ([]model.InstituteOption, error) {
	opts, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = []model.InstituteOption{}
	}
	return opts, nil
}

// ListAll returns every institute, newest first. Admin only.
func (s *InstituteService) ListAll(ctx context.Context) ([]model.Institute, error) {
	institutes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if institutes == nil {
		institutes = []model.Institute{}
	}
	return institutes, nil
}

// VerifyLogin matches an approved institute by its login triplet. All three
// fields match partially and case-insensitively; when several institutes
// match, the most recently approved one wins.
func (s *InstituteService) VerifyLogin(ctx context.Context, req model.InstituteLoginRequest) (*model.Institute, error) {
	inst, err := s.repo.FindApprovedByTriplet(ctx, req.InstituteName, req.AdminName, req.Designation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return inst, nil
}

// EmailDomain returns the lowercased domain part of an email address, or
// an empty string when there is none.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
