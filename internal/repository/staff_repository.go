package repository

import (
	"context"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

const staffColumns = `id, full_name, email, designation, department, employee_id,
	institute_id, institute_name, verification_status, verification_method,
	verified_at, verified_by, rejected_at, rejection_reason, profile_image,
	created_at, updated_at`

// StaffRepository handles staff data access.
type StaffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

// Create inserts a new staff record. The verification fields are decided by
// the service (domain match) before the insert; email uniqueness is
// enforced by the database.
func (r *StaffRepository) Create(ctx context.Context, s *model.Staff) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO staff (full_name, email, designation, department, employee_id,
			institute_id, institute_name, verification_status, verification_method,
			verified_at, profile_image)
		 VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		s.FullName, s.Email, s.Designation, s.Department, s.EmployeeID,
		s.InstituteID, s.InstituteName, s.VerificationStatus, s.VerificationMethod,
		s.VerifiedAt, s.ProfileImage,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByEmail retrieves a staff record by email.
func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE lower(email) = lower($1)`, email)
	return scanStaff(row)
}

// FindVerifiedByTriplet matches a verified staff member by partial,
// case-insensitive email, full name and employee ID. When several match,
// the most recently verified one wins.
func (r *StaffRepository) FindVerifiedByTriplet(ctx context.Context, email, fullName, employeeID string) (*model.Staff, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+staffColumns+`
		 FROM staff
		 WHERE email ILIKE '%' || $1 || '%'
		   AND full_name ILIKE '%' || $2 || '%'
		   AND employee_id ILIKE '%' || $3 || '%'
		   AND verification_status IN ('auto_verified', 'manually_verified')
		 ORDER BY verified_at DESC NULLS LAST, id DESC
		 LIMIT 1`,
		email, fullName, employeeID)
	return scanStaff(row)
}

func scanStaff(row rowScanner) (*model.Staff, error) {
	s := &model.Staff{}
	err := row.Scan(
		&s.ID, &s.FullName, &s.Email, &s.Designation, &s.Department, &s.EmployeeID,
		&s.InstituteID, &s.InstituteName, &s.VerificationStatus, &s.VerificationMethod,
		&s.VerifiedAt, &s.VerifiedBy, &s.RejectedAt, &s.RejectionReason, &s.ProfileImage,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
