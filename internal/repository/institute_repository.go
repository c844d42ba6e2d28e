package repository

import (
	"context"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

const instituteColumns = `id, name, email, domain, logo_url, admin_name, designation,
	contact_number, address_street, address_city, address_state, address_country,
	address_pincode, verification_status, verified_at, verified_by, created_at, updated_at`

// InstituteRepository handles institute data access.
type InstituteRepository struct {
	pool *pgxpool.Pool
}

// NewInstituteRepository creates a new InstituteRepository.
func NewInstituteRepository(pool *pgxpool.Pool) *InstituteRepository {
	return &InstituteRepository{pool: pool}
}

// Create inserts a new institute with status pending. Uniqueness of email
// and domain is enforced by the database; callers map the constraint error.
func (r *InstituteRepository) Create(ctx context.Context, inst *model.Institute) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO institutes (name, email, domain, logo_url, admin_name, designation,
			contact_number, address_street, address_city, address_state, address_country, address_pincode)
		 VALUES ($1, lower($2), lower($3), $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, verification_status, created_at, updated_at`,
		inst.Name, inst.Email, inst.Domain, inst.LogoURL, inst.AdminName, inst.Designation,
		inst.ContactNumber, inst.Address.Street, inst.Address.City, inst.Address.State,
		inst.Address.Country, inst.Address.Pincode,
	).Scan(&inst.ID, &inst.VerificationStatus, &inst.CreatedAt, &inst.UpdatedAt)
}

// GetByID retrieves an institute by its ID.
func (r *InstituteRepository) GetByID(ctx context.Context, id int) (*model.Institute, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+instituteColumns+` FROM institutes WHERE id = $1`, id)
	return scanInstitute(row)
}

// GetByEmail retrieves an institute by its contact email.
func (r *InstituteRepository) GetByEmail(ctx context.Context, email string) (*model.Institute, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+instituteColumns+` FROM institutes WHERE lower(email) = lower($1)`, email)
	return scanInstitute(row)
}

// SetVerification moves an institute to approved/rejected, recording who
// decided and when. Repeat calls overwrite verified_at and verified_by.
func (r *InstituteRepository) SetVerification(ctx context.Context, id int, status model.InstituteStatus, verifiedBy string) (*model.Institute, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE institutes
		 SET verification_status = $1, verified_at = CURRENT_TIMESTAMP, verified_by = $2,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3
		 RETURNING `+instituteColumns,
		status, verifiedBy, id)
	return scanInstitute(row)
}

// ListApproved returns the public projection of approved institutes, used
// to populate staff registration choices.
func (r *InstituteRepository) ListApproved(ctx context.Context) ([]model.InstituteOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, domain, verification_status
		 FROM institutes WHERE verification_status = 'approved' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []model.InstituteOption
	for rows.Next() {
		var o model.InstituteOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Domain, &o.Status); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// ListAll returns every institute, newest first. Admin panel only.
func (r *InstituteRepository) ListAll(ctx context.Context) ([]model.Institute, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+instituteColumns+` FROM institutes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var institutes []model.Institute
	for rows.Next() {
		inst, err := scanInstitute(rows)
		if err != nil {
			return nil, err
		}
		institutes = append(institutes, *inst)
	}
	return institutes, rows.Err()
}

// FindApprovedByTriplet matches an approved institute by partial,
// case-insensitive name, admin name and designation. When several match,
// the most recently decided one wins.
func (r *InstituteRepository) FindApprovedByTriplet(ctx context.Context, name, adminName, designation string) (*model.Institute, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+instituteColumns+`
		 FROM institutes
		 WHERE name ILIKE '%' || $1 || '%'
		   AND admin_name ILIKE '%' || $2 || '%'
		   AND designation ILIKE '%' || $3 || '%'
		   AND verification_status = 'approved'
		 ORDER BY verified_at DESC NULLS LAST, id DESC
		 LIMIT 1`,
		name, adminName, designation)
	return scanInstitute(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitute(row rowScanner) (*model.Institute, error) {
	inst := &model.Institute{}
	err := row.Scan(
		&inst.ID, &inst.Name, &inst.Email, &inst.Domain, &inst.LogoURL,
		&inst.AdminName, &inst.Designation, &inst.ContactNumber,
		&inst.Address.Street, &inst.Address.City, &inst.Address.State,
		&inst.Address.Country, &inst.Address.Pincode,
		&inst.VerificationStatus, &inst.VerifiedAt, &inst.VerifiedBy,
		&inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
