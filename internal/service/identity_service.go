package service

import (
	"context"
	"errors"
	"strings"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// staffStatusNone is cached when no staff record exists for an email, so
// the negative lookup does not hit the database on every request.
const staffStatusNone = "none"

type instituteFinder interface {
	GetByEmail(ctx context.Context, email string) (*model.Institute, error)
}

type staffFinder interface {
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)
}

// IdentityService derives a role from an authenticated email. Roles are
// never stored; they are recomputed per request so a staff approval or an
// admin-list change takes effect immediately.
type IdentityService struct {
	cfg        *config.Config
	rdb        *redis.Client
	institutes instituteFinder
	staff      staffFinder
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(cfg *config.Config, rdb *redis.Client, institutes instituteFinder, staff staffFinder) *IdentityService {
	return &IdentityService{cfg: cfg, rdb: rdb, institutes: institutes, staff: staff}
}

// Resolve maps an email to its coarse role. Precedence: admin, then
// institute, then staff, then general.
func (s *IdentityService) Resolve(ctx context.Context, email string) (model.Identity, error) {
	ident := model.Identity{Email: strings.ToLower(email), Role: model.RoleGeneral}

	if s.cfg.IsAdminEmail(email) {
		ident.Role = model.RoleAdmin
		return ident, nil
	}

	_, err := s.institutes.GetByEmail(ctx, email)
	if err == nil {
		ident.Role = model.RoleInstitute
		return ident, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ident, err
	}

	status, err := s.staffStatus(ctx, email)
	if err != nil {
		return ident, err
	}
	if status != staffStatusNone {
		ident.Role = model.RoleStaff
	}
	return ident, nil
}

// CanUpload reports whether the email may create memories: the platform
// admin and verified staff only.
func (s *IdentityService) CanUpload(ctx context.Context, email string) (bool, error) {
	if s.cfg.IsAdminEmail(email) {
		return true, nil
	}
	status, err := s.staffStatus(ctx, email)
	if err != nil {
		return false, err
	}
	return model.StaffStatus(status).IsVerified(), nil
}

// staffStatus returns the staff verification status for an email, reading
// through a short-TTL Redis cache. Returns staffStatusNone when no staff
// record exists.
func (s *IdentityService) staffStatus(ctx context.Context, email string) (string, error) {
	key := config.CacheKey.StaffStatusKey(strings.ToLower(email))

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Cache trouble should not take auth down; fall through to the DB.
		log.Warn().Err(err).Str("component", "identity").Msg("staff status cache read failed")
	}

	status := staffStatusNone
	staff, err := s.staff.GetByEmail(ctx, email)
	if err == nil {
		status = string(staff.VerificationStatus)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if err := s.rdb.Set(ctx, key, status, s.cfg.StaffStatusTTL).Err(); err != nil {
		log.Warn().Err(err).Str("component", "identity").Msg("staff status cache write failed")
	}
	return status, nil
}

// InvalidateStaffStatus drops the cached status after a registration or a
// verification change.
func (s *IdentityService) InvalidateStaffStatus(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, config.CacheKey.StaffStatusKey(strings.ToLower(email))).Err()
}
