package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Session errors surfaced by the auth middleware.
var (
	ErrNoActiveSession    = errors.New("no active session")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims extends JWT standard claims with the authenticated email and the
// role resolved at login time. The role in the token is informational;
// authorization re-resolves it on every request.
type Claims struct {
	jwt.RegisteredClaims
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// exchangeClaims is the short-lived token the frontend mints after the
// identity provider callback, signed with the shared exchange secret. It is
// the proof that the profile inside it was authenticated by the provider.
type exchangeClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type userStore interface {
	Upsert(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type roleResolver interface {
	Resolve(ctx context.Context, email string) (model.Identity, error)
}

// AuthService handles login, JWT issuance, and session management.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	users    userStore
	identity roleResolver
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, users userStore, identity roleResolver) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, users: users, identity: identity}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login signs a user in. With a password it is a local credentials login
// against a seeded account. Without one it is a provider profile exchange:
// the request must carry an exchange token signed by the trusted frontend,
// and the profile is taken from that token, never from the request body.
// A new login replaces any previous session for the same email.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user *model.User
	if req.Password != "" {
		u, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidCredentials
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
		if u.PasswordHash == "" {
			return nil, ErrInvalidCredentials
		}
		if err := s.CheckPassword(u.PasswordHash, req.Password); err != nil {
			return nil, err
		}
		user = u
	} else {
		profile, err := s.verifyExchange(req.IDToken)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(profile.Email, email) {
			return nil, ErrInvalidCredentials
		}
		u := &model.User{Email: email, Name: profile.Name, AvatarURL: profile.AvatarURL}
		if err := s.users.Upsert(ctx, u); err != nil {
			return nil, fmt.Errorf("upsert user: %w", err)
		}
		user = u
	}

	return s.finishLogin(ctx, user)
}

// IssueSession upserts a profile and starts a session for an email whose
// identity was already proven server-side, such as a verify-login triplet
// match. It must never be reachable from unauthenticated client input.
func (s *AuthService) IssueSession(ctx context.Context, email, name string) (*model.LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u := &model.User{Email: email, Name: name}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return s.finishLogin(ctx, u)
}

func (s *AuthService) finishLogin(ctx context.Context, user *model.User) (*model.LoginResponse, error) {
	ident, err := s.identity.Resolve(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	token, err := s.issueToken(ctx, user.Email, ident.Role)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, User: *user, Role: ident.Role}, nil
}

// verifyExchange validates the frontend-minted exchange token and returns
// the authenticated profile. Any failure maps to ErrInvalidCredentials so
// the endpoint leaks nothing about why the proof was rejected.
func (s *AuthService) verifyExchange(tokenStr string) (*exchangeClaims, error) {
	if tokenStr == "" || s.cfg.ProviderSecret == "" {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.ParseWithClaims(tokenStr, &exchangeClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.ProviderSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*exchangeClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrInvalidCredentials
	}

	return claims, nil
}

// Profile returns the stored user record for an authenticated email.
func (s *AuthService) Profile(ctx context.Context, email string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// issueToken creates a JWT for the email and registers its jti as the
// active session in Redis, replacing any previous one.
func (s *AuthService) issueToken(ctx context.Context, email string, role model.Role) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Email: email,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.CacheKey.SessionKey(email)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateSession checks that the token's jti matches the active session
// in Redis. Logout and newer logins both invalidate older tokens.
func (s *AuthService) ValidateSession(ctx context.Context, email, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.SessionKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout removes the email's active session, invalidating its token.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, config.CacheKey.SessionKey(email)).Err()
}
