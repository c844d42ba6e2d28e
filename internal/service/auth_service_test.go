package service

import (
	"context"
	"testing"
	"time"

	"github.com/batchbook/batchbook-backend/internal/config"
	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byEmail map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*model.User{}}
}

func (f *fakeUserStore) Upsert(ctx context.Context, u *model.User) error {
	if existing, ok := f.byEmail[u.Email]; ok {
		existing.Name = u.Name
		existing.AvatarURL = u.AvatarURL
		*u = *existing
		return nil
	}
	u.ID = len(f.byEmail) + 1
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type fixedRoleResolver struct {
	role model.Role
}

func (f *fixedRoleResolver) Resolve(ctx context.Context, email string) (model.Identity, error) {
	return model.Identity{Email: email, Role: f.role}, nil
}

const testProviderSecret = "test-exchange-secret"

func authFixture(t *testing.T) (*AuthService, *fakeUserStore) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		BcryptCost:     4,
		ProviderSecret: testProviderSecret,
	}
	users := newFakeUserStore()
	svc := NewAuthService(cfg, testRedis(t), users, &fixedRoleResolver{role: model.RoleGeneral})
	return svc, users
}

// exchangeTokenFor mints the token the frontend would after a provider
// callback: the authenticated profile signed with the shared secret.
func exchangeTokenFor(t *testing.T, secret, email, name string) string {
	t.Helper()
	claims := exchangeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: email,
		Name:  name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func providerLogin(t *testing.T, svc *AuthService, email, name string) *model.LoginResponse {
	t.Helper()
	res, err := svc.Login(context.Background(), model.LoginRequest{
		Email:   email,
		IDToken: exchangeTokenFor(t, testProviderSecret, email, name),
	})
	require.NoError(t, err)
	return res
}

func TestLoginProviderProfile(t *testing.T) {
	svc, users := authFixture(t)

	res, err := svc.Login(context.Background(), model.LoginRequest{
		Email:   "Alum@Gmail.com",
		IDToken: exchangeTokenFor(t, testProviderSecret, "alum@gmail.com", "Springfield Alum"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleGeneral, res.Role)
	assert.Equal(t, "alum@gmail.com", res.User.Email)
	assert.Equal(t, "Springfield Alum", res.User.Name)
	assert.Contains(t, users.byEmail, "alum@gmail.com")

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alum@gmail.com", claims.Email)
	require.NoError(t, svc.ValidateSession(context.Background(), claims.Email, claims.ID))
}

func TestLoginRejectsUnprovenEmail(t *testing.T) {
	svc, users := authFixture(t)

	// No password and no exchange token: knowing an email must not be
	// enough to get a session for it.
	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email: "admin@batchbook.app",
		Name:  "Mallory",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotContains(t, users.byEmail, "admin@batchbook.app")
}

func TestLoginRejectsForgedExchangeToken(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email:   "admin@batchbook.app",
		IDToken: exchangeTokenFor(t, "not-the-shared-secret", "admin@batchbook.app", "Mallory"),
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsExchangeEmailMismatch(t *testing.T) {
	svc, _ := authFixture(t)

	// A valid token for one's own email must not sign in a different one.
	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email:   "admin@batchbook.app",
		IDToken: exchangeTokenFor(t, testProviderSecret, "mallory@gmail.com", "Mallory"),
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsExpiredExchangeToken(t *testing.T) {
	svc, _ := authFixture(t)

	claims := exchangeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Email: "alum@gmail.com",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testProviderSecret))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "alum@gmail.com", IDToken: signed})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueSession(t *testing.T) {
	svc, users := authFixture(t)

	res, err := svc.IssueSession(context.Background(), "Office@Springfield.edu", "Seymour Skinner")
	require.NoError(t, err)

	assert.Contains(t, users.byEmail, "office@springfield.edu")

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.ValidateSession(context.Background(), claims.Email, claims.ID))
}

func TestLoginCredentials(t *testing.T) {
	svc, users := authFixture(t)

	hash, err := svc.HashPassword("hunter22")
	require.NoError(t, err)
	users.byEmail["admin@batchbook.app"] = &model.User{
		ID:           1,
		Email:        "admin@batchbook.app",
		PasswordHash: hash,
	}

	res, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "admin@batchbook.app",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email:    "admin@batchbook.app",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginCredentialsUnknownUser(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "ghost@batchbook.app",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginCredentialsNoPasswordSet(t *testing.T) {
	svc, users := authFixture(t)
	users.byEmail["alum@gmail.com"] = &model.User{ID: 1, Email: "alum@gmail.com"}

	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alum@gmail.com",
		Password: "anything",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewLoginInvalidatesOldSession(t *testing.T) {
	svc, _ := authFixture(t)

	first := providerLogin(t, svc, "alum@gmail.com", "Alum")
	second := providerLogin(t, svc, "alum@gmail.com", "Alum")

	oldClaims, err := svc.ValidateToken(first.Token)
	require.NoError(t, err)
	newClaims, err := svc.ValidateToken(second.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ValidateSession(context.Background(), oldClaims.Email, oldClaims.ID), ErrSessionInvalidated)
	assert.NoError(t, svc.ValidateSession(context.Background(), newClaims.Email, newClaims.ID))
}

func TestLogout(t *testing.T) {
	svc, _ := authFixture(t)

	res := providerLogin(t, svc, "alum@gmail.com", "Alum")

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.Email))
	assert.ErrorIs(t, svc.ValidateSession(context.Background(), claims.Email, claims.ID), ErrNoActiveSession)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc, _ := authFixture(t)

	res := providerLogin(t, svc, "alum@gmail.com", "Alum")

	_, err := svc.ValidateToken(res.Token + "x")
	assert.Error(t, err)
}
