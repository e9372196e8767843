package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cctv-report/backend/internal/config"
	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     "test-secret",
		JWTAccessTTL:  "5m",
		JWTRefreshTTL: "1h",
		CookieSecure:  "false",
	}
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	svc, err := NewAuthService(testutil.NewStore(t), testAuthConfig(), testutil.Logger(t))
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "Password1!"))
	return svc
}

func TestNewAuthServiceConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AuthConfig)
	}{
		{name: "missing-secret", mutate: func(c *config.AuthConfig) { c.JWTSecret = "" }},
		{name: "bad-access-ttl", mutate: func(c *config.AuthConfig) { c.JWTAccessTTL = "soon" }},
		{name: "bad-samesite", mutate: func(c *config.AuthConfig) { c.CookieSameSite = "sometimes" }},
		{name: "none-without-secure", mutate: func(c *config.AuthConfig) { c.CookieSameSite = "none" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAuthConfig()
			tt.mutate(&cfg)
			_, err := NewAuthService(nil, cfg, nil)
			assert.ErrorIs(t, err, ErrMisconfigured)
		})
	}

	svc, err := NewAuthService(nil, testAuthConfig(), nil)
	require.NoError(t, err)
	cookie := svc.CookieConfig()
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)
}

func TestLoginAndParse(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	access, refresh, expiresIn, err := svc.Login(ctx, "admin", "Password1!")
	require.NoError(t, err)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, int64(300), expiresIn)

	user, err := svc.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.LoginID)

	_, _, _, err = svc.Login(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, _, err = svc.Login(ctx, "nobody", "Password1!")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.ParseAccessToken(access + "x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testAuthConfig().JWTSecret))
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(foreign)
	assert.ErrorIs(t, err, ErrUnauthorized, "issuer is checked")
}

func TestLoginPrunesExpiredSessions(t *testing.T) {
	store := testutil.NewStore(t)
	svc, err := NewAuthService(store, testAuthConfig(), testutil.Logger(t))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "Password1!"))

	require.NoError(t, store.CreateSession(ctx, "stale", time.Now().Add(-time.Hour)))
	_, _, _, err = svc.Login(ctx, "admin", "Password1!")
	require.NoError(t, err)

	_, err = store.GetSession(ctx, "stale")
	assert.True(t, db.IsNoRows(err))
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "AnotherPass1"))
	_, _, _, err := svc.Login(ctx, "admin", "Password1!")
	require.NoError(t, err, "existing admin keeps its password")

	require.NoError(t, svc.EnsureAdmin(ctx, "operator", "AnotherPass1"))
	_, _, _, err = svc.Login(ctx, "operator", "AnotherPass1")
	assert.ErrorIs(t, err, ErrUnauthorized, "only one admin account exists")

	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "admin", ""), ErrMisconfigured)
}

func TestRefreshRotates(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, refresh, _, err := svc.Login(ctx, "admin", "Password1!")
	require.NoError(t, err)

	_, rotated, _, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, rotated)

	_, _, _, err = svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrUnauthorized, "old token is revoked after rotation")

	require.NoError(t, svc.Logout(ctx, rotated))
	_, _, _, err = svc.Refresh(ctx, rotated)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, refresh, _, err := svc.Login(ctx, "admin", "Password1!")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, "wrong", "NewPassword2"), ErrUnauthorized)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "Password1!", "short"), ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, "Password1!", "NewPassword2"))

	_, _, _, err = svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrUnauthorized, "refresh tokens are revoked")

	_, _, _, err = svc.Login(ctx, "admin", "Password1!")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, _, err = svc.Login(ctx, "admin", "NewPassword2")
	assert.NoError(t, err)
}
