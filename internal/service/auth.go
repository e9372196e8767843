package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cctv-report/backend/internal/config"
	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshCookieName = "cctv_report_refresh"
	tokenIssuer       = "cctv-report"
	minLoginIDLength  = 3
	minPasswordLength = 8
)

// authRepo - admin account and session storage
type authRepo interface {
	GetAdmin(ctx context.Context) (*model.AdminAccount, error)
	CreateAdmin(ctx context.Context, loginID, passwordHash string) (bool, error)
	SetAdminPassword(ctx context.Context, passwordHash string) error
	CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error
	GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error)
	RevokeSession(ctx context.Context, tokenHash string) error
	RotateSession(ctx context.Context, oldID int64, newTokenHash string, expiresAt time.Time) error
	PruneSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

type AuthService struct {
	repo       authRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cookieCfg  CookieConfig
	logger     *zap.Logger
}

func NewAuthService(repo authRepo, cfg config.AuthConfig, logger *zap.Logger) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.JWTRefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		repo:       repo,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		cookieCfg: CookieConfig{
			Name:     refreshCookieName,
			Path:     cookiePath,
			Domain:   cfg.CookieDomain,
			Secure:   cookieSecure,
			SameSite: cookieSameSite,
			MaxAge:   int(refreshTTL.Seconds()),
		},
	}, nil
}

// EnsureAdmin - creates the admin account on first start. An existing
// account is never overwritten, so a password changed through the API
// survives restarts.
func (s *AuthService) EnsureAdmin(ctx context.Context, loginID, password string) error {
	if strings.TrimSpace(loginID) == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: ADMIN_USERNAME/ADMIN_PASSWORD are required", ErrMisconfigured)
	}

	admin, err := s.repo.GetAdmin(ctx)
	switch {
	case err == nil:
		if admin.LoginID != loginID {
			s.logger.Warn("ADMIN_USERNAME differs from the stored admin; keeping the stored account",
				zap.String("stored_login_id", admin.LoginID))
		}
		return nil
	case !db.IsNoRows(err):
		return storageErr("load admin", err)
	}

	if err := validateCredentials(loginID, password); err != nil {
		return fmt.Errorf("%w: ADMIN_USERNAME/ADMIN_PASSWORD too short", ErrMisconfigured)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	created, err := s.repo.CreateAdmin(ctx, loginID, string(hash))
	if err != nil {
		return storageErr("create admin", err)
	}
	if created {
		s.logger.Info("admin account created", zap.String("login_id", loginID))
	}
	return nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) Login(ctx context.Context, loginID, password string) (string, string, int64, error) {
	if err := validateCredentials(loginID, password); err != nil {
		return "", "", 0, ErrUnauthorized
	}

	admin, err := s.repo.GetAdmin(ctx)
	if err != nil {
		if db.IsNoRows(err) {
			return "", "", 0, ErrUnauthorized
		}
		return "", "", 0, storageErr("load admin", err)
	}

	loginOK := subtle.ConstantTimeCompare([]byte(admin.LoginID), []byte(loginID)) == 1
	passwordOK := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
	if !loginOK || !passwordOK {
		s.logger.Warn("login rejected", zap.String("login_id", loginID))
		return "", "", 0, ErrUnauthorized
	}

	if n, err := s.repo.PruneSessions(ctx, time.Now()); err != nil {
		s.logger.Warn("expired session cleanup failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("expired sessions removed", zap.Int64("count", n))
	}

	return s.issueTokens(ctx, admin.LoginID)
}

// Refresh - exchanges an active session token for a new access token and a
// new session token. Each session token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, int64, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", 0, ErrUnauthorized
	}

	session, err := s.repo.GetSession(ctx, hashRefreshToken(refreshToken))
	if err != nil {
		if db.IsNoRows(err) {
			return "", "", 0, ErrUnauthorized
		}
		return "", "", 0, storageErr("load session", err)
	}
	if !session.Active(time.Now()) {
		return "", "", 0, ErrUnauthorized
	}

	admin, err := s.repo.GetAdmin(ctx)
	if err != nil {
		if db.IsNoRows(err) {
			return "", "", 0, ErrUnauthorized
		}
		return "", "", 0, storageErr("load admin", err)
	}

	next, nextHash, err := newRefreshToken()
	if err != nil {
		return "", "", 0, err
	}
	if err := s.repo.RotateSession(ctx, session.ID, nextHash, time.Now().Add(s.refreshTTL)); err != nil {
		if db.IsNoRows(err) {
			return "", "", 0, ErrUnauthorized
		}
		return "", "", 0, storageErr("rotate session", err)
	}

	accessToken, expiresIn, err := s.generateAccessToken(admin.LoginID)
	if err != nil {
		return "", "", 0, err
	}
	return accessToken, next, expiresIn, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.repo.RevokeSession(ctx, hashRefreshToken(refreshToken))
}

// ChangePassword - verify the current password, store the new hash and end
// every open session.
func (s *AuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength || len(newPassword) > 128 {
		return fmt.Errorf("%w: new password must be %d-128 characters", ErrValidation, minPasswordLength)
	}

	admin, err := s.repo.GetAdmin(ctx)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrUnauthorized
		}
		return storageErr("load admin", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetAdminPassword(ctx, string(hash)); err != nil {
		return storageErr("update password", err)
	}
	s.logger.Info("admin password changed", zap.String("login_id", admin.LoginID))
	return nil
}

func (s *AuthService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return &model.AuthUser{LoginID: claims.Subject}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, loginID string) (string, string, int64, error) {
	accessToken, expiresIn, err := s.generateAccessToken(loginID)
	if err != nil {
		return "", "", 0, err
	}

	refreshToken, refreshHash, err := newRefreshToken()
	if err != nil {
		return "", "", 0, err
	}
	if err := s.repo.CreateSession(ctx, refreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return "", "", 0, storageErr("store session", err)
	}
	return accessToken, refreshToken, expiresIn, nil
}

func (s *AuthService) generateAccessToken(loginID string) (string, int64, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   loginID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

func validateCredentials(loginID, password string) error {
	loginID = strings.TrimSpace(loginID)
	password = strings.TrimSpace(password)

	if len(loginID) < minLoginIDLength || len(loginID) > 64 {
		return ErrValidation
	}
	if len(password) < minPasswordLength || len(password) > 128 {
		return ErrValidation
	}
	return nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrValidation
	}
}

func newRefreshToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
