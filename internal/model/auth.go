package model

import "time"

type AuthRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthMeResponse struct {
	LoginID string `json:"loginId"`
}

// AuthUser - identity carried by a verified access token
type AuthUser struct {
	LoginID string
}

// AdminAccount - the single operator allowed to edit devices and settings.
// At most one row exists.
type AdminAccount struct {
	LoginID           string
	PasswordHash      string
	PasswordChangedAt time.Time
	CreatedAt         time.Time
}

// AdminSession - a refresh token issued to the admin, stored by hash only
type AdminSession struct {
	ID        int64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the session can still be exchanged at now.
func (s AdminSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
