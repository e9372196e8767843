package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cctv-report/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// EnsureAuthSchema - admin_account holds at most one row, pinned by the
// singleton key; admin_sessions holds hashed refresh tokens.
func (p *Postgres) EnsureAuthSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS admin_account (
			singleton           BOOLEAN     PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			login_id            TEXT        NOT NULL,
			password_hash       TEXT        NOT NULL,
			password_changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS admin_sessions (
			id         BIGSERIAL   PRIMARY KEY,
			token_hash TEXT        NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS admin_sessions_expires_idx ON admin_sessions(expires_at)`,
	}
	for _, q := range queries {
		if _, err := p.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to create auth tables: %w", err)
		}
	}
	return nil
}

// GetAdmin - pgx.ErrNoRows until the account is bootstrapped
func (p *Postgres) GetAdmin(ctx context.Context) (*model.AdminAccount, error) {
	var a model.AdminAccount
	err := p.Pool.QueryRow(ctx, `
		SELECT login_id, password_hash, password_changed_at, created_at
		FROM admin_account
	`).Scan(&a.LoginID, &a.PasswordHash, &a.PasswordChangedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdmin - inserts the account unless one already exists. created is
// false when another instance won the race.
func (p *Postgres) CreateAdmin(ctx context.Context, loginID, passwordHash string) (created bool, err error) {
	tag, err := p.Pool.Exec(ctx, `
		INSERT INTO admin_account (login_id, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (singleton) DO NOTHING
	`, loginID, passwordHash)
	if err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetAdminPassword - replaces the hash and revokes every open session in the
// same transaction
func (p *Postgres) SetAdminPassword(ctx context.Context, passwordHash string) error {
	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE admin_account SET password_hash = $1, password_changed_at = NOW()
		`, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, err = tx.Exec(ctx, `UPDATE admin_sessions SET revoked_at = NOW() WHERE revoked_at IS NULL`)
		return err
	})
}

func (p *Postgres) CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := p.Pool.Exec(ctx, `
		INSERT INTO admin_sessions (token_hash, expires_at) VALUES ($1, $2)
	`, tokenHash, expiresAt)
	return err
}

// GetSession - pgx.ErrNoRows for an unknown hash
func (p *Postgres) GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	var s model.AdminSession
	err := p.Pool.QueryRow(ctx, `
		SELECT id, token_hash, expires_at, revoked_at, created_at
		FROM admin_sessions
		WHERE token_hash = $1
	`, tokenHash).Scan(&s.ID, &s.TokenHash, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Postgres) RevokeSession(ctx context.Context, tokenHash string) error {
	_, err := p.Pool.Exec(ctx, `
		UPDATE admin_sessions SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash)
	return err
}

// RotateSession - revokes oldID and stores its replacement. pgx.ErrNoRows
// when oldID was already revoked, so a token can only be exchanged once.
func (p *Postgres) RotateSession(ctx context.Context, oldID int64, newTokenHash string, expiresAt time.Time) error {
	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE admin_sessions SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
		`, oldID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO admin_sessions (token_hash, expires_at) VALUES ($1, $2)
		`, newTokenHash, expiresAt)
		return err
	})
}

// PruneSessions - drops sessions that expired before cutoff
func (p *Postgres) PruneSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
