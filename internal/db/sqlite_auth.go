package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/cctv-report/backend/internal/model"
)

func (s *SQLite) GetAdmin(ctx context.Context) (*model.AdminAccount, error) {
	var (
		a                  model.AdminAccount
		changedAt, created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT login_id, password_hash, password_changed_at, created_at
		FROM admin_account
	`).Scan(&a.LoginID, &a.PasswordHash, &changedAt, &created)
	if err != nil {
		return nil, err
	}
	if a.PasswordChangedAt, err = parseTime(changedAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLite) CreateAdmin(ctx context.Context, loginID, passwordHash string) (bool, error) {
	now := nowText()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_account (singleton, login_id, password_hash, password_changed_at, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (singleton) DO NOTHING
	`, loginID, passwordHash, now, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *SQLite) SetAdminPassword(ctx context.Context, passwordHash string) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		now := nowText()
		res, err := tx.ExecContext(ctx, `
			UPDATE admin_account SET password_hash = ?, password_changed_at = ?
		`, passwordHash, now)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return sql.ErrNoRows
		}
		_, err = tx.ExecContext(ctx, `UPDATE admin_sessions SET revoked_at = ? WHERE revoked_at IS NULL`, now)
		return err
	})
}

func (s *SQLite) CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (token_hash, expires_at, created_at) VALUES (?, ?, ?)
	`, tokenHash, formatTime(expiresAt), nowText())
	return err
}

func (s *SQLite) GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	var (
		sess             model.AdminSession
		expires, created string
		revoked          sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token_hash, expires_at, revoked_at, created_at
		FROM admin_sessions
		WHERE token_hash = ?
	`, tokenHash).Scan(&sess.ID, &sess.TokenHash, &expires, &revoked, &created)
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if revoked.Valid {
		t, err := parseTime(revoked.String)
		if err != nil {
			return nil, err
		}
		sess.RevokedAt = &t
	}
	return &sess, nil
}

func (s *SQLite) RevokeSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE admin_sessions SET revoked_at = ?
		WHERE token_hash = ? AND revoked_at IS NULL
	`, nowText(), tokenHash)
	return err
}

// RotateSession - sql.ErrNoRows when oldID was already revoked
func (s *SQLite) RotateSession(ctx context.Context, oldID int64, newTokenHash string, expiresAt time.Time) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		now := nowText()
		res, err := tx.ExecContext(ctx, `
			UPDATE admin_sessions SET revoked_at = ?
			WHERE id = ? AND revoked_at IS NULL
		`, now, oldID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return sql.ErrNoRows
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO admin_sessions (token_hash, expires_at, created_at) VALUES (?, ?, ?)
		`, newTokenHash, formatTime(expiresAt), now)
		return err
	})
}

// PruneSessions - stored times share one fixed-width layout, so text order
// is time order
func (s *SQLite) PruneSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
