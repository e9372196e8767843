package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cctv-report/backend/internal/model"
)

func (s *SQLite) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+webhookColumns+` FROM incident_webhooks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhooks: %w", err)
	}
	defer rows.Close()

	hooks := []model.Webhook{}
	for rows.Next() {
		w, err := scanSQLiteWebhook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, *w)
	}
	return hooks, rows.Err()
}

func (s *SQLite) GetWebhook(ctx context.Context, id int) (*model.Webhook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM incident_webhooks WHERE id = ?`, id)
	return scanSQLiteWebhook(row)
}

func (s *SQLite) CreateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error) {
	headers, events, err := encodeWebhookLists(w)
	if err != nil {
		return nil, err
	}
	now := nowText()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO incident_webhooks (name, url, method, headers, body, events, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+webhookColumns,
		w.Name, w.URL, w.Method, headers, w.Body, events, w.Enabled, now, now)
	saved, err := scanSQLiteWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert webhook: %w", err)
	}
	return saved, nil
}

// UpdateWebhook - sql.ErrNoRows when w.ID does not exist
func (s *SQLite) UpdateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error) {
	headers, events, err := encodeWebhookLists(w)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE incident_webhooks
		SET name = ?, url = ?, method = ?, headers = ?, body = ?, events = ?, enabled = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+webhookColumns,
		w.Name, w.URL, w.Method, headers, w.Body, events, w.Enabled, nowText(), w.ID)
	saved, err := scanSQLiteWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("webhook id=%d: %w", w.ID, err)
	}
	return saved, nil
}

func (s *SQLite) DeleteWebhook(ctx context.Context, id int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM incident_webhooks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// SQLite keeps headers and events as JSON text columns.
func encodeWebhookLists(w model.Webhook) (string, string, error) {
	headers, events := webhookArgs(w)
	h, err := json.Marshal(headers)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal headers: %w", err)
	}
	e, err := json.Marshal(events)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal events: %w", err)
	}
	return string(h), string(e), nil
}

func scanSQLiteWebhook(row scanner) (*model.Webhook, error) {
	var (
		w                    model.Webhook
		headers, events      string
		createdAt, updatedAt string
	)
	if err := row.Scan(&w.ID, &w.Name, &w.URL, &w.Method, &headers, &w.Body, &events, &w.Enabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(headers), &w.Headers); err != nil {
		return nil, fmt.Errorf("webhook %d headers: %w", w.ID, err)
	}
	if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
		return nil, fmt.Errorf("webhook %d events: %w", w.ID, err)
	}
	var err error
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
