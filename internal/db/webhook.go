package db

import (
	"context"
	"fmt"

	"github.com/cctv-report/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

const webhookColumns = `id, name, url, method, headers, body, events, enabled, created_at, updated_at`

// EnsureWebhookSchema - creates the incident_webhooks table
func (p *Postgres) EnsureWebhookSchema(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS incident_webhooks (
			id         SERIAL      PRIMARY KEY,
			name       TEXT        NOT NULL DEFAULT '',
			url        TEXT        NOT NULL,
			method     TEXT        NOT NULL DEFAULT 'POST',
			headers    JSONB       NOT NULL DEFAULT '[]',
			body       TEXT        NOT NULL DEFAULT '',
			events     TEXT[]      NOT NULL DEFAULT '{}',
			enabled    BOOLEAN     NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create incident_webhooks table: %w", err)
	}
	return nil
}

// pgx encodes the jsonb headers and the text[] events straight from the Go
// slices; nil slices would become SQL NULL.
func webhookArgs(w model.Webhook) (headers []model.WebhookHeader, events []string) {
	headers, events = w.Headers, w.Events
	if headers == nil {
		headers = []model.WebhookHeader{}
	}
	if events == nil {
		events = []string{}
	}
	return headers, events
}

func scanPGWebhook(row pgx.CollectableRow) (model.Webhook, error) {
	var w model.Webhook
	err := row.Scan(&w.ID, &w.Name, &w.URL, &w.Method, &w.Headers, &w.Body, &w.Events, &w.Enabled, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// ListWebhooks - oldest first, so delivery order follows creation order
func (p *Postgres) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	rows, err := p.Pool.Query(ctx, `SELECT `+webhookColumns+` FROM incident_webhooks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhooks: %w", err)
	}
	hooks, err := pgx.CollectRows(rows, scanPGWebhook)
	if err != nil {
		return nil, fmt.Errorf("failed to scan webhooks: %w", err)
	}
	return hooks, nil
}

// GetWebhook - pgx.ErrNoRows when missing
func (p *Postgres) GetWebhook(ctx context.Context, id int) (*model.Webhook, error) {
	rows, err := p.Pool.Query(ctx, `SELECT `+webhookColumns+` FROM incident_webhooks WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook: %w", err)
	}
	w, err := pgx.CollectExactlyOneRow(rows, scanPGWebhook)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (p *Postgres) CreateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error) {
	headers, events := webhookArgs(w)
	rows, err := p.Pool.Query(ctx, `
		INSERT INTO incident_webhooks (name, url, method, headers, body, events, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+webhookColumns,
		w.Name, w.URL, w.Method, headers, w.Body, events, w.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to insert webhook: %w", err)
	}
	saved, err := pgx.CollectExactlyOneRow(rows, scanPGWebhook)
	if err != nil {
		return nil, fmt.Errorf("failed to insert webhook: %w", err)
	}
	return &saved, nil
}

// UpdateWebhook - replaces every editable field of w.ID; pgx.ErrNoRows when
// the id does not exist
func (p *Postgres) UpdateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error) {
	headers, events := webhookArgs(w)
	rows, err := p.Pool.Query(ctx, `
		UPDATE incident_webhooks
		SET name = $2, url = $3, method = $4, headers = $5, body = $6,
		    events = $7, enabled = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+webhookColumns,
		w.ID, w.Name, w.URL, w.Method, headers, w.Body, events, w.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to update webhook: %w", err)
	}
	saved, err := pgx.CollectExactlyOneRow(rows, scanPGWebhook)
	if err != nil {
		return nil, fmt.Errorf("webhook id=%d: %w", w.ID, err)
	}
	return &saved, nil
}

// DeleteWebhook - removing an unknown id is not an error
func (p *Postgres) DeleteWebhook(ctx context.Context, id int) error {
	if _, err := p.Pool.Exec(ctx, `DELETE FROM incident_webhooks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}
