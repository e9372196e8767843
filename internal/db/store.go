package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cctv-report/backend/internal/config"
	"github.com/cctv-report/backend/internal/model"
)

// Store - repository surface shared by the Postgres and SQLite backends
type Store interface {
	EnsureSchema(ctx context.Context) error
	Close() error

	ListDevices(ctx context.Context) ([]model.Device, error)
	UpsertDevice(ctx context.Context, d model.Device) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error
	WithDeviceTx(ctx context.Context, fn func(DeviceTx) error) error

	ListIncidents(ctx context.Context, window *model.TimeRange) ([]model.Incident, error)
	GetIncident(ctx context.Context, id string) (*model.Incident, error)
	CreateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error)
	UpdateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error)
	DeleteIncident(ctx context.Context, id string) error

	GetAdmin(ctx context.Context) (*model.AdminAccount, error)
	CreateAdmin(ctx context.Context, loginID, passwordHash string) (bool, error)
	SetAdminPassword(ctx context.Context, passwordHash string) error
	CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error
	GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error)
	RevokeSession(ctx context.Context, tokenHash string) error
	RotateSession(ctx context.Context, oldID int64, newTokenHash string, expiresAt time.Time) error
	PruneSessions(ctx context.Context, cutoff time.Time) (int64, error)

	ListWebhooks(ctx context.Context) ([]model.Webhook, error)
	GetWebhook(ctx context.Context, id int) (*model.Webhook, error)
	CreateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error)
	UpdateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error)
	DeleteWebhook(ctx context.Context, id int) error
}

// Compile-time interface guards.
var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)

// Open connects the backend selected by DB_DRIVER and ensures its schema.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	var store Store
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store = &Postgres{Pool: pool}
	case config.DriverSQLite:
		lite, err := NewSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = lite
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}
