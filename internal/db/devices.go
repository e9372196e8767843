package db

import (
	"context"

	"github.com/cctv-report/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// DeviceTx - device operations available inside a merge transaction
type DeviceTx interface {
	DeviceNames(ctx context.Context) ([]string, error)
	InsertDevice(ctx context.Context, d model.Device) error
}

const deviceColumns = `id, name, sn, model, ip, created_at, updated_at`

// EnsureDeviceSchema - creates the devices table. Names are unique so the
// merge and autofill can treat them as a natural key.
func (db *Postgres) EnsureDeviceSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sn TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			ip TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE UNIQUE INDEX IF NOT EXISTS devices_name_key ON devices(name)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (db *Postgres) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Device{}
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.SerialNumber, &d.Model, &d.IP, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// UpsertDevice - replaces every mutable field when the id exists, inserts otherwise
func (db *Postgres) UpsertDevice(ctx context.Context, d model.Device) (*model.Device, error) {
	query := `
		INSERT INTO devices (id, name, sn, model, ip, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sn = EXCLUDED.sn,
			model = EXCLUDED.model,
			ip = EXCLUDED.ip,
			updated_at = NOW()
		RETURNING ` + deviceColumns

	var out model.Device
	err := db.Pool.QueryRow(ctx, query, d.ID, d.Name, d.SerialNumber, d.Model, d.IP).Scan(
		&out.ID,
		&out.Name,
		&out.SerialNumber,
		&out.Model,
		&out.IP,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDevice - removing an unknown id is not an error
func (db *Postgres) DeleteDevice(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	return err
}

// WithDeviceTx runs fn in one transaction: committed when fn returns nil,
// rolled back on any other exit.
func (db *Postgres) WithDeviceTx(ctx context.Context, fn func(DeviceTx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// the name set read by fn must stay valid until commit
	if _, err := tx.Exec(ctx, `LOCK TABLE devices IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return err
	}

	if err := fn(pgDeviceTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgDeviceTx struct {
	tx pgx.Tx
}

func (t pgDeviceTx) DeviceNames(ctx context.Context) ([]string, error) {
	rows, err := t.tx.Query(ctx, `SELECT name FROM devices`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (t pgDeviceTx) InsertDevice(ctx context.Context, d model.Device) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO devices (id, name, sn, model, ip, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, d.ID, d.Name, d.SerialNumber, d.Model, d.IP)
	return err
}
