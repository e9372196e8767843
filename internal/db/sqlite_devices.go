package db

import (
	"context"
	"database/sql"

	"github.com/cctv-report/backend/internal/model"
)

func (s *SQLite) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Device{}
	for rows.Next() {
		d, err := scanSQLiteDevice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// UpsertDevice - replaces every mutable field when the id exists, inserts otherwise
func (s *SQLite) UpsertDevice(ctx context.Context, d model.Device) (*model.Device, error) {
	now := nowText()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO devices (id, name, sn, model, ip, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			sn = excluded.sn,
			model = excluded.model,
			ip = excluded.ip,
			updated_at = excluded.updated_at
		RETURNING `+deviceColumns,
		d.ID, d.Name, d.SerialNumber, d.Model, d.IP, now, now)
	return scanSQLiteDevice(row)
}

// DeleteDevice - removing an unknown id is not an error
func (s *SQLite) DeleteDevice(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	return err
}

// WithDeviceTx runs fn in one transaction: committed when fn returns nil,
// rolled back otherwise.
func (s *SQLite) WithDeviceTx(ctx context.Context, fn func(DeviceTx) error) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		return fn(liteDeviceTx{tx: tx})
	})
}

type liteDeviceTx struct {
	tx *sql.Tx
}

func (t liteDeviceTx) DeviceNames(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name FROM devices`)
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

func (t liteDeviceTx) InsertDevice(ctx context.Context, d model.Device) error {
	now := nowText()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO devices (id, name, sn, model, ip, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.SerialNumber, d.Model, d.IP, now, now)
	return err
}

func scanSQLiteDevice(row scanner) (*model.Device, error) {
	var d model.Device
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.Name, &d.SerialNumber, &d.Model, &d.IP, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
