package db

import (
	"context"

	"github.com/cctv-report/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

const incidentColumns = `id, incident_time, device, ip, alert_source, status, reason, resolution, sn, created_at, updated_at`

// EnsureIncidentSchema - creates the incidents table. device/ip/sn are plain
// text copies; there is deliberately no foreign key to devices.
func (db *Postgres) EnsureIncidentSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			incident_time TIMESTAMPTZ NOT NULL,
			device TEXT NOT NULL,
			ip TEXT NOT NULL DEFAULT '',
			alert_source TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Open',
			reason TEXT NOT NULL DEFAULT '',
			resolution TEXT NOT NULL DEFAULT '',
			sn TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS incidents_incident_time_idx ON incidents(incident_time DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// ListIncidents - newest first; a nil window returns every incident
func (db *Postgres) ListIncidents(ctx context.Context, window *model.TimeRange) ([]model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	var args []any
	if window != nil {
		query += ` WHERE incident_time >= $1 AND incident_time < $2`
		args = append(args, window.From, window.To)
	}
	query += ` ORDER BY incident_time DESC, id ASC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Incident{}
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *i)
	}
	return list, rows.Err()
}

func (db *Postgres) GetIncident(ctx context.Context, id string) (*model.Incident, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	return scanIncident(row)
}

func (db *Postgres) CreateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error) {
	query := `
		INSERT INTO incidents (
			id, incident_time, device, ip, alert_source, status,
			reason, resolution, sn, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + incidentColumns

	row := db.Pool.QueryRow(ctx, query,
		inc.ID,
		inc.IncidentTime,
		inc.Device,
		inc.IP,
		inc.AlertSource,
		inc.Status,
		inc.Reason,
		inc.Resolution,
		inc.SerialNumber,
	)
	return scanIncident(row)
}

// UpdateIncident - returns pgx.ErrNoRows when the id does not exist
func (db *Postgres) UpdateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error) {
	query := `
		UPDATE incidents
		SET
			incident_time = $2,
			device = $3,
			ip = $4,
			alert_source = $5,
			status = $6,
			reason = $7,
			resolution = $8,
			sn = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + incidentColumns

	row := db.Pool.QueryRow(ctx, query,
		inc.ID,
		inc.IncidentTime,
		inc.Device,
		inc.IP,
		inc.AlertSource,
		inc.Status,
		inc.Reason,
		inc.Resolution,
		inc.SerialNumber,
	)
	return scanIncident(row)
}

// DeleteIncident - removing an unknown id is not an error
func (db *Postgres) DeleteIncident(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	return err
}

func scanIncident(row pgx.Row) (*model.Incident, error) {
	var i model.Incident
	err := row.Scan(
		&i.ID,
		&i.IncidentTime,
		&i.Device,
		&i.IP,
		&i.AlertSource,
		&i.Status,
		&i.Reason,
		&i.Resolution,
		&i.SerialNumber,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
