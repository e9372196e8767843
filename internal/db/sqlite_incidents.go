package db

import (
	"context"

	"github.com/cctv-report/backend/internal/model"
)

// ListIncidents - newest first; a nil window returns every incident
func (s *SQLite) ListIncidents(ctx context.Context, window *model.TimeRange) ([]model.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	var args []any
	if window != nil {
		query += ` WHERE incident_time >= ? AND incident_time < ?`
		args = append(args, formatTime(window.From), formatTime(window.To))
	}
	query += ` ORDER BY incident_time DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Incident{}
	for rows.Next() {
		i, err := scanSQLiteIncident(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *i)
	}
	return list, rows.Err()
}

func (s *SQLite) GetIncident(ctx context.Context, id string) (*model.Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	return scanSQLiteIncident(row)
}

func (s *SQLite) CreateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error) {
	now := nowText()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO incidents (
			id, incident_time, device, ip, alert_source, status,
			reason, resolution, sn, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+incidentColumns,
		inc.ID,
		formatTime(inc.IncidentTime),
		inc.Device,
		inc.IP,
		inc.AlertSource,
		inc.Status,
		inc.Reason,
		inc.Resolution,
		inc.SerialNumber,
		now,
		now,
	)
	return scanSQLiteIncident(row)
}

// UpdateIncident - returns sql.ErrNoRows when the id does not exist
func (s *SQLite) UpdateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE incidents
		SET
			incident_time = ?,
			device = ?,
			ip = ?,
			alert_source = ?,
			status = ?,
			reason = ?,
			resolution = ?,
			sn = ?,
			updated_at = ?
		WHERE id = ?
		RETURNING `+incidentColumns,
		formatTime(inc.IncidentTime),
		inc.Device,
		inc.IP,
		inc.AlertSource,
		inc.Status,
		inc.Reason,
		inc.Resolution,
		inc.SerialNumber,
		nowText(),
		inc.ID,
	)
	return scanSQLiteIncident(row)
}

// DeleteIncident - removing an unknown id is not an error
func (s *SQLite) DeleteIncident(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	return err
}

func scanSQLiteIncident(row scanner) (*model.Incident, error) {
	var i model.Incident
	var incidentTime, createdAt, updatedAt string
	err := row.Scan(
		&i.ID,
		&incidentTime,
		&i.Device,
		&i.IP,
		&i.AlertSource,
		&i.Status,
		&i.Reason,
		&i.Resolution,
		&i.SerialNumber,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if i.IncidentTime, err = parseTime(incidentTime); err != nil {
		return nil, err
	}
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}
