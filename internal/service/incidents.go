package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Accepted incident time layouts. Layouts without a zone are read in the
// report location.
var incidentTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type incidentRepo interface {
	ListIncidents(ctx context.Context, window *model.TimeRange) ([]model.Incident, error)
	GetIncident(ctx context.Context, id string) (*model.Incident, error)
	CreateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error)
	UpdateIncident(ctx context.Context, inc model.Incident) (*model.Incident, error)
	DeleteIncident(ctx context.Context, id string) error
}

// IncidentNotifier - receives committed incident writes
type IncidentNotifier interface {
	Notify(ctx context.Context, event string, inc model.Incident)
}

// IncidentService - incident log reads and writes
type IncidentService struct {
	repo         incidentRepo
	loc          *time.Location
	alertSources []string
	notifier     IncidentNotifier
	logger       *zap.Logger
}

func NewIncidentService(repo incidentRepo, loc *time.Location, alertSources []string, notifier IncidentNotifier, logger *zap.Logger) *IncidentService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{
		repo:         repo,
		loc:          loc,
		alertSources: alertSources,
		notifier:     notifier,
		logger:       logger,
	}
}

// Location - zone used for month windows and zone-less incident times
func (s *IncidentService) Location() *time.Location {
	return s.loc
}

// Options - selectable values for the incident form
func (s *IncidentService) Options() model.OptionsResponse {
	return model.OptionsResponse{
		Statuses:     slices.Clone(model.Statuses),
		AlertSources: slices.Clone(s.alertSources),
	}
}

// ListIncidents - newest first. With month and year set only incidents inside
// that calendar month are returned; with neither set, all incidents.
func (s *IncidentService) ListIncidents(ctx context.Context, filter model.IncidentFilter) ([]model.Incident, error) {
	window, err := MonthWindow(filter, s.loc)
	if err != nil {
		return nil, err
	}

	incidents, err := s.repo.ListIncidents(ctx, window)
	if err != nil {
		return nil, storageErr("list incidents", err)
	}
	if incidents == nil {
		incidents = []model.Incident{}
	}
	for i := range incidents {
		s.localize(&incidents[i])
	}
	return incidents, nil
}

func (s *IncidentService) GetIncident(ctx context.Context, id string) (*model.Incident, error) {
	inc, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get incident", err)
	}
	s.localize(inc)
	return inc, nil
}

// SaveIncident - create when req.ID is empty, otherwise update the existing
// incident with that id.
func (s *IncidentService) SaveIncident(ctx context.Context, req model.IncidentRequest) (*model.Incident, error) {
	inc, err := s.incidentFromRequest(req)
	if err != nil {
		return nil, err
	}

	event := model.EventIncidentUpdated
	var saved *model.Incident
	if inc.ID == "" {
		inc.ID = uuid.NewString()
		event = model.EventIncidentCreated
		saved, err = s.repo.CreateIncident(ctx, inc)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return nil, conflictErr("incident id collision, retry the request")
			}
			return nil, storageErr("create incident", err)
		}
	} else {
		saved, err = s.repo.UpdateIncident(ctx, inc)
		if err != nil {
			if db.IsNoRows(err) {
				return nil, ErrNotFound
			}
			return nil, storageErr("update incident", err)
		}
	}

	s.localize(saved)
	s.logger.Info("incident saved",
		zap.String("incident_id", saved.ID),
		zap.String("event", event),
		zap.String("status", saved.Status),
	)
	if s.notifier != nil {
		s.notifier.Notify(ctx, event, *saved)
	}
	return saved, nil
}

// DeleteIncident - removing an absent id is not an error and notifies no one.
func (s *IncidentService) DeleteIncident(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationErr("incident id is required")
	}

	existing, err := s.repo.GetIncident(ctx, id)
	if err != nil && !db.IsNoRows(err) {
		return storageErr("get incident", err)
	}
	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		return storageErr("delete incident", err)
	}
	if existing == nil {
		return nil
	}

	s.localize(existing)
	s.logger.Info("incident deleted", zap.String("incident_id", id))
	if s.notifier != nil {
		s.notifier.Notify(ctx, model.EventIncidentDeleted, *existing)
	}
	return nil
}

// localize - drivers hand back UTC or server-local times; callers see the
// report zone.
func (s *IncidentService) localize(inc *model.Incident) {
	if inc != nil {
		inc.IncidentTime = inc.IncidentTime.In(s.loc)
	}
}

func (s *IncidentService) incidentFromRequest(req model.IncidentRequest) (model.Incident, error) {
	if strings.TrimSpace(req.Device) == "" {
		return model.Incident{}, validationErr("device is required")
	}

	incidentTime, err := ParseIncidentTime(req.IncidentTime, s.loc)
	if err != nil {
		return model.Incident{}, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.StatusOpen
	}
	if !slices.Contains(model.Statuses, status) {
		return model.Incident{}, validationErr("unknown status %q", status)
	}

	alertSource := strings.TrimSpace(req.AlertSource)
	if alertSource != "" && !slices.Contains(s.alertSources, alertSource) {
		return model.Incident{}, validationErr("unknown alert source %q", alertSource)
	}

	return model.Incident{
		ID:           strings.TrimSpace(req.ID),
		IncidentTime: incidentTime,
		Device:       req.Device,
		IP:           req.IP,
		AlertSource:  alertSource,
		Status:       status,
		Reason:       req.Reason,
		Resolution:   req.Resolution,
		SerialNumber: req.SerialNumber,
	}, nil
}

// ParseIncidentTime - RFC 3339 or a zone-less local time read in loc
func ParseIncidentTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, validationErr("incidentTime is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range incidentTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, validationErr("invalid incidentTime %q", raw)
}

// MonthWindow - half-open [first of month, first of next month) in loc.
// Month is 0-indexed. A nil window means no filter.
func MonthWindow(filter model.IncidentFilter, loc *time.Location) (*model.TimeRange, error) {
	switch {
	case filter.Month == nil && filter.Year == nil:
		return nil, nil
	case filter.Month == nil || filter.Year == nil:
		return nil, validationErr("month and year must be given together")
	}

	month, year := *filter.Month, *filter.Year
	if month < 0 || month > 11 {
		return nil, validationErr("month must be between 0 and 11")
	}
	if year < 1 || year > 9999 {
		return nil, validationErr("year must be between 1 and 9999")
	}

	from := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, loc)
	return &model.TimeRange{From: from, To: from.AddDate(0, 1, 0)}, nil
}
