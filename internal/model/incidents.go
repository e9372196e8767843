package model

import "time"

// Incident status labels. Any label may change to any other.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

// Statuses lists the accepted incident status labels in display order.
var Statuses = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// ============================================================================
// Incident model (one downtime event)
// ============================================================================

// Incident - a logged downtime event. Device, IP and SerialNumber are copies
// taken when the report was written, not references into the registry.
type Incident struct {
	ID           string    `json:"id"`
	IncidentTime time.Time `json:"incidentTime"`
	Device       string    `json:"device"`
	IP           string    `json:"ip"`
	AlertSource  string    `json:"alertSource"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason"`
	Resolution   string    `json:"resolution"`
	SerialNumber string    `json:"sn"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// IncidentRequest - incident create/update payload. IncidentTime is kept as
// the raw string so datetime-local values without a zone are accepted.
type IncidentRequest struct {
	ID           string `json:"id"`
	IncidentTime string `json:"incidentTime"`
	Device       string `json:"device"`
	IP           string `json:"ip"`
	AlertSource  string `json:"alertSource"`
	Status       string `json:"status"`
	Reason       string `json:"reason"`
	Resolution   string `json:"resolution"`
	SerialNumber string `json:"sn"`
}

// IncidentFilter - month is 0-indexed (January == 0)
type IncidentFilter struct {
	Month *int
	Year  *int
}

// TimeRange - half-open [From, To) window
type TimeRange struct {
	From time.Time
	To   time.Time
}

// OptionsResponse - selectable values for the incident form
type OptionsResponse struct {
	Statuses     []string `json:"statuses"`
	AlertSources []string `json:"alertSources"`
}
