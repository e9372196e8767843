// Package template provides webhook body template rendering.
//
// Supported variables:
//
//	{{event}}
//	{{incident.id}}, {{incident.incident_time}}, {{incident.device}},
//	{{incident.ip}}, {{incident.sn}}, {{incident.alert_source}},
//	{{incident.status}}, {{incident.reason}}, {{incident.resolution}}
//
// Values are JSON-string escaped (without the surrounding quotes) so they can
// be placed inside string literals of a JSON body.
package template

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cctv-report/backend/internal/model"
)

// IncidentData - incident fields available to templates
type IncidentData struct {
	ID           string
	IncidentTime time.Time
	Device       string
	IP           string
	SerialNumber string
	AlertSource  string
	Status       string
	Reason       string
	Resolution   string
}

// IncidentDataFromModel - builds IncidentData from a stored incident
func IncidentDataFromModel(inc model.Incident) IncidentData {
	return IncidentData{
		ID:           inc.ID,
		IncidentTime: inc.IncidentTime,
		Device:       inc.Device,
		IP:           inc.IP,
		SerialNumber: inc.SerialNumber,
		AlertSource:  inc.AlertSource,
		Status:       inc.Status,
		Reason:       inc.Reason,
		Resolution:   inc.Resolution,
	}
}

// RenderBody - replaces template variables with incident values.
//
// A nil incident renders every incident variable as an empty string.
func RenderBody(body, event string, incident *IncidentData) string {
	pairs := make([]string, 0, 20)
	pairs = append(pairs, "{{event}}", escape(event))

	if incident != nil {
		incidentTime := ""
		if !incident.IncidentTime.IsZero() {
			incidentTime = incident.IncidentTime.Format(time.RFC3339)
		}
		pairs = append(pairs,
			"{{incident.id}}", escape(incident.ID),
			"{{incident.incident_time}}", incidentTime,
			"{{incident.device}}", escape(incident.Device),
			"{{incident.ip}}", escape(incident.IP),
			"{{incident.sn}}", escape(incident.SerialNumber),
			"{{incident.alert_source}}", escape(incident.AlertSource),
			"{{incident.status}}", escape(incident.Status),
			"{{incident.reason}}", escape(incident.Reason),
			"{{incident.resolution}}", escape(incident.Resolution),
		)
	} else {
		for _, key := range []string{
			"{{incident.id}}", "{{incident.incident_time}}", "{{incident.device}}",
			"{{incident.ip}}", "{{incident.sn}}", "{{incident.alert_source}}",
			"{{incident.status}}", "{{incident.reason}}", "{{incident.resolution}}",
		} {
			pairs = append(pairs, key, "")
		}
	}

	return strings.NewReplacer(pairs...).Replace(body)
}

func escape(s string) string {
	quoted, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(quoted[1 : len(quoted)-1])
}
