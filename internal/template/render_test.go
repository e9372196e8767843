package template

import (
	"testing"
	"time"
)

func TestRenderBody(t *testing.T) {
	inc := &IncidentData{
		ID:           "inc-1",
		IncidentTime: time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC),
		Device:       "Camera-Lobby-01",
		IP:           "10.0.0.5",
		SerialNumber: "SN001",
		AlertSource:  "System Monitor",
		Status:       "Open",
		Reason:       `lens "fogged"` + "\nline two",
	}

	tests := []struct {
		name     string
		body     string
		event    string
		incident *IncidentData
		want     string
	}{
		{
			name:     "all-fields",
			body:     `{"e":"{{event}}","d":"{{incident.device}}","t":"{{incident.incident_time}}","sn":"{{incident.sn}}"}`,
			event:    "incident.created",
			incident: inc,
			want:     `{"e":"incident.created","d":"Camera-Lobby-01","t":"2024-03-05T14:30:00Z","sn":"SN001"}`,
		},
		{
			name:     "json-escaped",
			body:     `{"r":"{{incident.reason}}"}`,
			incident: inc,
			want:     `{"r":"lens \"fogged\"\nline two"}`,
		},
		{
			name: "nil-incident",
			body: `{{incident.id}}|{{incident.device}}|{{incident.status}}`,
			want: `||`,
		},
		{
			name:     "unknown-variable-kept",
			body:     `{{incident.title}}`,
			incident: inc,
			want:     `{{incident.title}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderBody(tt.body, tt.event, tt.incident); got != tt.want {
				t.Fatalf("RenderBody() = %q, want %q", got, tt.want)
			}
		})
	}
}
