package model

import (
	"slices"
	"time"
)

// Incident events a webhook can subscribe to. Each is emitted after the
// write commits.
const (
	EventIncidentCreated = "incident.created"
	EventIncidentUpdated = "incident.updated"
	EventIncidentDeleted = "incident.deleted"

	// EventWebhookTest is only sent by the manual test endpoint.
	EventWebhookTest = "webhook.test"
)

// WebhookEvents - every subscribable event, in display order
var WebhookEvents = []string{
	EventIncidentCreated,
	EventIncidentUpdated,
	EventIncidentDeleted,
}

// WebhookHeader - extra request header sent with each delivery
type WebhookHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Webhook - an HTTP target notified about incident log changes.
// An empty Events list subscribes to every incident event.
type Webhook struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	Method    string          `json:"method"`
	Headers   []WebhookHeader `json:"headers"`
	Body      string          `json:"body"`
	Events    []string        `json:"events"`
	Enabled   bool            `json:"enabled"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Wants reports whether the webhook should receive event.
func (w Webhook) Wants(event string) bool {
	if !w.Enabled {
		return false
	}
	return len(w.Events) == 0 || slices.Contains(w.Events, event)
}

// WebhookRequest - create/update payload. Enabled defaults to true.
type WebhookRequest struct {
	Name    string          `json:"name"`
	URL     string          `json:"url"`
	Method  string          `json:"method"`
	Headers []WebhookHeader `json:"headers"`
	Body    string          `json:"body"`
	Events  []string        `json:"events"`
	Enabled *bool           `json:"enabled"`
}
