package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cctv-report/backend/internal/model"
	"github.com/cctv-report/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestWebhookServiceCRUD(t *testing.T) {
	svc := NewWebhookService(testutil.NewStore(t), nil)
	ctx := context.Background()

	for _, bad := range []model.WebhookRequest{
		{URL: "not a url"},
		{URL: "http://hooks.local", Method: "DELETE"},
		{URL: "http://hooks.local", Events: []string{"device.created"}},
	} {
		_, err := svc.CreateWebhook(ctx, bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}

	created, err := svc.CreateWebhook(ctx, model.WebhookRequest{
		URL:     "http://hooks.local/a",
		Headers: []model.WebhookHeader{{Key: " ", Value: "dropped"}, {Key: "X-Token", Value: "abc"}},
		Events:  []string{model.EventIncidentCreated, model.EventIncidentCreated},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, created.Method)
	assert.Equal(t, "hooks.local", created.Name, "name defaults to the host")
	assert.Equal(t, []model.WebhookHeader{{Key: "X-Token", Value: "abc"}}, created.Headers)
	assert.Equal(t, []string{model.EventIncidentCreated}, created.Events)
	assert.True(t, created.Enabled)

	updated, err := svc.UpdateWebhook(ctx, created.ID, model.WebhookRequest{
		Name:    "pager",
		URL:     "https://hooks.local/b",
		Method:  "put",
		Enabled: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, updated.Method)
	assert.Equal(t, "pager", updated.Name)
	assert.Empty(t, updated.Events)
	assert.False(t, updated.Enabled)

	_, err = svc.UpdateWebhook(ctx, created.ID+1, model.WebhookRequest{URL: "http://x.local"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteWebhook(ctx, created.ID))
	_, err = svc.GetWebhook(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebhookWants(t *testing.T) {
	all := model.Webhook{Enabled: true}
	onlyDeleted := model.Webhook{Enabled: true, Events: []string{model.EventIncidentDeleted}}
	disabled := model.Webhook{Events: []string{model.EventIncidentCreated}}

	assert.True(t, all.Wants(model.EventIncidentUpdated))
	assert.True(t, onlyDeleted.Wants(model.EventIncidentDeleted))
	assert.False(t, onlyDeleted.Wants(model.EventIncidentCreated))
	assert.False(t, disabled.Wants(model.EventIncidentCreated))
}

type staticWebhooks []model.Webhook

func (s staticWebhooks) ListWebhooks(context.Context) ([]model.Webhook, error) {
	return s, nil
}

func TestWebhookDeliveryNotify(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
		types  []string
		tokens []string
	)
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(raw))
		types = append(types, r.Header.Get("Content-Type"))
		tokens = append(tokens, r.Header.Get("X-Token"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ok.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	hooks := staticWebhooks{
		{ID: 1, URL: failing.URL, Method: http.MethodPost, Body: "{}", Enabled: true},
		{ID: 2, URL: "", Enabled: true},
		{ID: 3, URL: ok.URL, Body: "disabled", Enabled: false},
		{ID: 4, URL: ok.URL, Body: "deletes only", Events: []string{model.EventIncidentDeleted}, Enabled: true},
		{
			ID:      5,
			URL:     ok.URL,
			Method:  http.MethodPost,
			Headers: []model.WebhookHeader{{Key: "X-Token", Value: "abc"}},
			Body:    `{"event":"{{event}}","device":"{{incident.device}}","status":"{{incident.status}}"}`,
			Events:  []string{model.EventIncidentCreated},
			Enabled: true,
		},
	}
	svc := NewWebhookDeliveryService(hooks, nil, testutil.Logger(t), nil)

	svc.Notify(context.Background(), model.EventIncidentCreated, model.Incident{
		ID:           "inc-1",
		IncidentTime: time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC),
		Device:       "Camera-Lobby-01",
		Status:       model.StatusOpen,
	})

	mu.Lock()
	require.Len(t, bodies, 1, "failed target does not stop the rest; unsubscribed ones are skipped")
	assert.JSONEq(t, `{"event":"incident.created","device":"Camera-Lobby-01","status":"Open"}`, bodies[0])
	assert.Equal(t, "application/json", types[0])
	assert.Equal(t, "abc", tokens[0])
	bodies = nil
	mu.Unlock()

	svc.Notify(context.Background(), model.EventIncidentDeleted, model.Incident{ID: "inc-1"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"deletes only"}, bodies)
}

func TestWebhookSendTest(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		got = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	store := testutil.NewStore(t)
	svc := NewWebhookService(store, NewWebhookDeliveryService(store, nil, testutil.Logger(t), nil))
	ctx := context.Background()

	disabled, err := svc.CreateWebhook(ctx, model.WebhookRequest{
		URL:     srv.URL,
		Body:    `{{event}} {{incident.device}}`,
		Events:  []string{model.EventIncidentDeleted},
		Enabled: boolPtr(false),
	})
	require.NoError(t, err)
	require.NoError(t, svc.SendTest(ctx, disabled.ID), "manual test ignores the enabled flag")
	assert.Equal(t, "webhook.test Test camera", got)

	broken, err := svc.CreateWebhook(ctx, model.WebhookRequest{URL: down.URL})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SendTest(ctx, broken.ID), ErrDelivery)
	assert.ErrorIs(t, svc.SendTest(ctx, broken.ID+10), ErrNotFound)
}

func TestIncidentDeleteReachesSubscribedWebhook(t *testing.T) {
	received := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		received <- string(raw)
	}))
	defer srv.Close()

	store := testutil.NewStore(t)
	ctx := context.Background()
	_, err := NewWebhookService(store, nil).CreateWebhook(ctx, model.WebhookRequest{
		URL:    srv.URL,
		Body:   `{{event}}:{{incident.device}}`,
		Events: []string{model.EventIncidentDeleted},
	})
	require.NoError(t, err)

	notifier := NewWebhookDeliveryService(store, nil, testutil.Logger(t), nil)
	incidents := NewIncidentService(store, time.UTC, nil, notifier, testutil.Logger(t))

	inc, err := incidents.SaveIncident(ctx, model.IncidentRequest{Device: "Cam-Dock", IncidentTime: "2024-03-05T14:30"})
	require.NoError(t, err)
	require.NoError(t, incidents.DeleteIncident(ctx, inc.ID))

	require.Len(t, received, 1, "the create event is not subscribed")
	assert.Equal(t, "incident.deleted:Cam-Dock", <-received)
}
