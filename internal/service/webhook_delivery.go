package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cctv-report/backend/internal/metrics"
	"github.com/cctv-report/backend/internal/model"
	tmpl "github.com/cctv-report/backend/internal/template"
	"go.uber.org/zap"
)

const deliveryTimeout = 10 * time.Second

// webhookLister - storage read on every notification
type webhookLister interface {
	ListWebhooks(ctx context.Context) ([]model.Webhook, error)
}

// WebhookDeliveryService - sends incident events to the subscribed webhooks
type WebhookDeliveryService struct {
	hooks      webhookLister
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewWebhookDeliveryService(hooks webhookLister, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *WebhookDeliveryService {
	if client == nil {
		client = &http.Client{Timeout: deliveryTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookDeliveryService{
		hooks:      hooks,
		httpClient: client,
		logger:     logger,
		metrics:    m,
	}
}

// Notify - sends the event to every enabled webhook subscribed to it.
//
// Delivery is best-effort: a failed target is logged and the rest are still
// attempted. The caller's write has already committed.
func (s *WebhookDeliveryService) Notify(ctx context.Context, event string, inc model.Incident) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	hooks, err := s.hooks.ListWebhooks(ctx)
	if err != nil {
		s.logger.Warn("webhooks unavailable", zap.String("event", event), zap.Error(err))
		return
	}

	for _, w := range hooks {
		if !w.Wants(event) {
			continue
		}
		log := s.logger.With(
			zap.Int("webhook_id", w.ID),
			zap.String("webhook", w.Name),
			zap.String("event", event),
			zap.String("incident_id", inc.ID),
		)
		if err := s.Deliver(ctx, w, event, inc); err != nil {
			log.Warn("webhook delivery failed", zap.Error(err))
			continue
		}
		log.Debug("webhook delivered")
	}
}

// Deliver - renders the body template for one webhook and sends it
func (s *WebhookDeliveryService) Deliver(ctx context.Context, w model.Webhook, event string, inc model.Incident) error {
	if w.URL == "" {
		return fmt.Errorf("webhook %d has no url", w.ID)
	}
	data := tmpl.IncidentDataFromModel(inc)
	err := s.sendHTTP(ctx, w, tmpl.RenderBody(w.Body, event, &data))
	s.metrics.WebhookDelivered(err == nil)
	return err
}

func (s *WebhookDeliveryService) sendHTTP(ctx context.Context, w model.Webhook, body string) error {
	method := w.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, w.URL, bytes.NewBufferString(body))
	if err != nil {
		return err
	}

	hasContentType := false
	for _, h := range w.Headers {
		if h.Key == "" {
			continue
		}
		req.Header.Set(h.Key, h.Value)
		if http.CanonicalHeaderKey(h.Key) == "Content-Type" {
			hasContentType = true
		}
	}
	if !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
