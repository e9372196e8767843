package service

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/model"
)

// webhookRepo - webhook storage
type webhookRepo interface {
	ListWebhooks(ctx context.Context) ([]model.Webhook, error)
	GetWebhook(ctx context.Context, id int) (*model.Webhook, error)
	CreateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error)
	UpdateWebhook(ctx context.Context, w model.Webhook) (*model.Webhook, error)
	DeleteWebhook(ctx context.Context, id int) error
}

// webhookSender - delivers one rendered event to one webhook
type webhookSender interface {
	Deliver(ctx context.Context, w model.Webhook, event string, inc model.Incident) error
}

// WebhookService - manages the incident webhooks. sender may be nil, which
// disables SendTest.
type WebhookService struct {
	repo   webhookRepo
	sender webhookSender
}

func NewWebhookService(repo webhookRepo, sender webhookSender) *WebhookService {
	return &WebhookService{repo: repo, sender: sender}
}

func (s *WebhookService) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	hooks, err := s.repo.ListWebhooks(ctx)
	if err != nil {
		return nil, storageErr("list webhooks", err)
	}
	if hooks == nil {
		hooks = []model.Webhook{}
	}
	return hooks, nil
}

func (s *WebhookService) GetWebhook(ctx context.Context, id int) (*model.Webhook, error) {
	w, err := s.repo.GetWebhook(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get webhook", err)
	}
	return w, nil
}

func (s *WebhookService) CreateWebhook(ctx context.Context, req model.WebhookRequest) (*model.Webhook, error) {
	w, err := webhookFromRequest(req)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.CreateWebhook(ctx, w)
	if err != nil {
		return nil, storageErr("create webhook", err)
	}
	return saved, nil
}

func (s *WebhookService) UpdateWebhook(ctx context.Context, id int, req model.WebhookRequest) (*model.Webhook, error) {
	w, err := webhookFromRequest(req)
	if err != nil {
		return nil, err
	}
	w.ID = id
	saved, err := s.repo.UpdateWebhook(ctx, w)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, storageErr("update webhook", err)
	}
	return saved, nil
}

func (s *WebhookService) DeleteWebhook(ctx context.Context, id int) error {
	if err := s.repo.DeleteWebhook(ctx, id); err != nil {
		return storageErr("delete webhook", err)
	}
	return nil
}

// SendTest - delivers a sample webhook.test event to one webhook, ignoring
// its subscription and enabled flag.
func (s *WebhookService) SendTest(ctx context.Context, id int) error {
	w, err := s.GetWebhook(ctx, id)
	if err != nil {
		return err
	}
	if s.sender == nil {
		return ErrMisconfigured
	}
	sample := model.Incident{
		ID:           "test",
		IncidentTime: time.Now().UTC().Truncate(time.Second),
		Device:       "Test camera",
		Status:       model.StatusOpen,
		Reason:       "Webhook test from the CCTV report settings page",
	}
	if err := s.sender.Deliver(ctx, *w, model.EventWebhookTest, sample); err != nil {
		return deliveryErr(err)
	}
	return nil
}

func webhookFromRequest(req model.WebhookRequest) (model.Webhook, error) {
	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return model.Webhook{}, validationErr("url must be an absolute http(s) URL")
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return model.Webhook{}, validationErr("unsupported method %q", req.Method)
	}

	events := []string{}
	for _, e := range req.Events {
		e = strings.TrimSpace(e)
		if !slices.Contains(model.WebhookEvents, e) {
			return model.Webhook{}, validationErr("unknown event %q", e)
		}
		if !slices.Contains(events, e) {
			events = append(events, e)
		}
	}

	headers := []model.WebhookHeader{}
	for _, h := range req.Headers {
		if strings.TrimSpace(h.Key) == "" {
			continue
		}
		headers = append(headers, model.WebhookHeader{Key: strings.TrimSpace(h.Key), Value: h.Value})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = target.Host
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	return model.Webhook{
		Name:    name,
		URL:     target.String(),
		Method:  method,
		Headers: headers,
		Body:    req.Body,
		Events:  events,
		Enabled: enabled,
	}, nil
}
