package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cctv-report/backend/internal/model"
	"github.com/gin-gonic/gin"
)

type webhookService interface {
	ListWebhooks(ctx context.Context) ([]model.Webhook, error)
	GetWebhook(ctx context.Context, id int) (*model.Webhook, error)
	CreateWebhook(ctx context.Context, req model.WebhookRequest) (*model.Webhook, error)
	UpdateWebhook(ctx context.Context, id int, req model.WebhookRequest) (*model.Webhook, error)
	DeleteWebhook(ctx context.Context, id int) error
	SendTest(ctx context.Context, id int) error
}

// WebhookHandler - incident notification settings
type WebhookHandler struct {
	svc webhookService
}

func NewWebhookHandler(svc webhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// ListWebhooks godoc
// @Summary List incident webhooks
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Webhook
// @Failure 401,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks [get]
func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	hooks, err := h.svc.ListWebhooks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hooks)
}

// GetWebhook godoc
// @Summary Get an incident webhook
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Success 200 {object} model.Webhook
// @Failure 400,401,404,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id} [get]
func (h *WebhookHandler) GetWebhook(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	w, err := h.svc.GetWebhook(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// CreateWebhook godoc
// @Summary Create an incident webhook
// @Description events lists incident.created, incident.updated and/or incident.deleted; empty subscribes to all.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.WebhookRequest true "Webhook"
// @Success 201 {object} model.Webhook
// @Failure 400,401,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks [post]
func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	var req model.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	w, err := h.svc.CreateWebhook(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// UpdateWebhook godoc
// @Summary Replace an incident webhook
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Param request body model.WebhookRequest true "Webhook"
// @Success 200 {object} model.Webhook
// @Failure 400,401,404,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id} [put]
func (h *WebhookHandler) UpdateWebhook(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	var req model.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	w, err := h.svc.UpdateWebhook(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// DeleteWebhook godoc
// @Summary Delete an incident webhook
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Success 200 {object} model.StatusResponse
// @Failure 400,401,500 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id} [delete]
func (h *WebhookHandler) DeleteWebhook(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteWebhook(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deleted"})
}

// TestWebhook godoc
// @Summary Send a sample webhook.test event
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Webhook ID"
// @Success 200 {object} model.StatusResponse
// @Failure 400,401,404,502 {object} model.ErrorResponse
// @Router /api/v1/settings/webhooks/{id}/test [post]
func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	id, ok := webhookID(c)
	if !ok {
		return
	}
	if err := h.svc.SendTest(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "delivered"})
}

func webhookID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "invalid webhook id")
		return 0, false
	}
	return id, true
}
