package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cctv-report/backend/internal/model"
	"github.com/cctv-report/backend/internal/report"
	"github.com/gin-gonic/gin"
)

type incidentService interface {
	ListIncidents(ctx context.Context, filter model.IncidentFilter) ([]model.Incident, error)
	GetIncident(ctx context.Context, id string) (*model.Incident, error)
	SaveIncident(ctx context.Context, req model.IncidentRequest) (*model.Incident, error)
	DeleteIncident(ctx context.Context, id string) error
	Options() model.OptionsResponse
	Location() *time.Location
}

// IncidentHandler - incident log endpoints
type IncidentHandler struct {
	svc incidentService
}

func NewIncidentHandler(svc incidentService) *IncidentHandler {
	return &IncidentHandler{svc: svc}
}

// ListIncidents godoc
// @Summary List incidents
// @Description Newest first. month (0-11) and year must be given together; without both every incident is returned.
// @Tags incidents
// @Produce json
// @Param month query int false "Month, 0 = January"
// @Param year query int false "Year"
// @Success 200 {array} model.Incident
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/incidents [get]
func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	filter, err := parseIncidentFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	incidents, err := h.svc.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, incidents)
}

// GetIncident godoc
// @Summary Get an incident
// @Tags incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} model.Incident
// @Failure 404,500 {object} model.ErrorResponse
// @Router /api/v1/incidents/{id} [get]
func (h *IncidentHandler) GetIncident(c *gin.Context) {
	inc, err := h.svc.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

// CreateIncident godoc
// @Summary Create an incident
// @Description A body carrying an id updates that incident instead.
// @Tags incidents
// @Accept json
// @Produce json
// @Param request body model.IncidentRequest true "Incident"
// @Success 201 {object} model.Incident
// @Success 200 {object} model.Incident
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/incidents [post]
func (h *IncidentHandler) CreateIncident(c *gin.Context) {
	var req model.IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	status := http.StatusCreated
	if req.ID != "" {
		status = http.StatusOK
	}
	h.save(c, req, status)
}

// UpdateIncident godoc
// @Summary Update an incident
// @Tags incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param request body model.IncidentRequest true "Incident"
// @Success 200 {object} model.Incident
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/v1/incidents/{id} [put]
func (h *IncidentHandler) UpdateIncident(c *gin.Context) {
	var req model.IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	req.ID = c.Param("id")
	h.save(c, req, http.StatusOK)
}

func (h *IncidentHandler) save(c *gin.Context, req model.IncidentRequest, status int) {
	inc, err := h.svc.SaveIncident(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, inc)
}

// DeleteIncident godoc
// @Summary Delete an incident
// @Description Deleting an unknown id succeeds.
// @Tags incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} model.StatusResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/incidents/{id} [delete]
func (h *IncidentHandler) DeleteIncident(c *gin.Context) {
	if err := h.svc.DeleteIncident(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "success"})
}

// ExportIncidents godoc
// @Summary Download incidents as CSV
// @Tags incidents
// @Produce text/csv
// @Param month query int false "Month, 0 = January"
// @Param year query int false "Year"
// @Success 200 {file} file
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/v1/incidents/export [get]
func (h *IncidentHandler) ExportIncidents(c *gin.Context) {
	filter, err := parseIncidentFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	incidents, err := h.svc.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, incidents, h.svc.Location()); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(filter)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Options godoc
// @Summary Incident form options
// @Tags incidents
// @Produce json
// @Success 200 {object} model.OptionsResponse
// @Router /api/v1/options [get]
func (h *IncidentHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Options())
}

func parseIncidentFilter(c *gin.Context) (model.IncidentFilter, error) {
	var filter model.IncidentFilter
	if raw, ok := c.GetQuery("month"); ok && raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid month %q", raw)
		}
		filter.Month = &month
	}
	if raw, ok := c.GetQuery("year"); ok && raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid year %q", raw)
		}
		filter.Year = &year
	}
	return filter, nil
}
