package handler

import (
	"context"
	"net/http"

	"github.com/cctv-report/backend/internal/model"
	"github.com/gin-gonic/gin"
)

type deviceService interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
	SaveDevice(ctx context.Context, req model.DeviceRequest) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error
	MergeDefaults(ctx context.Context, candidates []model.DeviceRequest) (model.MergeResult, error)
	MergeConfiguredDefaults(ctx context.Context) (model.MergeResult, error)
	DefaultDevices() []model.Device
	Autofill(ctx context.Context, req model.AutofillRequest) model.AutofillResponse
}

// DeviceHandler - device registry endpoints
type DeviceHandler struct {
	svc deviceService
}

func NewDeviceHandler(svc deviceService) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

// ListDevices godoc
// @Summary List devices
// @Tags devices
// @Produce json
// @Success 200 {array} model.Device
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.svc.ListDevices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// SaveDevice godoc
// @Summary Create or replace a device
// @Description Upsert by id. A missing id creates a device with a generated id.
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.DeviceRequest true "Device"
// @Success 200 {object} model.Device
// @Failure 400,401,409,500 {object} model.ErrorResponse
// @Router /api/v1/devices [post]
func (h *DeviceHandler) SaveDevice(c *gin.Context) {
	var req model.DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	h.save(c, req)
}

// UpdateDevice godoc
// @Summary Replace a device
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Param request body model.DeviceRequest true "Device"
// @Success 200 {object} model.Device
// @Failure 400,401,409,500 {object} model.ErrorResponse
// @Router /api/v1/devices/{id} [put]
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req model.DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	req.ID = c.Param("id")
	h.save(c, req)
}

func (h *DeviceHandler) save(c *gin.Context, req model.DeviceRequest) {
	device, err := h.svc.SaveDevice(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// DeleteDevice godoc
// @Summary Delete a device
// @Description Deleting an unknown id succeeds.
// @Tags devices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Success 200 {object} model.StatusResponse
// @Failure 401,500 {object} model.ErrorResponse
// @Router /api/v1/devices/{id} [delete]
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if err := h.svc.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "success"})
}

// SyncDevices godoc
// @Summary Import default devices
// @Description Inserts devices whose name is not registered yet. Existing devices are never changed.
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.DeviceSyncRequest true "Candidate devices"
// @Success 200 {object} model.DeviceSyncResponse
// @Failure 400,401,409,500 {object} model.ErrorResponse
// @Router /api/v1/devices/sync [post]
func (h *DeviceHandler) SyncDevices(c *gin.Context) {
	var req model.DeviceSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := h.svc.MergeDefaults(c.Request.Context(), req.Devices)
	writeSyncResult(c, res, err)
}

// ListDefaultDevices godoc
// @Summary List the configured default devices
// @Tags devices
// @Produce json
// @Success 200 {array} model.Device
// @Router /api/v1/devices/defaults [get]
func (h *DeviceHandler) ListDefaultDevices(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.DefaultDevices())
}

// SyncConfiguredDefaults godoc
// @Summary Import the configured default devices
// @Tags devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.DeviceSyncResponse
// @Failure 401,409,500 {object} model.ErrorResponse
// @Router /api/v1/devices/sync/defaults [post]
func (h *DeviceHandler) SyncConfiguredDefaults(c *gin.Context) {
	res, err := h.svc.MergeConfiguredDefaults(c.Request.Context())
	writeSyncResult(c, res, err)
}

func writeSyncResult(c *gin.Context, res model.MergeResult, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.DeviceSyncResponse{
		Status:        "success",
		InsertedCount: res.InsertedCount,
		SkippedCount:  res.SkippedCount,
	})
}

// Autofill godoc
// @Summary Autofill an incident form from the device registry
// @Description On an exact device name match sn and ip are replaced by the registry values.
// @Tags devices
// @Accept json
// @Produce json
// @Param request body model.AutofillRequest true "Form state"
// @Success 200 {object} model.AutofillResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/devices/autofill [post]
func (h *DeviceHandler) Autofill(c *gin.Context) {
	var req model.AutofillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	c.JSON(http.StatusOK, h.svc.Autofill(c.Request.Context(), req))
}
