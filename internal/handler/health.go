package handler

import (
	"net/http"

	"github.com/cctv-report/backend/internal/model"
	"github.com/gin-gonic/gin"
)

// Ping godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} model.PingResponse
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, model.PingResponse{Message: "pong"})
}

// Root godoc
// @Summary Service status
// @Tags health
// @Produce json
// @Success 200 {object} model.ServiceInfo
// @Router / [get]
func Root(info model.ServiceInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	}
}
