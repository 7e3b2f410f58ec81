// Package handler contains the HTTP handlers and route table.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"upload-relay/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	service *service.RelayService
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(svc *service.RelayService, v Version) *HealthHandler {
	return &HealthHandler{service: svc, version: v}
}

// Healthz returns a simple OK response for liveness checks.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns relay status information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":       "ok",
		"version":      string(h.version),
		"upstream_url": h.service.UploadURL(),
	})
}
