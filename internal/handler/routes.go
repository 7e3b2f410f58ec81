package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// UploadPath is the route uploads are accepted on.
const UploadPath = "/api/upload"

// RegisterRoutes wires all route handlers onto the Echo instance.
// The upload route accepts every method so UploadHandler owns the 405 reply.
func RegisterRoutes(e *echo.Echo, upload *UploadHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/relay/status", health.Status)

	e.Any(UploadPath, upload.Handle)

	// e.Any only covers the standard methods; the router answers the rest
	// (LOCK, MKCOL, custom verbs) with its own 405 before Handle runs.
	fallback := e.HTTPErrorHandler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusMethodNotAllowed && c.Request().URL.Path == UploadPath {
			if !c.Response().Committed {
				_ = upload.mapError(c, ErrMethodNotAllowed)
			}
			return
		}
		fallback(err, c)
	}
}
