package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// UploadBodyLimit caps POST bodies at maxBytes. A declared Content-Length
// over the cap is answered with 413 up front; a chunked body fails mid-stream
// once it crosses the cap. Other methods are skipped so the 405 reply wins.
func UploadBodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method != http.MethodPost
		},
		Limit: fmt.Sprintf("%dB", maxBytes),
	})
}
