package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"upload-relay/internal/model"
	"upload-relay/internal/service"
)

// ErrMethodNotAllowed is reported for any method other than POST.
var ErrMethodNotAllowed = errors.New("method not allowed")

// UploadHandler relays uploaded files to file.io.
type UploadHandler struct {
	service *service.RelayService
	logger  *slog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(svc *service.RelayService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		service: svc,
		logger:  logger.With("component", "upload_handler"),
	}
}

// Handle streams a POSTed body to file.io and replies with file.io's status
// and JSON payload.
func (h *UploadHandler) Handle(c echo.Context) error {
	req := c.Request()
	if req.Method != http.MethodPost {
		return h.mapError(c, ErrMethodNotAllowed)
	}

	res, err := h.service.Upload(&model.UploadRequest{
		Ctx:           req.Context(),
		ContentType:   req.Header.Get(echo.HeaderContentType),
		ContentLength: req.ContentLength,
		Body:          req.Body,
	})

	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	if err != nil {
		return h.mapError(c, err)
	}

	// The payload is written as received so the caller sees file.io's exact document.
	return c.JSONBlob(res.StatusCode, res.Payload)
}

func (h *UploadHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, ErrMethodNotAllowed) {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
		return c.JSON(http.StatusMethodNotAllowed, model.ErrorBody{
			Error: "Method not allowed",
		})
	}

	h.logger.Error("upload failed",
		"err", err,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)

	return c.JSON(http.StatusInternalServerError, model.ErrorBody{
		Error:   "Upload failed",
		Details: err.Error(),
	})
}
