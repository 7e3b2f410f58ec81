// Package service implements the upload relay logic.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"upload-relay/internal/client"
	"upload-relay/internal/config"
	"upload-relay/internal/model"
)

// DefaultContentType is sent upstream when the inbound request carries none.
const DefaultContentType = "multipart/form-data"

// ErrInvalidPayload is returned when file.io answers with something other than a JSON document.
var ErrInvalidPayload = errors.New("upstream response is not valid JSON")

// allowedUpstreamHosts restricts which hosts the relay will forward to.
var allowedUpstreamHosts = map[string]bool{
	"file.io": true,
}

const userAgent = "upload-relay/1.0"

// RelayService forwards uploads to file.io.
type RelayService struct {
	client    *client.FileIOClient
	logger    *slog.Logger
	uploadURL string
}

// NewRelayService creates a RelayService.
func NewRelayService(c *client.FileIOClient, cfg *config.Config, logger *slog.Logger) (*RelayService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newRelayService(c, cfg, logger), nil
}

// NewRelayServiceForTest creates a RelayService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewRelayServiceForTest(c *client.FileIOClient, cfg *config.Config, logger *slog.Logger) *RelayService {
	return newRelayService(c, cfg, logger)
}

func newRelayService(c *client.FileIOClient, cfg *config.Config, logger *slog.Logger) *RelayService {
	return &RelayService{
		client:    c,
		logger:    logger.With("component", "relay_service"),
		uploadURL: cfg.Upstream.UploadURL(),
	}
}

// UploadURL returns the file.io endpoint uploads are posted to.
func (s *RelayService) UploadURL() string {
	return s.uploadURL
}

// Upload streams the request body to file.io and decodes the JSON reply.
// Exactly one upstream call is made; there is no retry.
func (s *RelayService) Upload(ur *model.UploadRequest) (*model.UploadResult, error) {
	body := io.Reader(ur.Body)
	if ur.Body == nil || ur.ContentLength == 0 {
		body = http.NoBody
	}

	s.logger.Debug("relaying upload",
		"content_type", ur.ContentType,
		"content_length", ur.ContentLength,
	)

	resp, err := s.client.Post(ur.Ctx, s.uploadURL, s.buildHeader(ur.ContentType), body, ur.ContentLength)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := decodePayload(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode upstream response (status %d): %w", resp.StatusCode, err)
	}

	s.logger.Debug("upload relayed", "status", resp.StatusCode)

	return &model.UploadResult{
		StatusCode: resp.StatusCode,
		Payload:    payload,
	}, nil
}

func (s *RelayService) buildHeader(contentType string) http.Header {
	if contentType == "" {
		contentType = DefaultContentType
	}
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", userAgent)
	return h
}

// decodePayload reads a single JSON value from r.
func decodePayload(r io.Reader) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return raw, nil
}
