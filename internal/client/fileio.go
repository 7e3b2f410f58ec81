// Package client provides the upstream HTTP client for file.io.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"upload-relay/internal/config"
	"upload-relay/internal/metrics"
	"upload-relay/internal/model"
)

// FileIOClient sends uploads to file.io.
type FileIOClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewFileIOClient creates a FileIOClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewFileIOClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *FileIOClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &FileIOClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "fileio_client"),
		metrics: m,
	}
}

// do executes an HTTP request against file.io and returns the raw response.
// The caller is responsible for closing the response body.
func (c *FileIOClient) do(req *http.Request) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"content_length", req.ContentLength,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via UpstreamResponse
	duration := time.Since(start).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.Observe(duration)
			c.metrics.UpstreamResponses.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}, nil
}

// Post streams body to url as a POST and returns the response.
// contentLength > 0 is sent as Content-Length; anything else streams the body
// with chunked encoding. The provided context controls the lifetime of the
// upstream request, so a disconnecting client cancels the upload.
func (c *FileIOClient) Post(ctx context.Context, url string, header http.Header, body io.Reader, contentLength int64) (*model.UpstreamResponse, error) {
	if body != nil && body != http.NoBody && c.metrics != nil {
		body = &countingReader{r: body, m: c.metrics}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header
	if contentLength > 0 {
		req.ContentLength = contentLength
	}

	return c.do(req)
}

// countingReader reports bytes read from the inbound body to the upstream byte counter.
type countingReader struct {
	r io.Reader
	m *metrics.Metrics
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.m.UpstreamBytes.Add(float64(n))
	}
	return n, err
}
