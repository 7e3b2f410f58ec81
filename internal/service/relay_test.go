package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"upload-relay/internal/client"
	"upload-relay/internal/config"
	"upload-relay/internal/model"
)

func newTestService(t *testing.T, upstreamURL string) *RelayService {
	t.Helper()
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         upstreamURL,
			Expires:         "1d",
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fc := client.NewFileIOClient(cfg, logger, nil)
	return NewRelayServiceForTest(fc, cfg, logger)
}

func uploadRequest(contentType, body string) *model.UploadRequest {
	return &model.UploadRequest{
		Ctx:           context.Background(),
		ContentType:   contentType,
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(strings.NewReader(body)),
	}
}

func TestBuildHeader(t *testing.T) {
	s := &RelayService{}

	tests := []struct {
		name        string
		contentType string
		want        string
	}{
		{"forwards multipart with boundary", "multipart/form-data; boundary=X", "multipart/form-data; boundary=X"},
		{"forwards octet-stream", "application/octet-stream", "application/octet-stream"},
		{"defaults when absent", "", DefaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := s.buildHeader(tt.contentType)
			if got := h.Get("Content-Type"); got != tt.want {
				t.Errorf("Content-Type = %q, want %q", got, tt.want)
			}
			if got := h.Get("User-Agent"); got != userAgent {
				t.Errorf("User-Agent = %q, want %q", got, userAgent)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"success":true,"link":"https://file.io/abc123"}`, false},
		{"array", `[1,2,3]`, false},
		{"trailing newline", "{\"ok\":true}\n", false},
		{"html error page", "<html>502 Bad Gateway</html>", true},
		{"empty body", "", true},
		{"truncated", `{"link":"https://file.io/`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePayload(strings.NewReader(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodePayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("error = %v, want ErrInvalidPayload", err)
			}
		})
	}
}

func TestUpload_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.URL.Query().Get("expires"); got != "1d" {
			t.Errorf("expires = %q, want %q", got, "1d")
		}
		if got := r.Header.Get("Content-Type"); got != "multipart/form-data; boundary=X" {
			t.Errorf("Content-Type = %q, want forwarded value", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "\x00\x01binary\xff" {
			t.Errorf("body = %q, want verbatim inbound body", string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"link":"https://file.io/abc123"}`))
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)

	res, err := svc.Upload(uploadRequest("multipart/form-data; boundary=X", "\x00\x01binary\xff"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var payload map[string]any
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["link"] != "https://file.io/abc123" {
		t.Errorf("payload.link = %v, want %q", payload["link"], "https://file.io/abc123")
	}
}

func TestUpload_DefaultContentType(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != DefaultContentType {
			t.Errorf("Content-Type = %q, want %q", got, DefaultContentType)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)
	if _, err := svc.Upload(uploadRequest("", "data")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestUpload_MirrorsUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"status":429,"message":"rate limited"}`))
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)

	res, err := svc.Upload(uploadRequest("text/plain", "x"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, http.StatusTooManyRequests)
	}
}

func TestUpload_NonJSONResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)

	_, err := svc.Upload(uploadRequest("text/plain", "x"))
	if err == nil {
		t.Fatal("Upload() expected error for non-JSON response, got nil")
	}
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("error = %v, want ErrInvalidPayload", err)
	}
}

func TestUpload_UpstreamUnreachable(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.Upload(uploadRequest("text/plain", "x"))
	if err == nil {
		t.Fatal("Upload() expected error for unreachable upstream, got nil")
	}
	if !strings.Contains(err.Error(), "forward to upstream") {
		t.Errorf("error = %q, want wrapped %q", err, "forward to upstream")
	}
}

func TestUpload_OneUpstreamCallPerUpload(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)
	for i := 0; i < 3; i++ {
		if _, err := svc.Upload(uploadRequest("text/plain", "x")); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestUpload_EmptyBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			t.Errorf("ContentLength = %d, want 0", r.ContentLength)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"no file"}`))
	}))
	defer upstream.Close()

	svc := newTestService(t, upstream.URL)

	res, err := svc.Upload(&model.UploadRequest{
		Ctx:  context.Background(),
		Body: http.NoBody,
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestNewRelayService_AllowlistRejectsUnknownHost(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: "https://evil.example", Expires: "1d"},
	}
	_, err := NewRelayService(nil, cfg, logger)
	if err == nil {
		t.Fatal("NewRelayService() expected error for disallowed host, got nil")
	}
}

func TestNewRelayService_AllowlistAcceptsFileIO(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: "https://file.io", Expires: "1d"},
	}
	svc, err := NewRelayService(nil, cfg, logger)
	if err != nil {
		t.Fatalf("NewRelayService() error = %v", err)
	}
	if got, want := svc.UploadURL(), "https://file.io/?expires=1d"; got != want {
		t.Errorf("UploadURL() = %q, want %q", got, want)
	}
}
