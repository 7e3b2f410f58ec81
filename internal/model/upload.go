// Package model defines shared types for the upload relay.
package model

import (
	"context"
	"encoding/json"
	"io"
)

// UploadRequest represents an inbound upload to be relayed to file.io.
type UploadRequest struct {
	Ctx           context.Context
	ContentType   string
	ContentLength int64 // -1 when unknown
	Body          io.ReadCloser
}

// UpstreamResponse is the raw file.io response as returned by the client.
type UpstreamResponse struct {
	StatusCode int
	Body       io.ReadCloser
}

// UploadResult is the decoded file.io reply handed back to the caller.
type UploadResult struct {
	StatusCode int
	Payload    json.RawMessage
}

// ErrorBody is the JSON shape of every error the relay itself produces.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
