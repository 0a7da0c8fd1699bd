package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	v1 "auditorium/pkg/api/v1"
)

var (
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrMalformedRefresh = errors.New("refresh response carried no token pair")
)

// APIError is the single shape every failed call is normalized into.
// Status is 0 when no response was received; Payload is nil when the server
// sent no structured body.
type APIError struct {
	Message string
	Status  int
	Payload *v1.ErrorResponse
	Err     error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status == 0 {
		return e.Message
	}
	if code := e.Code(); code != "" {
		return fmt.Sprintf("%s (status %d, %s)", e.Message, e.Status, code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Code returns the server-supplied machine-readable error code, if any.
func (e *APIError) Code() string {
	if e == nil {
		return ""
	}
	return e.Payload.Code()
}

// TraceID returns the server trace id, if any.
func (e *APIError) TraceID() string {
	if e == nil || e.Payload == nil || e.Payload.TraceID == nil {
		return ""
	}
	return *e.Payload.TraceID
}

// Code extracts the API error code from err, or "".
func Code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code()
	}
	return ""
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func newAPIError(status int, payload *v1.ErrorResponse) *APIError {
	msg := payload.Text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &APIError{Message: msg, Status: status, Payload: payload}
}

func transportError(err error) *APIError {
	return &APIError{Message: err.Error(), Err: err}
}

// readErrorPayload drains and closes the body, returning the decoded error
// payload or nil when the body is not JSON or carries none of its fields.
func readErrorPayload(resp *http.Response) *v1.ErrorResponse {
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return nil
	}
	var payload v1.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if payload.Message == nil && payload.ErrorCode == nil && payload.Detail == nil && payload.TraceID == nil {
		return nil
	}
	return &payload
}
