// Package client calls the resume pipeline backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/logger"
	"github.com/jonathan/resume-assistant/internal/schemas"
	"github.com/jonathan/resume-assistant/internal/types"
)

// Paths appended to the base URL.
const (
	RunPath    = "/run"
	HealthPath = "/health"
)

// maxErrorBody caps how much of a failed response is read into the message.
const maxErrorBody = 1 << 20

// logBodyLimit caps the error body copied into logs, in runes.
const logBodyLimit = 500

// RequestIDHeader carries the submission id to the backend.
const RequestIDHeader = "X-Request-ID"

// Error is returned for every failed backend call. StatusCode is zero when
// the request never produced an HTTP response.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Message, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.URL, e.Cause)
	default:
		return fmt.Sprintf("%s %s: request failed", e.Method, e.URL)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message returns the human-readable message carried by a backend error, or
// "" when err carries none (for example a refused connection).
func Message(err error) string {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return ""
}

// StatusMessage is the message used when a failed response has no body.
func StatusMessage(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a client. The base URL's trailing slash is stripped.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: config.NormalizeBaseURL(opts.BaseURL),
		http:    httpClient,
		log:     log,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RunPipeline posts req to the backend and returns the decoded response.
// The request must already be materialized; a payload with unset toggles is
// rejected before anything is sent.
func (c *Client) RunPipeline(ctx context.Context, req types.RunRequest) (*types.PipelineResponse, error) {
	url := c.baseURL + RunPath

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run request: %w", err)
	}
	if err := schemas.ValidateRunRequest(body); err != nil {
		return nil, fmt.Errorf("refusing to send run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Method: http.MethodPost, URL: url, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	requestID := requestIDFrom(ctx)
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("backend unreachable", zap.String("url", url), zap.String("request_id", requestID), zap.Error(err))
		return nil, &Error{Method: http.MethodPost, URL: url, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("backend responded",
		zap.String("url", url),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !ok(resp.StatusCode) {
		text, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := string(text)
		c.log.Warn("backend call failed",
			zap.String("url", url),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.TruncateForLog(message, logBodyLimit)),
		)
		if message == "" {
			message = StatusMessage(resp.StatusCode)
		}
		return nil, &Error{Method: http.MethodPost, URL: url, StatusCode: resp.StatusCode, Message: message, Cause: readErr}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: http.MethodPost, URL: url, StatusCode: resp.StatusCode, Cause: err}
	}
	if err := schemas.ValidateResponse(data); err != nil {
		return nil, malformed(url, resp.StatusCode, err)
	}

	var out types.PipelineResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, malformed(url, resp.StatusCode, err)
	}
	return &out, nil
}

// Health calls the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	url := c.baseURL + HealthPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Method: http.MethodGet, URL: url, Message: "failed to create request", Cause: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: http.MethodGet, URL: url, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if !ok(resp.StatusCode) {
		return &Error{Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode, Message: StatusMessage(resp.StatusCode)}
	}
	return nil
}

func ok(status int) bool {
	return status >= 200 && status <= 299
}

func malformed(url string, status int, cause error) *Error {
	detail := cause.Error()
	var validationErr *schemas.ValidationError
	if errors.As(cause, &validationErr) {
		detail = validationErr.Summary()
	}
	return &Error{
		Method:     http.MethodPost,
		URL:        url,
		StatusCode: status,
		Message:    "Malformed response from backend: " + detail,
		Cause:      cause,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request id that RunPipeline forwards to the backend.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
