// Package apiclient is a typed client for the scholarship REST API. Every
// call carries an explicit *Session; a 401 from the server clears it and
// surfaces as ErrUnauthenticated.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yigit/scholarhub/internal/app/models/dto"
)

var (
	// ErrUnauthenticated means the session is missing, expired or revoked.
	ErrUnauthenticated = errors.New("session is not authenticated")
	// ErrMalformedEnvelope means the server answered outside the canonical envelope.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
)

// APIError is a well-formed failure envelope.
type APIError struct {
	Status  int
	Code    dto.ErrorCode
	Reason  string
	Message string
	Field   string
	Details map[string]interface{}
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d %s (%s): %s", e.Status, e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Config holds client configuration.
type Config struct {
	BaseURL    string // e.g. http://localhost:8080/api/v1
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one API deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
	}
}

// envelope mirrors dto.APIResponse with the fields needed to validate shape.
type envelope struct {
	Success   *bool            `json:"success"`
	Message   string           `json:"message"`
	Data      json.RawMessage  `json:"data"`
	Error     *dto.ErrorDetail `json:"error"`
	Timestamp *time.Time       `json:"timestamp"`
}

// request describes one call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        interface{}
	rawBody     io.Reader
	contentType string
	auth        bool
}

func (c *Client) do(ctx context.Context, sess *Session, r request, out interface{}) error {
	var token string
	if r.auth {
		token = sess.AccessToken()
		if token == "" {
			return ErrUnauthenticated
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	body := r.rawBody
	contentType := r.contentType
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if r.auth {
			sess.Clear()
		}
		if apiErr := decodeFailure(resp); apiErr != nil {
			return fmt.Errorf("%w: %s", ErrUnauthenticated, apiErr.Message)
		}
		return ErrUnauthenticated
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	env, err := parseEnvelope(raw)
	if err != nil {
		return fmt.Errorf("%s %s (%d): %w", r.method, r.path, resp.StatusCode, err)
	}

	if !*env.Success {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    env.Error.Code,
			Reason:  env.Error.Reason,
			Message: env.Error.Message,
			Field:   env.Error.Field,
			Details: detailsMap(env.Error.Details),
		}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: success envelope with status %d", ErrMalformedEnvelope, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedEnvelope)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

// parseEnvelope rejects anything that is not exactly the canonical shape:
// unknown top-level fields, a missing success flag or timestamp, or a
// failure without an error object.
func parseEnvelope(raw []byte) (*envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Success == nil {
		return nil, fmt.Errorf("%w: missing success", ErrMalformedEnvelope)
	}
	if env.Timestamp == nil {
		return nil, fmt.Errorf("%w: missing timestamp", ErrMalformedEnvelope)
	}
	if !*env.Success && env.Error == nil {
		return nil, fmt.Errorf("%w: failure without error detail", ErrMalformedEnvelope)
	}
	return &env, nil
}

func decodeFailure(resp *http.Response) *APIError {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	env, err := parseEnvelope(raw)
	if err != nil || env.Error == nil {
		return nil
	}
	return &APIError{Status: resp.StatusCode, Code: env.Error.Code, Reason: env.Error.Reason, Message: env.Error.Message}
}

func detailsMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
