package upstream

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

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/config"
)

// Client talks to the recipe platform REST service. It attaches the
// caller's bearer token when one is supplied and sends requests without it
// otherwise. Failed requests are never retried; a circuit breaker guards
// the upstream instead.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// APIError is a non-2xx answer from the upstream service, carrying the
// server-provided message when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream responded %d", e.StatusCode)
}

// Rejected reports whether the upstream actively refused the request, as
// opposed to failing on its own side.
func (e *APIError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ServerMessage returns the reason string the upstream attached, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// IsUnauthorized reports whether the upstream rejected the credential
// itself. Callers route this to the session manager for a logout
// transition; the client does not do that on its own.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// NewClient builds the upstream client.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "upstream",
		// A refusal is the upstream working as intended; only transport
		// failures and server errors count against the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Rejected()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout()},
		breaker: breaker,
		log:     logger,
	}
}

// request describes one upstream call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
}

// errorEnvelope is the upstream's error body.
type errorEnvelope struct {
	Message string `json:"message"`
}

func jsonBody(v any) (io.Reader, string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

// do executes a request through the breaker and decodes the response into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("upstream request: %w", err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("read upstream response: %w", err)
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			var envelope errorEnvelope
			if json.Unmarshal(payload, &envelope) == nil {
				apiErr.Message = envelope.Message
			}
			return nil, apiErr
		}
		return payload, nil
	})
	if err != nil {
		c.log.Debug("upstream call failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return err
	}

	if out == nil {
		return nil
	}
	payload, _ := result.([]byte)
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}
