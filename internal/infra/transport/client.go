// Package transport issues authenticated calls against the CRM REST API and
// folds every failure into a domain.TransportError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("transport")

// Config is the fixed configuration of a Client.
type Config struct {
	BaseURL string
	APIKey  string
	// VersionHeader is sent as the "Version" header when non-empty (v2 API).
	VersionHeader string
	Timeout       time.Duration
}

// Client wraps HTTP calls to the CRM API. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	cfg        Config
	cb         *gobreaker.CircuitBreaker
	pacer      *resilience.Pacer
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a CRM transport client.
func NewClient(
	httpClient *http.Client,
	cfg Config,
	cb *gobreaker.CircuitBreaker,
	pacer *resilience.Pacer,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		cb:         cb,
		pacer:      pacer,
		bulkhead:   bulkhead,
		metrics:    metrics,
		logger:     logger,
	}
}

// Send performs one request and returns the decoded JSON object body.
// query is appended to the URL; body, when non-nil, is sent as JSON.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body any) (map[string]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Client.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("crm.path", path),
	)

	result, err := c.cb.Execute(func() (any, error) {
		return c.do(ctx, method, path, query, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &domain.TransportError{Message: "circuit breaker open", Err: err}
		}
		c.metrics.IncrUpstreamFailure(failureReason(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return result.(map[string]json.RawMessage), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (map[string]json.RawMessage, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, contextError(err)
	}
	defer c.bulkhead.Release()

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, contextError(err)
	}

	// The deadline covers the round trip and reading the body.
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, &domain.TransportError{Message: err.Error(), Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		te := networkError(err)
		status := "error"
		if te.Timeout {
			status = "timeout"
		}
		c.metrics.RecordUpstreamRequest(method, status, time.Since(start))
		c.logger.Error("crm: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, te
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.RecordUpstreamRequest(method, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		c.logger.Error("crm: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("crm: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(raw), 512)),
		)
		return nil, &domain.TransportError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.StatusCode),
		}
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		c.logger.Warn("crm: response is not a JSON object",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &domain.TransportError{
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        err,
		}
	}

	c.logger.Debug("crm: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return decoded, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.VersionHeader != "" {
		req.Header.Set("Version", c.cfg.VersionHeader)
	}
	return req, nil
}

// errorMessage pulls a human message out of the provider error envelope:
// "message" (string or list of strings), then "error", then "msg".
func errorMessage(raw []byte, status int) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		for _, key := range []string{"message", "error", "msg"} {
			if msg := textOf(envelope[key]); msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	return ""
}

func networkError(err error) *domain.TransportError {
	te := &domain.TransportError{Message: err.Error(), Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		te.Timeout = true
	}
	return te
}

func contextError(err error) *domain.TransportError {
	return &domain.TransportError{
		Message: err.Error(),
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

func failureReason(err error) string {
	var te *domain.TransportError
	if !errors.As(err, &te) {
		return "unknown"
	}
	switch {
	case te.Timeout:
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case te.StatusCode == 0:
		return "network"
	case te.StatusCode >= 500:
		return "server"
	default:
		return "client"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
