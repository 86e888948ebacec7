// Package ai holds the HTTP clients for the chat completion and image generation services.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/logger"
)

// maxResponseBytes bounds how much of an upstream response is read
const maxResponseBytes = 4 << 20

// Option customizes a client
type Option func(*transport)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		t.http = c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(t *transport) {
		t.logger = l
	}
}

// WithRateLimit caps outbound calls at rps per second. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(t *transport) {
		if rps > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// transport performs one authenticated JSON POST under a deadline.
type transport struct {
	stage   Stage
	url     string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newTransport(stage Stage, url, apiKey string, timeout time.Duration, opts []Option) *transport {
	t := &transport{
		stage:   stage,
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(zap.String("stage", string(stage)))
	return t
}

type result struct {
	body []byte
	err  error
}

// post sends payload and returns the raw response body. The request runs on
// its own goroutine and the caller waits on either its result or the
// deadline, so a transport that ignores cancellation cannot hold the caller
// past the budget.
func (t *transport) post(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, t.fail(CauseInvalidRequest, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if t.limiter != nil {
		if err := t.limiter.Wait(callCtx); err != nil {
			return nil, t.deadlineFailure(ctx, err)
		}
	}

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		b, err := t.do(callCtx, body)
		done <- result{body: b, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			t.logger.Debug("upstream call completed", zap.Duration("duration", time.Since(start)))
			return r.body, nil
		}
		var gf *GenerationFailure
		if errors.As(r.err, &gf) {
			return nil, gf
		}
		if callCtx.Err() != nil {
			return nil, t.deadlineFailure(ctx, r.err)
		}
		t.logger.Warn("upstream request failed", zap.Error(r.err))
		return nil, t.fail(CauseTransport, 0, fmt.Errorf("failed to send request: %w", r.err))
	case <-callCtx.Done():
		return nil, t.deadlineFailure(ctx, callCtx.Err())
	}
}

func (t *transport) do(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, t.fail(CauseInvalidRequest, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.apiKey))

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Warn("upstream returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.Truncate(string(data), 512)))
		return nil, t.fail(CauseStatus, resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}

	return data, nil
}

// deadlineFailure distinguishes a caller cancellation from an expired budget.
func (t *transport) deadlineFailure(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return t.fail(CauseCanceled, 0, err)
	}
	t.logger.Warn("upstream call timed out", zap.Duration("timeout", t.timeout))
	return t.fail(CauseTimeout, 0, fmt.Errorf("no response within %s: %w", t.timeout, err))
}

func (t *transport) fail(cause Cause, status int, err error) *GenerationFailure {
	return &GenerationFailure{Stage: t.stage, Cause: cause, StatusCode: status, Err: err}
}
