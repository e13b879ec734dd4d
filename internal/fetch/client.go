// Package fetch implements the ethical-fetch discipline shared by the
// scraper and the validator: rate limiting, robots.txt compliance and
// bounded retry with exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/metrics"
)

// Fetch failure taxonomy. A 4xx is permanent and never retried; transient
// failures (5xx and transport errors) are retried until the budget runs out.
var (
	ErrClientError      = errors.New("client error response")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Result is a terminal 2xx/3xx response.
type Result struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Waiter gates each attempt (see ratelimit.Limiter).
type Waiter interface {
	Wait(ctx context.Context) error
}

// ClientConfig controls Client behavior.
type ClientConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	MaxBodyBytes int64
}

// Client performs rate-limited, retried HTTP fetches.
type Client struct {
	httpClient *http.Client
	limiter    Waiter
	userAgent  string
	maxRetries int
	maxBody    int64
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// NewClient constructs a Client. limiter may not be nil; every attempt,
// including retries, waits on it first.
func NewClient(cfg ClientConfig, limiter Waiter, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 * 1024 * 1024
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		maxBody:    maxBody,
		sleep:      sleepWithContext,
		logger:     logger,
	}
}

// Fetch issues the request and applies the retry policy: 2xx/3xx are
// returned, 4xx fail immediately with ErrClientError, 5xx and transport
// errors back off 2^attempt seconds and retry up to MaxRetries times
// before failing with ErrRetriesExhausted.
func (c *Client) Fetch(ctx context.Context, method, rawURL string, form url.Values) (*Result, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := c.do(ctx, method, rawURL, form)
		switch {
		case err == nil && res.StatusCode < http.StatusBadRequest:
			metrics.ObserveFetch(method, "success")
			return res, nil
		case err == nil && res.StatusCode < http.StatusInternalServerError:
			metrics.ObserveFetch(method, "client_error")
			c.logger.Error("client error response",
				zap.String("url", rawURL),
				zap.Int("status", res.StatusCode),
			)
			return nil, fmt.Errorf("fetch %s: status %d: %w", rawURL, res.StatusCode, ErrClientError)
		case err == nil:
			lastErr = fmt.Errorf("server error %d", res.StatusCode)
		default:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
			}
			lastErr = err
		}

		if attempt >= c.maxRetries {
			metrics.ObserveFetch(method, "exhausted")
			c.logger.Error("max retries exceeded",
				zap.String("url", rawURL),
				zap.Int("attempts", attempt+1),
				zap.Error(lastErr),
			)
			return nil, fmt.Errorf("fetch %s after %d attempts: %v: %w", rawURL, attempt+1, lastErr, ErrRetriesExhausted)
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		c.logger.Warn("transient failure, retrying",
			zap.String("url", rawURL),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(lastErr),
		)
		metrics.ObserveFetchRetry()
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, form url.Values) (*Result, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Result{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff sleep: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
