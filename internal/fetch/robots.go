package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/metrics"
)

const robotsMaxBytes = 1 << 20

// RobotsGate answers robots.txt permission checks for a fixed user agent.
// An unreadable policy is treated as deny: a fetch must never proceed on
// the assumption that a missing answer means yes.
type RobotsGate struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	data    *robotstxt.RobotsData
	fetched time.Time
}

// RobotsGateConfig controls gate behavior.
type RobotsGateConfig struct {
	UserAgent string
	// CacheTTL bounds how long a parsed policy is reused before it is
	// re-fetched. Non-positive disables caching.
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NewRobotsGate constructs a RobotsGate.
func NewRobotsGate(cfg RobotsGateConfig, logger *zap.Logger) *RobotsGate {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RobotsGate{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		ttl:       cfg.CacheTTL,
		logger:    logger,
		cache:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether targetURL may be fetched under the policy at
// robotsURL. Any fetch or parse failure denies access.
func (g *RobotsGate) Allowed(ctx context.Context, targetURL, robotsURL string) bool {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		g.logger.Warn("unparseable target url", zap.String("url", targetURL), zap.Error(err))
		return false
	}
	data, err := g.load(ctx, robotsURL)
	if err != nil {
		g.logger.Error("robots fetch failed; denying access",
			zap.String("robots_url", robotsURL),
			zap.Error(err),
		)
		return false
	}
	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}
	p := parsed.Path
	if p == "" {
		p = "/"
	}
	allowed := group.Test(p)
	if !allowed {
		g.logger.Warn("url disallowed by robots.txt", zap.String("url", targetURL))
		metrics.ObserveRobotsDenied()
	}
	return allowed
}

func (g *RobotsGate) load(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	if g.ttl > 0 {
		g.mu.Lock()
		entry, ok := g.cache[robotsURL]
		g.mu.Unlock()
		if ok && time.Since(entry.fetched) < g.ttl {
			return entry.data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Debug("close robots response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}

	if g.ttl > 0 {
		g.mu.Lock()
		g.cache[robotsURL] = robotsEntry{data: data, fetched: time.Now()}
		g.mu.Unlock()
	}
	return data, nil
}
