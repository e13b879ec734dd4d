package validate

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nepaliabroad/resources/internal/metrics"
	"github.com/nepaliabroad/resources/internal/resource"
)

// ProbeResult classifies one URL's liveness probe.
type ProbeResult struct {
	Live       bool
	StatusCode int
}

// LinkCheckerConfig controls probe behavior.
type LinkCheckerConfig struct {
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
	// BrokenStatusCodes is the set of status codes classified as broken.
	BrokenStatusCodes []int
}

// LinkChecker runs bounded-concurrency liveness probes against record
// URLs. Each probe is a single best-effort HEAD request, deliberately
// outside the FetchClient retry policy: a liveness check answers "is it
// up right now", not "can it eventually be fetched".
type LinkChecker struct {
	client      *http.Client
	userAgent   string
	broken      map[int]struct{}
	concurrency int
	logger      *zap.Logger
}

// NewLinkChecker constructs a LinkChecker.
func NewLinkChecker(cfg LinkCheckerConfig, logger *zap.Logger) *LinkChecker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	broken := make(map[int]struct{}, len(cfg.BrokenStatusCodes))
	for _, code := range cfg.BrokenStatusCodes {
		broken[code] = struct{}{}
	}
	return &LinkChecker{
		client:      &http.Client{Timeout: timeout},
		userAgent:   cfg.UserAgent,
		broken:      broken,
		concurrency: concurrency,
		logger:      logger,
	}
}

// CheckAll probes every URL-bearing record and returns results keyed by
// record id. Records without a URL are skipped entirely. A failing probe
// never aborts the batch; completion order carries no meaning.
func (c *LinkChecker) CheckAll(ctx context.Context, records []resource.Record) map[string]ProbeResult {
	results := make(map[string]ProbeResult, len(records))
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(c.concurrency)
	for _, rec := range records {
		if rec.URL == "" {
			continue
		}
		rec := rec
		g.Go(func() error {
			res := c.probe(ctx, rec.URL)
			metrics.ObserveLinkProbe(res.Live, res.StatusCode)
			mu.Lock()
			results[rec.ID] = res
			mu.Unlock()
			return nil
		})
	}
	// Probes report failures as results, never as errors.
	_ = g.Wait()
	return results
}

func (c *LinkChecker) probe(ctx context.Context, rawURL string) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		c.logger.Warn("probe request build failed", zap.String("url", rawURL), zap.Error(err))
		return ProbeResult{Live: false, StatusCode: 0}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("probe failed", zap.String("url", rawURL), zap.Error(err))
		return ProbeResult{Live: false, StatusCode: 0}
	}
	if cerr := resp.Body.Close(); cerr != nil {
		c.logger.Debug("close probe body", zap.Error(cerr))
	}

	_, isBroken := c.broken[resp.StatusCode]
	return ProbeResult{Live: !isBroken, StatusCode: resp.StatusCode}
}
