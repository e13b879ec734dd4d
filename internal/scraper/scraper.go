// Package scraper implements the ethical collection pipeline: robots.txt
// compliance, rate-limited fetching and pluggable per-site parsing.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/fetch"
	"github.com/nepaliabroad/resources/internal/metrics"
	"github.com/nepaliabroad/resources/internal/resource"
)

// Fetcher performs rate-limited, retried HTTP fetches (see fetch.Client).
type Fetcher interface {
	Fetch(ctx context.Context, method, rawURL string, form url.Values) (*fetch.Result, error)
}

// RobotsPolicy answers whether a URL may be fetched (see fetch.RobotsGate).
type RobotsPolicy interface {
	Allowed(ctx context.Context, targetURL, robotsURL string) bool
}

// PageParser extracts records from one source's fetched page. Site
// selectors live behind this seam; the pipeline never hardcodes them.
type PageParser interface {
	Parse(ctx context.Context, src resource.Source, doc *goquery.Document) ([]resource.Record, error)
}

// Stats summarizes one scraping run.
type Stats struct {
	SourcesFetched int
	SourcesSkipped int
	SourcesFailed  int
	RecordsParsed  int
	Upserted       int
	UpsertFailed   int
}

// Scraper drives the per-source collect-parse-upsert loop.
type Scraper struct {
	fetcher Fetcher
	robots  RobotsPolicy
	store   resource.Store
	parsers map[string]PageParser
	clock   resource.Clock
	logger  *zap.Logger
}

// New constructs a Scraper. parsers is keyed by source name; a source
// with no registered parser is fetched for liveness but yields no records.
func New(
	fetcher Fetcher,
	robots RobotsPolicy,
	store resource.Store,
	parsers map[string]PageParser,
	clock resource.Clock,
	logger *zap.Logger,
) *Scraper {
	if parsers == nil {
		parsers = map[string]PageParser{}
	}
	return &Scraper{
		fetcher: fetcher,
		robots:  robots,
		store:   store,
		parsers: parsers,
		clock:   clock,
		logger:  logger,
	}
}

// Run processes every source in order. A failing source is logged and
// skipped; only context cancellation stops the run early.
func (s *Scraper) Run(ctx context.Context, sources []resource.Source) (Stats, error) {
	var stats Stats
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("scrape run: %w", err)
		}
		records, skipped, err := s.scrapeSource(ctx, src)
		switch {
		case skipped:
			stats.SourcesSkipped++
			continue
		case err != nil:
			stats.SourcesFailed++
			s.logger.Error("source scrape failed", zap.String("source", src.Name), zap.Error(err))
			continue
		}
		stats.SourcesFetched++
		stats.RecordsParsed += len(records)
		s.upsertAll(ctx, src, records, &stats)
	}
	s.logger.Info("scrape run complete",
		zap.Int("fetched", stats.SourcesFetched),
		zap.Int("skipped", stats.SourcesSkipped),
		zap.Int("failed", stats.SourcesFailed),
		zap.Int("records", stats.RecordsParsed),
		zap.Int("upserted", stats.Upserted),
		zap.Int("upsert_failed", stats.UpsertFailed),
	)
	return stats, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src resource.Source) ([]resource.Record, bool, error) {
	if src.RobotsURL != "" && !s.robots.Allowed(ctx, src.URL, src.RobotsURL) {
		s.logger.Warn("skipping source disallowed by robots.txt",
			zap.String("source", src.Name),
			zap.String("url", src.URL),
		)
		return nil, true, nil
	}

	s.logger.Info("fetching source", zap.String("source", src.Name), zap.String("url", src.URL))
	res, err := s.fetcher.Fetch(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", src.URL, err)
	}

	parser, ok := s.parsers[src.Name]
	if !ok {
		s.logger.Warn("no parser registered for source", zap.String("source", src.Name))
		return nil, false, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, false, fmt.Errorf("parse html: %w", err)
	}

	records, err := parser.Parse(ctx, src, doc)
	if err != nil {
		return nil, false, fmt.Errorf("parse source %s: %w", src.Name, err)
	}
	return records, false, nil
}

func (s *Scraper) upsertAll(ctx context.Context, src resource.Source, records []resource.Record, stats *Stats) {
	now := s.clock.Now()
	for _, rec := range records {
		if !rec.Complete() {
			s.logger.Debug("storing incomplete record",
				zap.String("source", src.Name),
				zap.String("title", rec.Title),
			)
		}
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		rec.Metadata["source"] = src.Name
		rec.Metadata["scraped_at"] = now.Format(time.RFC3339)
		if rec.LastUpdated == "" {
			rec.LastUpdated = now.Format(time.RFC3339)
		}

		if _, err := s.store.Upsert(ctx, rec); err != nil {
			stats.UpsertFailed++
			metrics.ObserveUpsert("failed")
			s.logger.Error("upsert failed",
				zap.String("source", src.Name),
				zap.String("title", rec.Title),
				zap.Error(err),
			)
			continue
		}
		stats.Upserted++
		metrics.ObserveUpsert("success")
	}
}
