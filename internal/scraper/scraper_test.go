package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/fetch"
	"github.com/nepaliabroad/resources/internal/resource"
	"github.com/nepaliabroad/resources/internal/storage/memory"
)

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, rawURL string, _ url.Values) (*fetch.Result, error) {
	f.calls = append(f.calls, rawURL)
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	return &fetch.Result{
		URL:        rawURL,
		StatusCode: http.StatusOK,
		Body:       []byte(f.pages[rawURL]),
	}, nil
}

type fakeRobots struct {
	denied map[string]bool
	checks []string
}

func (f *fakeRobots) Allowed(_ context.Context, targetURL, _ string) bool {
	f.checks = append(f.checks, targetURL)
	return !f.denied[targetURL]
}

type cardParser struct{}

func (cardParser) Parse(_ context.Context, src resource.Source, doc *goquery.Document) ([]resource.Record, error) {
	var out []resource.Record
	doc.Find(".card").Each(func(_ int, sel *goquery.Selection) {
		out = append(out, resource.Record{
			Title:       ExtractText(sel, ".title"),
			Institution: ExtractText(sel, ".institution"),
			URL:         ExtractHref(sel, "a"),
			Category:    resource.CategoryScholarship,
			Country:     "Canada",
		})
	})
	return out, nil
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

const samplePage = `
<html><body>
  <div class="card">
    <span class="title">Lester&nbsp;B. Pearson  Scholarship</span>
    <span class="institution">University of Toronto</span>
    <a href="https://future.utoronto.ca/pearson/">Details</a>
  </div>
  <div class="card">
    <span class="title">Vanier CGS</span>
    <span class="institution">Government of Canada</span>
    <a href="https://vanier.gc.ca/">Details</a>
  </div>
</body></html>`

func newTestScraper(fetcher *fakeFetcher, robots *fakeRobots, store resource.Store, parsers map[string]PageParser) *Scraper {
	return New(fetcher, robots, store, parsers,
		fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, zap.NewNop())
}

func TestScraper_ParsesAndUpsertsRecords(t *testing.T) {
	src := resource.Source{
		Name:      "UofT Awards",
		URL:       "https://future.utoronto.ca/finances/awards/",
		RobotsURL: "https://www.utoronto.ca/robots.txt",
	}
	fetcher := &fakeFetcher{pages: map[string]string{src.URL: samplePage}}
	robots := &fakeRobots{}
	store := memory.NewStore()

	s := newTestScraper(fetcher, robots, store, map[string]PageParser{src.Name: cardParser{}})
	stats, err := s.Run(context.Background(), []resource.Source{src})
	require.NoError(t, err)

	require.Equal(t, 1, stats.SourcesFetched)
	require.Equal(t, 2, stats.RecordsParsed)
	require.Equal(t, 2, stats.Upserted)
	require.Zero(t, stats.UpsertFailed)
	require.Equal(t, []string{src.URL}, robots.checks)

	records, err := store.ListAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.NotEmpty(t, rec.ID)
		require.Equal(t, "UofT Awards", rec.Metadata["source"])
		require.Equal(t, "2024-06-01T00:00:00Z", rec.Metadata["scraped_at"])
		require.Equal(t, "2024-06-01T00:00:00Z", rec.LastUpdated)
	}
}

func TestScraper_RobotsDenialSkipsWithoutFetching(t *testing.T) {
	src := resource.Source{
		Name:      "Closed Site",
		URL:       "https://closed.example.com/",
		RobotsURL: "https://closed.example.com/robots.txt",
	}
	fetcher := &fakeFetcher{}
	robots := &fakeRobots{denied: map[string]bool{src.URL: true}}
	store := memory.NewStore()

	s := newTestScraper(fetcher, robots, store, map[string]PageParser{src.Name: cardParser{}})
	stats, err := s.Run(context.Background(), []resource.Source{src})
	require.NoError(t, err)
	require.Equal(t, 1, stats.SourcesSkipped)
	require.Empty(t, fetcher.calls)
	require.Equal(t, 0, store.Len())
}

func TestScraper_FetchFailureIsIsolated(t *testing.T) {
	bad := resource.Source{Name: "Bad", URL: "https://bad.example.com/"}
	good := resource.Source{Name: "UofT Awards", URL: "https://good.example.com/"}
	fetcher := &fakeFetcher{
		pages: map[string]string{good.URL: samplePage},
		errs:  map[string]error{bad.URL: errors.New("fetch failed after retries")},
	}
	store := memory.NewStore()

	s := newTestScraper(fetcher, &fakeRobots{}, store, map[string]PageParser{good.Name: cardParser{}})
	stats, err := s.Run(context.Background(), []resource.Source{bad, good})
	require.NoError(t, err)
	require.Equal(t, 1, stats.SourcesFailed)
	require.Equal(t, 1, stats.SourcesFetched)
	require.Equal(t, 2, stats.Upserted)
}

func TestScraper_NoParserMeansNoRecords(t *testing.T) {
	src := resource.Source{Name: "Unparsed", URL: "https://unparsed.example.com/"}
	fetcher := &fakeFetcher{pages: map[string]string{src.URL: samplePage}}
	store := memory.NewStore()

	s := newTestScraper(fetcher, &fakeRobots{}, store, nil)
	stats, err := s.Run(context.Background(), []resource.Source{src})
	require.NoError(t, err)
	require.Equal(t, 1, stats.SourcesFetched)
	require.Zero(t, stats.RecordsParsed)
	require.Equal(t, 0, store.Len())
}

func TestScraper_NoRobotsURLSkipsCheck(t *testing.T) {
	src := resource.Source{Name: "UofT Awards", URL: "https://no-robots.example.com/"}
	fetcher := &fakeFetcher{pages: map[string]string{src.URL: samplePage}}
	robots := &fakeRobots{}

	s := newTestScraper(fetcher, robots, memory.NewStore(), map[string]PageParser{src.Name: cardParser{}})
	_, err := s.Run(context.Background(), []resource.Source{src})
	require.NoError(t, err)
	require.Empty(t, robots.checks)
	require.Equal(t, []string{src.URL}, fetcher.calls)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "Lester B. Pearson Scholarship",
		CleanText("  Lester B.   Pearson \n Scholarship "))
	require.Equal(t, "", CleanText("  \n\t "))
}
