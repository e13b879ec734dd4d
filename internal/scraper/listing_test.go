package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/nepaliabroad/resources/internal/resource"
)

const listingPage = `<html><body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<main>
  <a href="/scholarships/vanier-canada-graduate-scholarships">Vanier Canada Graduate Scholarships</a>
  <a href="https://example.org/awards/lester-b-pearson">Lester B. Pearson International Scholarship</a>
  <a href="#section">Jump to section heading with a long label</a>
  <a href="javascript:void(0)">Open the application portal in a popup window</a>
  <a href="/scholarships/vanier-canada-graduate-scholarships">Vanier Canada Graduate Scholarships</a>
</main>
</body></html>`

func TestListParserExtractsContentLinks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingPage))
	require.NoError(t, err)

	p := ListParser{Category: resource.CategoryScholarship, Country: "Canada"}
	src := resource.Source{Name: "educanada", URL: "https://www.educanada.ca/scholarships"}

	records, err := p.Parse(context.Background(), src, doc)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "Vanier Canada Graduate Scholarships", records[0].Title)
	require.Equal(t, "https://www.educanada.ca/scholarships/vanier-canada-graduate-scholarships", records[0].URL)
	require.Equal(t, resource.CategoryScholarship, records[0].Category)
	require.Equal(t, "Canada", records[0].Country)

	require.Equal(t, "https://example.org/awards/lester-b-pearson", records[1].URL)
}

func TestListParserSkipsShortAnchors(t *testing.T) {
	page := `<html><body><a href="/next">Next</a><a href="/a-very-long-descriptive-title">A very long descriptive title</a></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	p := ListParser{Category: resource.CategoryJob}
	records, err := p.Parse(context.Background(), resource.Source{URL: "https://jobs.example.org/"}, doc)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "A very long descriptive title", records[0].Title)
}

func TestListParserBadSourceURL(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingPage))
	require.NoError(t, err)

	p := ListParser{Category: resource.CategoryVisa}
	_, err = p.Parse(context.Background(), resource.Source{URL: "://not-a-url"}, doc)
	require.Error(t, err)
}
