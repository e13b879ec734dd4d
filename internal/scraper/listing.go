package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nepaliabroad/resources/internal/resource"
)

// ListParser is a generic PageParser that turns the content links of a
// listing page into records of a fixed category. It carries no per-site
// selectors; sites needing structured extraction register their own
// PageParser instead.
type ListParser struct {
	Category resource.Category
	Country  string
	// MinTitleLen drops navigation chrome: anchors whose text is shorter
	// than this are ignored. Zero means the default of 15.
	MinTitleLen int
}

// Parse extracts one record per qualifying anchor in the page body.
// Relative hrefs are resolved against the source URL; fragment-only and
// javascript links are skipped.
func (p ListParser) Parse(_ context.Context, src resource.Source, doc *goquery.Document) ([]resource.Record, error) {
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, err
	}
	minLen := p.MinTitleLen
	if minLen <= 0 {
		minLen = 15
	}

	var records []resource.Record
	seen := make(map[string]struct{})
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		title := CleanText(sel.Text())
		if len(title) < minLen {
			return
		}
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}

		records = append(records, resource.Record{
			Title:    title,
			Category: p.Category,
			Country:  p.Country,
			URL:      abs,
		})
	})
	return records, nil
}
