package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractText returns the cleaned text of the first element matching the
// selector, or "" when nothing matches.
func ExtractText(sel *goquery.Selection, selector string) string {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}
	return CleanText(found.Text())
}

// ExtractHref returns the href of the first anchor matching the selector.
func ExtractHref(sel *goquery.Selection, selector string) string {
	href, _ := sel.Find(selector).First().Attr("href")
	return strings.TrimSpace(href)
}

// CleanText collapses whitespace runs and strips non-breaking spaces.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	return strings.Join(strings.Fields(text), " ")
}
