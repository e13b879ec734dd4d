// Package report renders a ValidationResult as human-readable text.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/nepaliabroad/resources/internal/resource"
)

const rule = "============================================================"
const subRule = "------------------------------------------------------------"

// Render builds the plain-text validation report.
func Render(result *resource.ValidationResult, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nDATA VALIDATION REPORT\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total Resources: %d\n\n", result.TotalResources)

	if issues := result.IssueCount(); issues == 0 {
		b.WriteString("All validations passed.\n")
	} else {
		fmt.Fprintf(&b, "Found %d issues.\n", issues)
	}
	b.WriteString("\n")

	if len(result.BrokenLinks) > 0 {
		fmt.Fprintf(&b, "BROKEN LINKS (%d)\n%s\n", len(result.BrokenLinks), subRule)
		for _, item := range result.BrokenLinks {
			fmt.Fprintf(&b, "  [%d] %s\n    URL: %s\n    Category: %s\n",
				item.StatusCode, item.Title, item.URL, item.Category)
		}
		b.WriteString("\n")
	}

	if len(result.StaleData) > 0 {
		fmt.Fprintf(&b, "STALE DATA (%d)\n%s\n", len(result.StaleData), subRule)
		for _, item := range result.StaleData {
			fmt.Fprintf(&b, "  %s\n    Last updated: %s\n    Days old: %d\n",
				item.Title, item.LastUpdated, item.DaysOld)
		}
		b.WriteString("\n")
	}

	if len(result.InvalidDates) > 0 {
		fmt.Fprintf(&b, "INVALID DATES (%d)\n%s\n", len(result.InvalidDates), subRule)
		for _, item := range result.InvalidDates {
			fmt.Fprintf(&b, "  %s\n", item.Title)
			for _, e := range item.Errors {
				fmt.Fprintf(&b, "    - %s\n", e)
			}
		}
		b.WriteString("\n")
	}

	if len(result.MissingFields) > 0 {
		fmt.Fprintf(&b, "MISSING FIELDS (%d)\n%s\n", len(result.MissingFields), subRule)
		for _, item := range result.MissingFields {
			fmt.Fprintf(&b, "  %s\n    Missing: %s\n", item.Title, strings.Join(item.Missing, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	return b.String()
}
