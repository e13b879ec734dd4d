// Package validate implements record quality checks and link liveness
// probing over the resource store.
package validate

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/nepaliabroad/resources/internal/resource"
)

const deadlineLayout = "2006-01-02"

// institutionMarker is the field name reported when a scholarship record
// has no institution.
const institutionMarker = "institution (required for scholarships)"

// RecordValidator applies field-completeness, date-format and staleness
// rules to a single record. Pure functions over one record, no I/O.
type RecordValidator struct {
	StaleThresholdDays int
}

// MissingFields returns the names of empty required fields in canonical
// order: title, category, country, then institution for scholarships.
func (v RecordValidator) MissingFields(rec resource.Record) []string {
	var missing []string
	if rec.Title == "" {
		missing = append(missing, "title")
	}
	if rec.Category == "" {
		missing = append(missing, "category")
	}
	if rec.Country == "" {
		missing = append(missing, "country")
	}
	if rec.Category == resource.CategoryScholarship && rec.Institution == "" {
		missing = append(missing, institutionMarker)
	}
	return missing
}

// DateErrors validates the record's date fields against now. The deadline
// must be a YYYY-MM-DD calendar date; last_updated may be any ISO-8601
// form, with or without offset. A last_updated older than the staleness
// threshold is not a date error: it is returned as a separate advisory
// finding carrying the whole-day age and the original value.
func (v RecordValidator) DateErrors(rec resource.Record, now time.Time) ([]string, *resource.StaleFinding) {
	var errs []string

	if rec.Deadline != "" {
		if _, err := time.Parse(deadlineLayout, rec.Deadline); err != nil {
			errs = append(errs, fmt.Sprintf("invalid deadline format: %s", rec.Deadline))
		}
	}

	var stale *resource.StaleFinding
	if rec.LastUpdated != "" {
		updated, err := dateparse.ParseAny(rec.LastUpdated)
		if err != nil {
			errs = append(errs, fmt.Sprintf("could not parse last_updated: %s", rec.LastUpdated))
		} else {
			// The offset is interpreted, then dropped: both sides of
			// the subtraction are instants, so the age is offset-safe.
			daysOld := int(now.UTC().Sub(updated.UTC()).Hours() / 24)
			if daysOld > v.StaleThresholdDays {
				stale = &resource.StaleFinding{
					ID:          rec.ID,
					Title:       rec.Title,
					DaysOld:     daysOld,
					LastUpdated: rec.LastUpdated,
				}
			}
		}
	}

	return errs, stale
}
