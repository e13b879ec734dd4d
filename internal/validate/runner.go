package validate

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/metrics"
	"github.com/nepaliabroad/resources/internal/resource"
)

// LinkProber is the batch-probe capability consumed by the Runner.
type LinkProber interface {
	CheckAll(ctx context.Context, records []resource.Record) map[string]ProbeResult
}

// Runner orchestrates record validation and link checking across the
// full record set. The run is read-only against the store.
type Runner struct {
	store     resource.Store
	prober    LinkProber
	validator RecordValidator
	clock     resource.Clock
	logger    *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(
	store resource.Store,
	prober LinkProber,
	validator RecordValidator,
	clock resource.Clock,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		store:     store,
		prober:    prober,
		validator: validator,
		clock:     clock,
		logger:    logger,
	}
}

// Run validates every record, optionally filtered by category, and always
// returns a fully populated result. The only fatal failure is being
// unable to list records at all; every per-record problem becomes a
// finding instead. Finding lists are sorted by record id so identical
// stores yield identical output.
func (r *Runner) Run(ctx context.Context, category resource.Category) (*resource.ValidationResult, error) {
	records, err := r.store.ListAll(ctx, category)
	if err != nil {
		metrics.ObserveValidationRun("error")
		return nil, fmt.Errorf("list resources: %w", err)
	}

	result := resource.NewValidationResult()
	result.TotalResources = len(records)
	r.logger.Info("validating resources",
		zap.Int("count", len(records)),
		zap.String("category", string(category)),
	)

	now := r.clock.Now()
	for _, rec := range records {
		missing := r.validator.MissingFields(rec)
		if len(missing) > 0 {
			result.MissingFields = append(result.MissingFields, resource.MissingFieldsFinding{
				ID:      rec.ID,
				Title:   rec.Title,
				Missing: missing,
			})
		}

		dateErrs, stale := r.validator.DateErrors(rec, now)
		if stale != nil {
			result.StaleData = append(result.StaleData, *stale)
		}
		if len(dateErrs) > 0 {
			result.InvalidDates = append(result.InvalidDates, resource.InvalidDate{
				ID:     rec.ID,
				Title:  rec.Title,
				Errors: dateErrs,
			})
		}

		// Passing is independent of link liveness, which is reported
		// separately below.
		if len(missing) == 0 && len(dateErrs) == 0 {
			result.Passed = append(result.Passed, rec.ID)
		}
	}

	probes := r.prober.CheckAll(ctx, records)
	for _, rec := range records {
		probe, ok := probes[rec.ID]
		if !ok || probe.Live {
			continue
		}
		r.logger.Warn("broken link",
			zap.Int("status", probe.StatusCode),
			zap.String("title", rec.Title),
			zap.String("url", rec.URL),
		)
		result.BrokenLinks = append(result.BrokenLinks, resource.BrokenLink{
			ID:         rec.ID,
			Title:      rec.Title,
			URL:        rec.URL,
			StatusCode: probe.StatusCode,
			Category:   rec.Category,
		})
	}

	sortResult(result)
	metrics.ObserveValidationRun("ok")
	return result, nil
}

func sortResult(result *resource.ValidationResult) {
	sort.Slice(result.BrokenLinks, func(i, j int) bool {
		return result.BrokenLinks[i].ID < result.BrokenLinks[j].ID
	})
	sort.Slice(result.StaleData, func(i, j int) bool {
		return result.StaleData[i].ID < result.StaleData[j].ID
	})
	sort.Slice(result.InvalidDates, func(i, j int) bool {
		return result.InvalidDates[i].ID < result.InvalidDates[j].ID
	})
	sort.Slice(result.MissingFields, func(i, j int) bool {
		return result.MissingFields[i].ID < result.MissingFields[j].ID
	})
	sort.Strings(result.Passed)
}
