package resource

import (
	"context"
	"time"
)

// Store persists resource records. Implementations must be safe for
// concurrent use by the scraper and the validator.
type Store interface {
	// ListAll returns every record, optionally filtered by category.
	// An empty category means no filter.
	ListAll(ctx context.Context, category Category) ([]Record, error)

	// Upsert inserts the record, or updates the existing row matched by
	// id when set, falling back to title as the de-duplication key.
	// It returns the stored record including any assigned id.
	Upsert(ctx context.Context, rec Record) (Record, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
