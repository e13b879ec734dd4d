package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nepaliabroad/resources/internal/resource"
)

func TestStore_UpsertAssignsIDAndDeduplicatesByTitle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.Upsert(ctx, resource.Record{Title: "Study Permit", Category: resource.CategoryVisa, Country: "Canada"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// Same title, no id: updates in place rather than duplicating.
	second, err := s.Upsert(ctx, resource.Record{Title: "Study Permit", Category: resource.CategoryVisa, Country: "Canada", URL: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, s.Len())

	records, err := s.ListAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "https://example.com", records[0].URL)
}

func TestStore_UpsertRequiresTitle(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert(context.Background(), resource.Record{})
	require.Error(t, err)
}

func TestStore_ListAllFiltersByCategory(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Upsert(ctx, resource.Record{Title: "A", Category: resource.CategoryVisa, Country: "Canada"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, resource.Record{Title: "B", Category: resource.CategoryJob, Country: "Canada"})
	require.NoError(t, err)

	jobs, err := s.ListAll(ctx, resource.CategoryJob)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "B", jobs[0].Title)

	all, err := s.ListAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	rec, err := s.Upsert(ctx, resource.Record{Title: "A", Category: resource.CategoryVisa, Country: "Canada"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.ID))
	require.Error(t, s.Delete(ctx, rec.ID))
	require.Equal(t, 0, s.Len())
}
