// Package memory provides an in-memory resource store for development,
// dry runs and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nepaliabroad/resources/internal/resource"
)

// Store implements resource.Store backed by a map.
type Store struct {
	mu      sync.RWMutex
	records map[string]resource.Record
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]resource.Record)}
}

// ListAll returns records sorted by id, optionally filtered by category.
func (s *Store) ListAll(_ context.Context, category resource.Category) ([]resource.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]resource.Record, 0, len(s.records))
	for _, rec := range s.records {
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Upsert inserts or updates a record. Without an id the title is the
// de-duplication key; inserts are assigned a fresh UUID.
func (s *Store) Upsert(_ context.Context, rec resource.Record) (resource.Record, error) {
	if rec.Title == "" {
		return resource.Record{}, fmt.Errorf("record title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		for id, existing := range s.records {
			if existing.Title == rec.Title {
				rec.ID = id
				break
			}
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("record %q not found", id)
	}
	delete(s.records, id)
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
