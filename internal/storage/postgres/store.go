// Package postgres provides the Postgres-backed resource store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nepaliabroad/resources/internal/resource"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Expected table schema:
//
//	CREATE TABLE resources (
//		id UUID PRIMARY KEY,
//		title TEXT NOT NULL,
//		category TEXT NOT NULL DEFAULT '',
//		country TEXT NOT NULL DEFAULT '',
//		url TEXT NOT NULL DEFAULT '',
//		institution TEXT NOT NULL DEFAULT '',
//		deadline TEXT NOT NULL DEFAULT '',
//		last_updated TEXT NOT NULL DEFAULT '',
//		metadata JSONB,
//		created_at TIMESTAMPTZ DEFAULT NOW()
//	);

// StoreConfig controls the Postgres connection pool.
type StoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements resource.Store on top of a pgx pool.
type Store struct {
	pool  dbPool
	table string
}

// NewStore connects a pool using the provided config.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "resources"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for testing).
func NewStoreWithPool(pool dbPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "resources"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// ListAll returns records ordered by id, optionally filtered by category.
func (s *Store) ListAll(ctx context.Context, category resource.Category) ([]resource.Record, error) {
	query := fmt.Sprintf(`
SELECT id, title, category, country, url, institution, deadline, last_updated, metadata
FROM %s`, s.table)
	var args []any
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, string(category))
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var out []resource.Record
	for rows.Next() {
		var rec resource.Record
		var metadata []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.Title,
			&rec.Category,
			&rec.Country,
			&rec.URL,
			&rec.Institution,
			&rec.Deadline,
			&rec.LastUpdated,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("scan resource row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource rows: %w", err)
	}
	return out, nil
}

// Upsert inserts or updates a record. Without an id the title is the
// de-duplication key; inserts are assigned a fresh UUID.
func (s *Store) Upsert(ctx context.Context, rec resource.Record) (resource.Record, error) {
	if rec.Title == "" {
		return resource.Record{}, fmt.Errorf("record title is required")
	}

	if rec.ID == "" {
		query := fmt.Sprintf("SELECT id FROM %s WHERE title = $1", s.table)
		err := s.pool.QueryRow(ctx, query, rec.Title).Scan(&rec.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return resource.Record{}, fmt.Errorf("lookup by title: %w", err)
		}
	}

	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return resource.Record{}, fmt.Errorf("marshal metadata: %w", err)
	}

	if rec.ID != "" {
		query := fmt.Sprintf(`
UPDATE %s
SET title = $2, category = $3, country = $4, url = $5, institution = $6,
	deadline = $7, last_updated = $8, metadata = $9
WHERE id = $1`, s.table)
		tag, err := s.pool.Exec(ctx, query,
			rec.ID, rec.Title, string(rec.Category), rec.Country, rec.URL,
			rec.Institution, rec.Deadline, rec.LastUpdated, metadata,
		)
		if err != nil {
			return resource.Record{}, fmt.Errorf("update resource: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return rec, nil
		}
		// A caller-supplied id with no matching row falls through to insert.
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, title, category, country, url, institution, deadline, last_updated, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)
	if _, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Title, string(rec.Category), rec.Country, rec.URL,
		rec.Institution, rec.Deadline, rec.LastUpdated, metadata,
	); err != nil {
		return resource.Record{}, fmt.Errorf("insert resource: %w", err)
	}
	return rec, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %q not found", id)
	}
	return nil
}
