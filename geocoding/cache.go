// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/jcodagnone/itur/address"
	"github.com/jcodagnone/itur/spatial"
)

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		namespace  VARCHAR NOT NULL,
		kind       VARCHAR NOT NULL,
		query      VARCHAR NOT NULL,
		candidates VARCHAR NOT NULL,
		matches    INTEGER NOT NULL,
		point      STRUCT(x DOUBLE, y DOUBLE),
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (namespace, kind, query)
	);`

// OpenCache opens the DuckDB database at path and creates the cache table.
// An empty path opens an in-memory database.
func OpenCache(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening geocode cache %q: %w", path, err)
	}

	if err := InitCache(ctx, db); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return db, nil
}

// InitCache creates the cache table if it does not exist.
func InitCache(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		return fmt.Errorf("creating geocode_cache table: %w", err)
	}

	return nil
}

// CachedProvider remembers provider answers, empty ones included. Errors are
// never cached.
type CachedProvider struct {
	db        *sql.DB
	namespace string
	next      Provider
}

// NewCachedProvider caches the answers of next under namespace, which should
// identify the provider and any option that changes its answers.
func NewCachedProvider(ctx context.Context, db *sql.DB, namespace string, next Provider) (*CachedProvider, error) {
	if err := InitCache(ctx, db); err != nil {
		return nil, err
	}

	return &CachedProvider{db: db, namespace: namespace, next: next}, nil
}

// Geocode implements Provider.
func (c *CachedProvider) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	return c.cached(ctx, kindFreeText, address.Normalize(query), func() ([]Candidate, error) {
		return c.next.Geocode(ctx, query)
	})
}

// GeocodeStructured implements Provider.
func (c *CachedProvider) GeocodeStructured(ctx context.Context, q StructuredQuery) ([]Candidate, error) {
	key := fmt.Sprintf("%s|%s|%t", address.Normalize(q.Street), address.Normalize(q.City), q.Geometry)

	return c.cached(ctx, kindStructured, key, func() ([]Candidate, error) {
		return c.next.GeocodeStructured(ctx, q)
	})
}

func (c *CachedProvider) cached(ctx context.Context, kind, key string, fetch func() ([]Candidate, error)) ([]Candidate, error) {
	if candidates, ok := c.lookup(ctx, kind, key); ok {
		cacheLookups.WithLabelValues("hit").Inc()

		return candidates, nil
	}

	cacheLookups.WithLabelValues("miss").Inc()

	candidates, err := fetch()
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, kind, key, candidates); err != nil {
		log.Printf("⚠️ geocode cache: %v", err)
	}

	return candidates, nil
}

func (c *CachedProvider) lookup(ctx context.Context, kind, key string) ([]Candidate, bool) {
	var raw string

	err := c.db.QueryRowContext(ctx, `
		SELECT candidates FROM geocode_cache
		WHERE namespace = ? AND kind = ? AND query = ?`,
		c.namespace, kind, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}

	if err != nil {
		log.Printf("⚠️ geocode cache lookup for %q failed: %v", key, err)

		return nil, false
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		log.Printf("⚠️ geocode cache entry for %q is corrupt: %v", key, err)

		return nil, false
	}

	if candidates == nil {
		candidates = []Candidate{}
	}

	return candidates, true
}

func (c *CachedProvider) store(ctx context.Context, kind, key string, candidates []Candidate) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encoding candidates for %q: %w", key, err)
	}

	args := []any{c.namespace, kind, key, string(data), len(candidates)}
	point := "NULL"

	if len(candidates) > 0 {
		point = "struct_pack(x := ?::DOUBLE, y := ?::DOUBLE)"
		args = append(args, candidates[0].Point.Lng, candidates[0].Point.Lat)
	}

	args = append(args, time.Now())

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO geocode_cache (namespace, kind, query, candidates, matches, point, created_at)
		VALUES (?, ?, ?, ?, ?, `+point+`, ?)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("storing %q: %w", key, err)
	}

	return nil
}

// CacheEntry summarises one cached answer.
type CacheEntry struct {
	Namespace  string         `json:"namespace"`
	Kind       string         `json:"kind"`
	Query      string         `json:"query"`
	Candidates int            `json:"candidates"`
	Point      *spatial.Point `json:"point,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ListCache returns the cached entries, newest first. An empty namespace
// lists every namespace.
func ListCache(ctx context.Context, db *sql.DB, namespace string) ([]CacheEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT namespace, kind, query, matches, point, created_at
		FROM geocode_cache
		WHERE ?::VARCHAR = '' OR namespace = ?
		ORDER BY created_at DESC, query`,
		namespace, namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("listing geocode cache: %w", err)
	}

	defer rows.Close()

	var entries []CacheEntry

	for rows.Next() {
		var (
			e     CacheEntry
			point sql.Null[spatial.Point]
		)

		if err := rows.Scan(&e.Namespace, &e.Kind, &e.Query, &e.Candidates, &point, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning geocode cache: %w", err)
		}

		if point.Valid {
			p := point.V
			e.Point = &p
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating geocode cache: %w", err)
	}

	return entries, nil
}

// ClearCache deletes the entries of namespace, or every entry when namespace
// is empty, and returns how many were removed.
func ClearCache(ctx context.Context, db *sql.DB, namespace string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE ?::VARCHAR = '' OR namespace = ?`, namespace, namespace)
	if err != nil {
		return 0, fmt.Errorf("clearing geocode cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing geocode cache: %w", err)
	}

	return n, nil
}
