package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteCacheSchema = `
CREATE TABLE IF NOT EXISTS region_cache (
	region_id  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// SQLiteCache keeps every region's payload in one embedded database.
type SQLiteCache struct {
	db *sql.DB
}

func OpenSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; parallel region workers queue on the pool
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteCacheSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, regionID string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM region_cache WHERE region_id = ?`, regionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, regionID string, payload []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO region_cache (region_id, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (region_id) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		regionID, payload, time.Now().Unix(),
	)
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
