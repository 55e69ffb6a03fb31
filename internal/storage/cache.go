package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CacheStore keeps the last successfully parsed data block of each region.
// Payloads are opaque: validating them is the fetcher's job.
type CacheStore interface {
	// Get returns found=false, err=nil when nothing is cached for the region.
	Get(ctx context.Context, regionID string) (payload []byte, found bool, err error)
	Put(ctx context.Context, regionID string, payload []byte) error
	Close() error
}

// OpenCache builds the backend named by kind ("file" or "sqlite").
func OpenCache(ctx context.Context, kind, dir, dbPath string) (CacheStore, error) {
	switch kind {
	case "", "file":
		return NewFileCache(dir), nil
	case "sqlite":
		return OpenSQLiteCache(ctx, dbPath)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}

// writeFileAtomic replaces path so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
