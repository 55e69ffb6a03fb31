package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileCache stores one <regionID>.json file per region.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(regionID string) (string, error) {
	if regionID == "" || filepath.Base(regionID) != regionID || regionID == "." || regionID == ".." {
		return "", fmt.Errorf("invalid cache key %q", regionID)
	}
	return filepath.Join(c.dir, regionID+".json"), nil
}

func (c *FileCache) Get(ctx context.Context, regionID string) ([]byte, bool, error) {
	path, err := c.path(regionID)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *FileCache) Put(ctx context.Context, regionID string, payload []byte) error {
	path, err := c.path(regionID)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, payload)
}

func (c *FileCache) Close() error {
	return nil
}
