package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/lieblocker/internal/model"
)

// Open builds the local tier described by cfg: memory over disk or badger.
// A disabled cache is memory only and keeps entries for the process
// lifetime; callers that want expiry pass an explicit ttl.
func Open(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return NewMemoryCache(NoExpiry, 10*time.Minute), nil
	}
	memory := NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)

	dir, err := ExpandHome(cfg.Dir)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "disk":
		return NewLayeredCache(memory, NewDiskCache(dir)), nil
	case "badger":
		db, err := OpenBadgerCache(filepath.Join(dir, "badger"))
		if err != nil {
			return nil, err
		}
		return NewLayeredCache(memory, db), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (supported: disk, badger)", cfg.Backend)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
