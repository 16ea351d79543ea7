// Package rulecache stores mined cipher rule tables keyed by a content hash
// of the player script they were mined from.
package rulecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Mode names a cache backend.
const (
	ModeOff    = "off"
	ModeMemory = "memory"
	ModeFile   = "file"
	ModeSQLite = "sqlite"
)

// Cache is the storage used for serialised rule tables.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// KeyFromScript derives the cache key of a player script.
func KeyFromScript(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// New opens the backend named mode. path is the directory for "file" and
// the database file for "sqlite"; ttl of 0 keeps entries forever.
// "off" and "" return a nil Cache.
func New(mode, path string, ttl time.Duration) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeOff:
		return nil, nil
	case ModeMemory:
		return NewMemoryCache(), nil
	case ModeFile:
		c, err := NewFileCache(path, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ModeSQLite:
		c, err := NewSQLiteCache(path, ttl)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown cache mode %q", mode)
}

func expired(createdAt time.Time, ttl time.Duration) bool {
	return ttl > 0 && time.Since(createdAt) > ttl
}
