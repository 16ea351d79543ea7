package rulecache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ytget/ytresolve/internal/logger"
)

// FileCache stores rule tables on disk, one file per key.
// Expired entries are treated as missing.
type FileCache struct {
	rootDir string
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewFileCache creates a file-backed cache under rootDir.
// The directory will be created if it does not exist.
func NewFileCache(rootDir string, ttl time.Duration) (*FileCache, error) {
	if rootDir == "" {
		return nil, errors.New("rootDir is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{rootDir: rootDir, ttl: ttl}, nil
}

// filenameForKey expects keys produced by KeyFromScript (hex only).
func (c *FileCache) filenameForKey(key string) string {
	return filepath.Join(c.rootDir, key+".json")
}

type fileEntry struct {
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *FileCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	fn := c.filenameForKey(key)
	b, err := os.ReadFile(fn)
	c.mu.RUnlock()
	if err != nil {
		return nil, false
	}
	var e fileEntry
	if err := json.Unmarshal(b, &e); err != nil || expired(e.CreatedAt, c.ttl) {
		c.mu.Lock()
		_ = os.Remove(fn)
		c.mu.Unlock()
		return nil, false
	}
	return e.Payload, true
}

func (c *FileCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn := c.filenameForKey(key)
	tmp := fn + ".tmp"
	b, _ := json.Marshal(fileEntry{Payload: value, CreatedAt: time.Now()})
	if err := os.WriteFile(tmp, b, fs.FileMode(0o644)); err != nil {
		logger.WithComponent(logger.ComponentCache).Warn("Cache write failed", map[string]interface{}{"error": err.Error()})
		return
	}
	_ = os.Rename(tmp, fn)
}
