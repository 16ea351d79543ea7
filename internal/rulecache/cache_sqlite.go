package rulecache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/ytget/ytresolve/internal/logger"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS rule_tables (
	script_hash TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	created_at  INTEGER NOT NULL
)`

// SQLiteCache keeps rule tables in a single sqlite database so they survive
// process restarts.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteCache opens (creating if needed) the database at path.
func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	if path == "" {
		return nil, errors.New("sqlite cache path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteCache{db: db, ttl: ttl}, nil
}

func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var (
		payload []byte
		created int64
	)
	err := c.db.QueryRow(`SELECT payload, created_at FROM rule_tables WHERE script_hash = ?`, key).Scan(&payload, &created)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.WithComponent(logger.ComponentCache).Warn("Cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	if expired(time.Unix(created, 0), c.ttl) {
		_, _ = c.db.Exec(`DELETE FROM rule_tables WHERE script_hash = ?`, key)
		return nil, false
	}
	return payload, true
}

func (c *SQLiteCache) Set(key string, value []byte) {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO rule_tables (script_hash, payload, created_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Unix())
	if err != nil {
		logger.WithComponent(logger.ComponentCache).Warn("Cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Close releases the database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
