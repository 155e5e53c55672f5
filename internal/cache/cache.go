// Package cache keeps short-lived copies of API responses in a local SQLite
// file so public pages do not hit the REST API on every request.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"teretnjaci-web/internal/config"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Cache provides a SQLite-based caching mechanism.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

// New opens the SQLite database at cfg.FilePath and ensures the cache table exists.
// Entries written with SetJSON live for cfg.TTL.
func New(cfg config.CacheConfig) (*Cache, error) {
	db, err := sqlx.Connect("sqlite", cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite cache: %w", err)
	}

	// For a cache, WAL mode is generally better for concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode on sqlite cache: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value BLOB,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_expires_at ON cache (expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves an item from the cache. It returns nil if the item is not found or is expired.
func (c *Cache) Get(key string) ([]byte, error) {
	var item struct {
		Value     []byte `db:"value"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := c.db.Get(&item, `SELECT value, expires_at FROM cache WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found is not an error for a cache miss.
		}
		return nil, fmt.Errorf("failed to get item from cache: %w", err)
	}

	if c.now().Unix() >= item.ExpiresAt {
		_ = c.Delete(key)
		return nil, nil
	}

	return item.Value, nil
}

// Set adds an item to the cache with a specific TTL (time-to-live).
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	expiresAt := c.now().Add(ttl).Unix()
	_, err := c.db.Exec(`INSERT OR REPLACE INTO cache (key, value, expires_at) VALUES (?, ?, ?)`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set item in cache: %w", err)
	}
	return nil
}

// GetJSON decodes the cached value for key into out and reports whether there was a hit.
func (c *Cache) GetJSON(key string, out interface{}) (bool, error) {
	b, err := c.Get(key)
	if err != nil || b == nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		// A value we cannot read is as good as missing.
		_ = c.Delete(key)
		return false, nil
	}
	return true, nil
}

// SetJSON stores v as JSON for the cache's default TTL.
func (c *Cache) SetJSON(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	return c.Set(key, b, c.ttl)
}

// Delete removes an item from the cache.
func (c *Cache) Delete(key string) error {
	if _, err := c.db.Exec(`DELETE FROM cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete item from cache: %w", err)
	}
	return nil
}

// DeletePrefix removes every item whose key starts with prefix.
func (c *Cache) DeletePrefix(prefix string) error {
	if _, err := c.db.Exec(`DELETE FROM cache WHERE substr(key, 1, ?) = ?`, len(prefix), prefix); err != nil {
		return fmt.Errorf("failed to delete items with prefix %s: %w", prefix, err)
	}
	return nil
}

// Purge drops expired items and returns how many were removed.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM cache WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
