// Package cache provides an embedded key-value cache with optional TTLs,
// mirroring the key/value and hash-field surface of a classic cache client.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/renatoramossilva/bindl-lib/logging"
)

// Common errors returned by cache operations.
var (
	// ErrKeyNotFound is returned when the requested key or field does not exist
	// or its TTL has expired.
	ErrKeyNotFound = errors.New("cache: key not found")

	// ErrClosed is returned when operating on a closed cache.
	ErrClosed = errors.New("cache: closed")
)

// Key namespaces. Plain keys and hash fields live in separate prefixes and
// composite parts are joined with a NUL byte so names cannot alias.
const (
	kvPrefix   = "kv\x00"
	hashPrefix = "h\x00"
)

// Config configures a Cache.
type Config struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory, useful for tests.
	InMemory bool

	// SyncWrites makes every write durable before returning.
	SyncWrites bool
}

// Cache is an embedded key-value store with per-entry TTL support.
// All methods are safe for concurrent use.
type Cache struct {
	db     *badger.DB
	logger *logging.Logger
	closed atomic.Bool
}

// Open opens the cache at cfg.Dir, or an in-memory instance when
// cfg.InMemory is set.
func Open(cfg Config, logger *logging.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("cache: dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.InMemory = cfg.InMemory
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}

	logger.Infof("cache opened", map[string]any{
		"dir":      cfg.Dir,
		"inMemory": cfg.InMemory,
	})

	return &Cache{db: db, logger: logger}, nil
}

// Set stores a key-value pair. A ttl of zero means the entry never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.write(ctx, kvPrefix+key, value, ttl)
}

// Get retrieves the value for key. Returns ErrKeyNotFound if the key does not
// exist or has expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.read(ctx, kvPrefix+key)
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(kvPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// SetField stores a field inside a named hash. The ttl applies to the field.
func (c *Cache) SetField(ctx context.Context, name, field string, value []byte, ttl time.Duration) error {
	return c.write(ctx, hashKey(name, field), value, ttl)
}

// GetField retrieves a field from a named hash. Returns ErrKeyNotFound if the
// field does not exist or has expired.
func (c *Cache) GetField(ctx context.Context, name, field string) ([]byte, error) {
	return c.read(ctx, hashKey(name, field))
}

// Ping verifies the cache is open and able to serve a read transaction.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	return c.db.View(func(*badger.Txn) error { return nil })
}

// Close releases the underlying store. Further operations return ErrClosed.
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (c *Cache) write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) read(ctx context.Context, key string) ([]byte, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return value, nil
}

func hashKey(name, field string) string {
	return hashPrefix + name + "\x00" + field
}
