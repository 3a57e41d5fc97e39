package lexicon

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dgraph-io/badger/v4"
	"github.com/golang/snappy"
)

// CacheConfig configures a BadgerCache.
type CacheConfig struct {
	// Dir holds the cache files. Ignored when InMemory is set.
	Dir      string        `yaml:"dir" toml:"dir"`
	InMemory bool          `yaml:"in_memory" toml:"in_memory"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl" validate:"gte=0"`
	// GCInterval is how often the value log is compacted; 0 disables it.
	GCInterval time.Duration `yaml:"gc_interval" toml:"gc_interval" validate:"gte=0"`
}

// DefaultCacheConfig keeps responses for a day.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        24 * time.Hour,
		GCInterval: 10 * time.Minute,
	}
}

const gcDiscardRatio = 0.5

// BadgerCache stores snappy-compressed response bodies in badger with an
// expiry. It implements Cache.
type BadgerCache struct {
	db   *badger.DB
	ttl  time.Duration
	log  logging.Logger
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// OpenBadgerCache opens or creates a cache.
func OpenBadgerCache(cfg CacheConfig, logger logging.Logger) (*BadgerCache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("cache dir is required unless in_memory is set")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache dir %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil).WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	c := &BadgerCache{
		db:   db,
		ttl:  cfg.TTL,
		log:  logging.OrNop(logger).With(logging.Component("lexicon-cache")),
		stop: make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.wg.Add(1)
		go c.runGC(cfg.GCInterval)
	}
	return c, nil
}

// Get returns the value stored under key.
func (c *BadgerCache) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := snappy.Decode(nil, val)
			if err != nil {
				return fmt.Errorf("decompress %s: %w", key, err)
			}
			out = decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Set stores value under key, expiring after the configured TTL.
func (c *BadgerCache) Set(key string, value []byte) error {
	entry := badger.NewEntry([]byte(key), snappy.Encode(nil, value))
	if c.ttl > 0 {
		entry = entry.WithTTL(c.ttl)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Delete removes key.
func (c *BadgerCache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Clear drops every entry.
func (c *BadgerCache) Clear() error {
	return c.db.DropAll()
}

// Close stops garbage collection and closes the database.
func (c *BadgerCache) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
		err = c.db.Close()
	})
	return err
}

func (c *BadgerCache) runGC(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			if err := c.db.RunValueLogGC(gcDiscardRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				c.log.Warn("value log gc failed", logging.Error(err))
			}
		}
	}
}
