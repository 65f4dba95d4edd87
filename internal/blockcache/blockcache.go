// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package blockcache keeps fully decoded blocks so that slicing the same
// block again does not run its decoder again.
//
// Blocks live in a tinylfu-managed memory tier. If a spill directory is
// configured, blocks pushed out of memory are written to a pebble store
// and read back from there on the next miss.
package blockcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/dgryski/go-tinylfu"
)

type Options struct {
	MaxBlocks     int   // memory tier entries
	MaxBlockBytes int64 // larger blocks are never cached
	SpillDir      string
	FS            vfs.FS // for SpillDir, default vfs.Default
}

const (
	DefaultMaxBlocks     = 256
	DefaultMaxBlockBytes = 64 << 20
)

// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	mem      *tinylfu.T[uint64, []byte]
	maxBytes int64
	db       *pebble.DB

	hits, misses, spills atomic.Int64
}

var seed = maphash.MakeSeed()

func New(opts Options) (*Cache, error) {
	if opts.MaxBlocks <= 0 {
		opts.MaxBlocks = DefaultMaxBlocks
	}
	if opts.MaxBlockBytes <= 0 {
		opts.MaxBlockBytes = DefaultMaxBlockBytes
	}
	c := &Cache{maxBytes: opts.MaxBlockBytes}

	if opts.SpillDir != "" {
		fs := opts.FS
		if fs == nil {
			fs = vfs.Default
		}
		db, err := pebble.Open(opts.SpillDir, &pebble.Options{FS: fs})
		if err != nil {
			return nil, fmt.Errorf("block cache spill %s: %w", opts.SpillDir, err)
		}
		c.db = db
	}

	c.mem = tinylfu.New[uint64, []byte](opts.MaxBlocks, opts.MaxBlocks*10,
		func(k uint64) uint64 { return maphash.Comparable(seed, k) },
		tinylfu.OnEvict(c.spill))
	return c, nil
}

func dbKey(k uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, k)
}

// called with mu held
func (c *Cache) spill(k uint64, blob []byte) {
	if c.db == nil {
		return
	}
	if err := c.db.Set(dbKey(k), blob, pebble.NoSync); err != nil {
		slog.Warn("cacheSpillError", "key", k, "err", err)
		return
	}
	c.spills.Add(1)
}

// Get returns a block that must not be modified.
func (c *Cache) Get(k uint64) ([]byte, bool) {
	c.mu.Lock()
	blob, ok := c.mem.Get(k)
	db := c.db
	c.mu.Unlock()
	if ok {
		return blob, true
	}
	if db == nil {
		return nil, false
	}

	val, closer, err := db.Get(dbKey(k))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			slog.Warn("cacheReadError", "key", k, "err", err)
		}
		return nil, false
	}
	blob = append([]byte(nil), val...) // pebble owns val until Close
	closer.Close()

	c.mu.Lock()
	c.mem.Add(k, blob)
	c.mu.Unlock()
	return blob, true
}

// Put keeps blob, which the caller must not modify afterwards.
func (c *Cache) Put(k uint64, blob []byte) {
	if int64(len(blob)) > c.maxBytes {
		return
	}
	c.mu.Lock()
	c.mem.Add(k, blob)
	c.mu.Unlock()
}

// Load returns the cached block for k, or runs decode and caches its
// result. A failed decode is not cached.
func (c *Cache) Load(k uint64, decode func() ([]byte, error)) ([]byte, error) {
	if blob, ok := c.Get(k); ok {
		c.hits.Add(1)
		slog.Debug("cacheHit", "key", k, "size", len(blob))
		return blob, nil
	}
	c.misses.Add(1)
	blob, err := decode()
	if err != nil {
		return blob, err
	}
	c.Put(k, blob)
	return blob, nil
}

type Stats struct {
	Hits, Misses, Spills int64
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Spills: c.spills.Load(),
	}
}

// Close releases the spill store. The memory tier stays usable.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Default is a memory-only cache shared by callers that do not bring one.
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache, _ = New(Options{})
	})
	return defaultCache
}

// SetDefault replaces the shared cache, for programs that configure one.
func SetDefault(c *Cache) {
	defaultOnce.Do(func() {})
	defaultCache = c
}
