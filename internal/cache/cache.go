package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"PriceSentinel/internal/model"
)

// ErrMiss is returned when no live entry exists for a product.
var ErrMiss = errors.New("cache miss")

// Cache holds the latest analysis snapshot per product.
type Cache interface {
	SetLatest(ctx context.Context, snap *model.Snapshot) error
	GetLatest(ctx context.Context, productID string) (*model.Snapshot, error)
	Ping(ctx context.Context) error
	Close() error
}

type memoryEntry struct {
	snap    model.Snapshot
	expires time.Time
}

// MemoryCache is an in-process Cache with per-entry TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a cache; ttl <= 0 keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) SetLatest(_ context.Context, snap *model.Snapshot) error {
	if snap == nil || snap.ProductID == "" {
		return errors.New("snapshot with product id is required")
	}
	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[snap.ProductID] = memoryEntry{snap: *snap, expires: expires}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) GetLatest(_ context.Context, productID string) (*model.Snapshot, error) {
	c.mu.RLock()
	e, ok := c.entries[productID]
	c.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && c.now().After(e.expires)) {
		return nil, ErrMiss
	}
	s := e.snap
	return &s, nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }
