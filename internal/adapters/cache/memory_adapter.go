package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
)

// DefaultMaxEntries bounds the in-process cache when no size is configured
const DefaultMaxEntries = 10000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryAdapter implements the CacheProvider interface in process memory.
// Expired entries are evicted by the read that finds them; there is no
// background sweep. When full, the least recently used entry is dropped.
type MemoryAdapter struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryAdapter creates a new in-memory cache adapter holding at most maxEntries keys
func NewMemoryAdapter(maxEntries int) (*MemoryAdapter, error) {
	return NewMemoryAdapterWithClock(maxEntries, time.Now)
}

// NewMemoryAdapterWithClock allows overriding the clock (used for tests).
func NewMemoryAdapterWithClock(maxEntries int, now func() time.Time) (*MemoryAdapter, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryAdapter{entries: entries, now: now}, nil
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if entry.expired(a.now()) {
		a.entries.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value in cache with expiration, replacing any previous entry
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// Exists checks if a live entry exists for key
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	entry, ok := a.entries.Peek(key)
	if !ok {
		return false, nil
	}
	if entry.expired(a.now()) {
		a.entries.Remove(key)
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries, including expired ones not yet read
func (a *MemoryAdapter) Len() int {
	return a.entries.Len()
}
