// Package cache holds fetched tables and rendered images for a bounded time.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type entry[V any] struct {
	createdAt time.Time
	value     V
}

// TTL is a mutex-guarded map whose entries expire ttl after insertion.
// A zero ttl keeps entries for the lifetime of the process.
type TTL[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]entry[V]
	now     func() time.Time
}

func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:     ttl,
		entries: map[uint64]entry[V]{},
		now:     time.Now,
	}
}

func (c *TTL[V]) Get(key uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		if c.ttl == 0 || c.now().Before(e.createdAt.Add(c.ttl)) {
			return e.value, true
		}
		delete(c.entries, key)
	}
	var zero V
	return zero, false
}

func (c *TTL[V]) Set(key uint64, v V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{createdAt: c.now(), value: v}
	c.mu.Unlock()
}

// Len counts entries, including ones that expired but were not read since.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key hashes the ordered parts of a fetch request. Parts are length-prefixed
// so ("ab","c") and ("a","bc") hash differently.
func Key(parts ...string) uint64 {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
		b.WriteByte('|')
	}
	return xxhash.Sum64String(b.String())
}

// FetchKey builds the key of a price request: ordered tickers plus date range.
func FetchKey(kind string, tickers []string, start, end time.Time) uint64 {
	parts := make([]string, 0, len(tickers)+3)
	parts = append(parts, kind, start.Format("2006-01-02"), end.Format("2006-01-02"))
	parts = append(parts, tickers...)
	return Key(parts...)
}
