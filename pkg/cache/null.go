package cache

import (
	"context"
	"time"
)

// NullCache disables caching: every Get misses and Set discards.
// [Enabled] reports false for it, so callers can skip encoding entries
// nobody will store.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return &NullCache{} }

func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (c *NullCache) Delete(context.Context, string) error { return nil }
func (c *NullCache) Close() error { return nil }

// Enabled reports whether c stores anything. A nil cache is disabled.
func Enabled(c Cache) bool {
	if c == nil {
		return false
	}
	_, null := c.(*NullCache)
	return !null
}
