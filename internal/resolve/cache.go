package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// CachingResolver memoizes successful resolutions. Misses are not cached,
// so a row loaded after a miss is still found on the next lookup, and
// observable results match the uncached resolver.
type CachingResolver struct {
	next   Resolver
	keys   map[string]pgtype.Int8
	hits   int
	misses int
}

// NewCaching wraps next with an in-memory cache.
func NewCaching(next Resolver) *CachingResolver {
	return &CachingResolver{next: next, keys: make(map[string]pgtype.Int8)}
}

func cacheKey(table string, natural any) string {
	if t, ok := natural.(time.Time); ok {
		natural = t.Format("2006-01-02")
	}
	return fmt.Sprintf("%s\x00%v", table, natural)
}

// Resolve returns a cached key or delegates.
func (c *CachingResolver) Resolve(ctx context.Context, dim warehouse.Dimension, natural any) (pgtype.Int8, error) {
	natural, ok := present(natural)
	if !ok {
		return pgtype.Int8{}, nil
	}
	k := cacheKey(dim.Table, natural)
	if key, ok := c.keys[k]; ok {
		c.hits++
		return key, nil
	}
	c.misses++
	key, err := c.next.Resolve(ctx, dim, natural)
	if err != nil {
		return key, err
	}
	if key.Valid {
		c.keys[k] = key
	}
	return key, nil
}

// ResolveLocality returns a cached key or delegates.
func (c *CachingResolver) ResolveLocality(ctx context.Context, city, state string) (pgtype.Int8, error) {
	k := cacheKey("locality-by-city", strings.ToLower(strings.TrimSpace(city))+"\x00"+strings.ToLower(strings.TrimSpace(state)))
	if key, ok := c.keys[k]; ok {
		c.hits++
		return key, nil
	}
	c.misses++
	key, err := c.next.ResolveLocality(ctx, city, state)
	if err != nil {
		return key, err
	}
	if key.Valid {
		c.keys[k] = key
	}
	return key, nil
}

// Stats returns cache hit and miss counts.
func (c *CachingResolver) Stats() (hits, misses int) {
	return c.hits, c.misses
}
