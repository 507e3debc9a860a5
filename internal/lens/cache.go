// Package lens builds and caches the literature lens of a card: the
// resolved work, its references, the works citing it and a similarity ranking.
package lens

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tabscribe/tabscribe/internal/db"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/scholar"
	"github.com/tabscribe/tabscribe/internal/similarity"
)

// DefaultTTL is how long a cached payload stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Payload is the cached lens of one paper.
type Payload struct {
	Base    *scholar.Work           `json:"base"`
	Refs    []*scholar.Work         `json:"refs"`
	Cited   []*scholar.Work         `json:"cited"`
	Similar []similarity.ScoredWork `json:"similar"`
}

// Cache stores payloads in the lens_cache table. Expired rows are treated
// as absent and overwritten on the next computation, never deleted eagerly.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheClock overrides the clock used for savedAt and expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a Cache on database.
func NewCache(database *sql.DB, opts ...CacheOption) *Cache {
	c := &Cache{db: database, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the payload for key and when it was saved. ok is false on a
// miss or when now - savedAt >= TTL.
func (c *Cache) Get(ctx context.Context, key string) (p *Payload, savedAt int64, ok bool, err error) {
	entry, err := db.GetLensEntry(ctx, c.db, key)
	if err != nil || entry == nil {
		return nil, 0, false, err
	}
	if !c.valid(entry.SavedAt) {
		return nil, entry.SavedAt, false, nil
	}

	var payload Payload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		// Undecodable rows count as misses.
		return nil, entry.SavedAt, false, nil
	}
	return &payload, entry.SavedAt, true, nil
}

// Put stores p under key with savedAt = now, replacing any previous entry.
// Returns the savedAt it wrote.
func (c *Cache) Put(ctx context.Context, key string, p *Payload) (int64, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	savedAt := c.now().UnixMilli()
	if err := db.PutLensEntry(ctx, c.db, &db.LensEntry{Key: key, SavedAt: savedAt, Payload: data}); err != nil {
		return 0, err
	}
	return savedAt, nil
}

func (c *Cache) valid(savedAt int64) bool {
	age := c.now().Sub(time.UnixMilli(savedAt))
	return age < c.ttl
}
