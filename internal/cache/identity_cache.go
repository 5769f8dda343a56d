// Package cache implements the write-through identity cache that sits
// in front of the durable store. Values are flattened identity
// projections, keyed by principal id, with a TTL so a stale entry can
// never outlive more than one cache window past the last mutation.
// Redis is treated as best-effort: every error degrades to a miss or a
// no-op and the resolver falls back to the store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soundhive/soundhive-backend/internal/model"
)

// opTimeout bounds every Redis round trip so a wedged cache cannot
// stall the auth path.
const opTimeout = 500 * time.Millisecond

const keyPrefix = "identity:"

// IdentityCache maps principal id -> cached identity projection.
// A nil client is tolerated and behaves as an always-empty cache.
type IdentityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds an IdentityCache with the given default TTL.
func New(rdb *redis.Client, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &IdentityCache{rdb: rdb, ttl: ttl}
}

// Key returns the cache key for a principal.
func Key(principalID string) string { return keyPrefix + principalID }

// Get returns the cached projection for a principal, or ok=false on
// miss, decode failure, timeout or any Redis error.
func (c *IdentityCache) Get(ctx context.Context, principalID string) (model.Projection, bool) {
	if c == nil || c.rdb == nil {
		return model.Projection{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	bs, err := c.rdb.Get(ctx, Key(principalID)).Bytes()
	if err != nil {
		return model.Projection{}, false
	}
	var p model.Projection
	if err := json.Unmarshal(bs, &p); err != nil {
		// Corrupt entry: drop it so the next resolve rewrites it.
		_ = c.rdb.Del(ctx, Key(principalID)).Err()
		return model.Projection{}, false
	}
	return p, true
}

// Put writes a projection with the default TTL. Failures are ignored;
// the store remains the source of truth.
func (c *IdentityCache) Put(ctx context.Context, p model.Projection) {
	if c == nil || c.rdb == nil || p.ID == "" {
		return
	}
	bs, err := json.Marshal(p)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_ = c.rdb.Set(ctx, Key(p.ID), bs, c.ttl).Err()
}

// Invalidate deletes the cached projection for a principal. Called
// after every mutation that changes a cached field, and on sign-out.
func (c *IdentityCache) Invalidate(ctx context.Context, principalID string) {
	if c == nil || c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_ = c.rdb.Del(ctx, Key(principalID)).Err()
}
