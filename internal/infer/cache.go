package infer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/herald-lol/draftlab/internal/draft"
)

// cacheEntry is one cached prediction plus the time it expires.
type cacheEntry struct {
	result    *Prediction
	expiresAt time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// ResultCache is a process-local, sharded prediction cache keyed by a
// canonical hash of the draft state: a fixed TTL per entry, per-shard
// locking so concurrent requests for different drafts never contend on the
// same mutex — the in-process analogue of internal/cache/redis_cache.go's
// Get/Set/TTL shape, kept in-process here since predictions are cheap to
// rebuild and don't need to survive restarts.
type ResultCache struct {
	shards []*shard
	ttl    time.Duration
}

// NewResultCache builds a cache with the given shard count and entry TTL.
func NewResultCache(shardCount int, ttl time.Duration) *ResultCache {
	if shardCount < 1 {
		shardCount = 1
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]cacheEntry)}
	}
	return &ResultCache{shards: shards, ttl: ttl}
}

func (c *ResultCache) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns a cached prediction for key if present and unexpired.
func (c *ResultCache) Get(key string) (*Prediction, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

// Set stores a prediction under key with the cache's configured TTL.
func (c *ResultCache) Set(key string, result *Prediction) {
	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	s.mu.Unlock()
}

// CanonicalDraftKey hashes a draft's state into a stable cache key. The
// hash input is the feature version, tier group, patch, tier, picks, and
// bans (in slot order); the feature config's reference season is not part
// of the key.
func CanonicalDraftKey(r *draft.Record, group draft.TierGroup, featureVersion string) string {
	h := sha256.New()
	fmt.Fprintf(h, "fv=%s|group=%s|patch=%s|tier=%s|", featureVersion, group, r.Patch, r.Tier)
	fmt.Fprintf(h, "blue=%v|red=%v|blueBans=%v|redBans=%v", r.BluePicks, r.RedPicks, r.BlueBans, r.RedBans)
	return hex.EncodeToString(h.Sum(nil))
}
