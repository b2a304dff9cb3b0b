package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/hartonomous/substrate/internal/atomstore"
	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// DedupSet is the distributed counterpart to internal/ingestion/cache.Cache's
// in-process seen-id sets, for ingestion runs split across
// multiple worker processes that need a shared dedup view instead of each
// worker's own empty map. Each seen-kind uses its own Redis set so workers
// sharing one Redis instance observe each other's SADDs.
type DedupSet struct {
	client *Client
	prefix string
}

// NewDedupSet returns a DedupSet namespacing its three Redis sets under
// prefix (letting multiple ingestion runs against the same Redis instance
// stay isolated).
func NewDedupSet(client *Client, prefix string) *DedupSet {
	return &DedupSet{client: client, prefix: prefix}
}

// SeenComposition reports whether id has already been recorded by any
// worker sharing this DedupSet, recording it if not.
func (d *DedupSet) SeenComposition(ctx context.Context, id substrate.ID) (bool, error) {
	return d.markSeen(ctx, d.prefix+":seen:compositions", id)
}

// SeenPhysicality reports whether id has already been recorded by any
// worker sharing this DedupSet, recording it if not.
func (d *DedupSet) SeenPhysicality(ctx context.Context, id substrate.ID) (bool, error) {
	return d.markSeen(ctx, d.prefix+":seen:physicalities", id)
}

// SeenRelation reports whether id has already been recorded by any worker
// sharing this DedupSet, recording it if not.
func (d *DedupSet) SeenRelation(ctx context.Context, id substrate.ID) (bool, error) {
	return d.markSeen(ctx, d.prefix+":seen:relations", id)
}

// markSeen adds id to the given set and reports whether it was already a
// member: SADD returns the number of elements actually added, so 0 means id
// was already present.
func (d *DedupSet) markSeen(ctx context.Context, key string, id substrate.ID) (bool, error) {
	added, err := d.client.rdb.SAdd(ctx, key, id.String()).Result()
	if err != nil {
		return false, err
	}
	return added == 0, nil
}

// PreloadBatch adds every id in ids to the named set in one pipelined round
// trip, mirroring the in-process Cache.Preload entry point for a datastore
// snapshot streamed in at startup.
func (d *DedupSet) PreloadBatch(ctx context.Context, kind string, ids []substrate.ID) error {
	if len(ids) == 0 {
		return nil
	}
	key := d.prefix + ":seen:" + kind
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id.String()
	}
	return d.client.rdb.SAdd(ctx, key, members...).Err()
}

// AtomLookupCache wraps an atomstore.Lookup with a Redis-backed cache of
// resolved AtomInfo, the distributed alternative to atomstore.Store's
// in-process, preload-once map when ingestion runs as multiple stateless
// worker processes that would otherwise each pay PreloadAll's ~200MB
// memory cost on every process.
type AtomLookupCache struct {
	backing atomstore.Lookup
	cache   Cache
	ttl     time.Duration
}

var _ atomstore.Lookup = (*AtomLookupCache)(nil)

// NewAtomLookupCache returns an AtomLookupCache serving lookups from cache
// first, falling back to backing on miss and populating cache for ttl.
func NewAtomLookupCache(backing atomstore.Lookup, cache Cache, ttl time.Duration) *AtomLookupCache {
	return &AtomLookupCache{backing: backing, cache: cache, ttl: ttl}
}

// Lookup implements atomstore.Lookup.
func (a *AtomLookupCache) Lookup(ctx context.Context, codepoint uint32) (*atomstore.AtomInfo, error) {
	key := atomLookupKey(codepoint)
	var info atomstore.AtomInfo
	if err := a.cache.Get(ctx, key, &info); err == nil {
		return &info, nil
	}

	resolved, err := a.backing.Lookup(ctx, codepoint)
	if err != nil {
		return nil, err
	}
	_ = a.cache.Set(ctx, key, resolved, a.ttl)
	return resolved, nil
}

// LookupBatch implements atomstore.Lookup. Each codepoint is read from the
// cache with its own Get rather than one batched round trip, since Cache has
// no MGet-into-typed-map primitive; every codepoint the cache misses is then
// resolved in a single call to the backing store's LookupBatch and cached.
func (a *AtomLookupCache) LookupBatch(ctx context.Context, codepoints []uint32) (map[uint32]*atomstore.AtomInfo, error) {
	out := make(map[uint32]*atomstore.AtomInfo, len(codepoints))
	var missing []uint32

	for _, cp := range codepoints {
		var info atomstore.AtomInfo
		if err := a.cache.Get(ctx, atomLookupKey(cp), &info); err == nil {
			out[cp] = &info
		} else {
			missing = append(missing, cp)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	resolved, err := a.backing.LookupBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for cp, info := range resolved {
		out[cp] = info
		_ = a.cache.Set(ctx, atomLookupKey(cp), info, a.ttl)
	}
	return out, nil
}

func atomLookupKey(codepoint uint32) string {
	return "atom:" + strconv.FormatUint(uint64(codepoint), 10)
}
