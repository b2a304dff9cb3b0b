// Package cache implements the process-local ingestion cache:
// content-addressed dedup sets for physicality/composition/relation
// ids seen this run, a text→cache-entry map for composition reuse across
// sentences, and an evidence-dedup set keyed on (content_id, relation_id).
// Cache is owned by the main ingester thread; worker goroutines receive
// read-only snapshots or owning batches rather than sharing this type
// directly, so no internal locking is provided.
package cache

import (
	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// Entry is the reusable result of a prior compute_composition call for a
// given text, letting repeated sentences/words within (and across) a run
// skip re-deriving identity and geometry ( "text→cache-entry
// map for composition reuse across sentences").
type Entry struct {
	CompositionID substrate.ID
	PhysicalityID substrate.ID
	Centroid      [4]float64
}

// Cache is the Ingestion Cache. The zero value is not usable; use New.
type Cache struct {
	seenPhysicalities map[substrate.ID]struct{}
	seenCompositions  map[substrate.ID]struct{}
	seenRelations     map[substrate.ID]struct{}
	byText            map[string]Entry
	seenEvidence      map[[2]substrate.ID]struct{}
	ratings           map[substrate.ID]substrate.RelationRating
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		seenPhysicalities: make(map[substrate.ID]struct{}),
		seenCompositions:  make(map[substrate.ID]struct{}),
		seenRelations:     make(map[substrate.ID]struct{}),
		byText:            make(map[string]Entry),
		seenEvidence:      make(map[[2]substrate.ID]struct{}),
		ratings:           make(map[substrate.ID]substrate.RelationRating),
	}
}

// SeenComposition reports whether id has already been recorded this run,
// recording it if not — an O(1) expected check-and-set.
func (c *Cache) SeenComposition(id substrate.ID) bool {
	return markSeen(c.seenCompositions, id)
}

// SeenPhysicality reports whether id has already been recorded this run,
// recording it if not.
func (c *Cache) SeenPhysicality(id substrate.ID) bool {
	return markSeen(c.seenPhysicalities, id)
}

// SeenRelation reports whether id has already been recorded this run,
// recording it if not.
func (c *Cache) SeenRelation(id substrate.ID) bool {
	return markSeen(c.seenRelations, id)
}

// SeenEvidence reports whether evidence for (contentID, relationID) has
// already been recorded this run, recording it if not — // "(content_id, relation_id) set to avoid duplicate evidence".
func (c *Cache) SeenEvidence(contentID, relationID substrate.ID) bool {
	key := [2]substrate.ID{contentID, relationID}
	if _, ok := c.seenEvidence[key]; ok {
		return true
	}
	c.seenEvidence[key] = struct{}{}
	return false
}

// RatingFor returns the last rating recorded for relationID this run (its
// seed rating on first occurrence, or the most recent ApplyObservation
// result), so a repeat occurrence can accumulate an ELO update in memory
// without a round trip to the store (merge step).
func (c *Cache) RatingFor(relationID substrate.ID) (substrate.RelationRating, bool) {
	r, ok := c.ratings[relationID]
	return r, ok
}

// SetRating records relationID's current rating for later RatingFor lookups.
func (c *Cache) SetRating(relationID substrate.ID, rating substrate.RelationRating) {
	c.ratings[relationID] = rating
}

// Lookup returns the cached Entry for text, if any composition has already
// been computed for it this run.
func (c *Cache) Lookup(text string) (Entry, bool) {
	e, ok := c.byText[text]
	return e, ok
}

// Store records text's computed Entry for reuse by later occurrences of the
// same text within (or across) a batch.
func (c *Cache) Store(text string, entry Entry) {
	c.byText[text] = entry
}

// Preload marks every id in ids as already seen, letting an ingester start
// from a datastore snapshot rather than an empty cache, pre-populated at
// startup by streaming id columns from the datastore.
func (c *Cache) Preload(physicalities, compositions, relations []substrate.ID) {
	for _, id := range physicalities {
		c.seenPhysicalities[id] = struct{}{}
	}
	for _, id := range compositions {
		c.seenCompositions[id] = struct{}{}
	}
	for _, id := range relations {
		c.seenRelations[id] = struct{}{}
	}
}

func markSeen(set map[substrate.ID]struct{}, id substrate.ID) bool {
	if _, ok := set[id]; ok {
		return true
	}
	set[id] = struct{}{}
	return false
}
