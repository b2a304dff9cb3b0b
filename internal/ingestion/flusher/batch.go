package flusher

import (
	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// RelationObservation carries an ELO update for a Relation that an ingester
// has already written once this run (store.RelationRepository.SaveComputed's
// doc comment: "the existing Rating is left for a subsequent
// ApplyObservation call"). Rating/KFactor are the already-advanced values
// (substrate.RelationRating.ApplyObservation applied in-memory against
// internal/ingestion/cache's per-run rating snapshot), not a delta, since
// store.RelationRepository.ApplyObservation writes them directly.
type RelationObservation struct {
	RelationID substrate.ID
	Rating     float64
	KFactor    float64
}

// SubstrateBatch is the unified container an ingester hands off to the
// AsyncFlusher: every Composition and Relation computed for one chunk of
// input, each already carrying its own Physicality and sequence records
// (internal/domain/substrate.ComputedComposition / ComputedRelation) —
// collapsed into the two computed-aggregate slices store.CompositionRepository
// and store.RelationRepository already persist atomically per call.
// Observations carries rating accumulation for relations already written in
// an earlier chunk or a prior run (warm-started via cache.Preload).
type SubstrateBatch struct {
	Compositions []*substrate.ComputedComposition
	Relations    []*substrate.ComputedRelation
	Observations []RelationObservation
}

// IsEmpty reports whether the batch carries no records at all.
func (b *SubstrateBatch) IsEmpty() bool {
	return b == nil || (len(b.Compositions) == 0 && len(b.Relations) == 0 && len(b.Observations) == 0)
}

// RecordCount returns the total number of top-level entities in the batch,
// for logging/metrics.
func (b *SubstrateBatch) RecordCount() int {
	if b == nil {
		return 0
	}
	return len(b.Compositions) + len(b.Relations) + len(b.Observations)
}
