package ingesters

import (
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/ingestion/cache"
	"github.com/hartonomous/substrate/internal/ingestion/flusher"
)

// mergeComposition folds comp into batch unless the cache has already seen
// its id this run. Shared by every ingester.
func mergeComposition(c *cache.Cache, comp *substrate.ComputedComposition, batch *flusher.SubstrateBatch) {
	if !c.SeenComposition(comp.Composition.ID) {
		batch.Compositions = append(batch.Compositions, comp)
	}
}

// mergeRelation folds computed into batch, shared by every ingester that
// derives binary relations.
//
// Evidence already recorded this run for the same (content, relation) pair
// contributes nothing new and is dropped outright — relation_evidence
// coalesces by max signal strength, so reprocessing the same sentence
// cannot change the persisted row. Otherwise computed is always appended to
// batch.Relations: SaveComputed's own existence check makes the relation
// (and seed RelationRating) row insert a no-op past the first occurrence,
// while it still unconditionally upserts the new evidence row. A relation
// already seen this run (or a prior run, via cache.Preload) additionally
// accumulates an ELO update in memory against the cache's per-run rating
// snapshot and queues it as a RelationObservation for ApplyObservation,
// since SaveComputed deliberately leaves an existing relation's Rating
// untouched (store.RelationRepository's documented contract).
func mergeRelation(c *cache.Cache, contentID substrate.ID, computed *substrate.ComputedRelation, batch *flusher.SubstrateBatch) {
	relID := computed.Relation.ID

	alreadySeen := c.SeenRelation(relID)
	if !alreadySeen {
		c.SetRating(relID, *computed.Rating)
	}

	if c.SeenEvidence(contentID, relID) {
		return
	}
	batch.Relations = append(batch.Relations, computed)

	if !alreadySeen {
		return
	}

	rating, ok := c.RatingFor(relID)
	if !ok {
		rating = *computed.Rating
	}
	rating.ApplyObservation(computed.Evidence.SignalStrength)
	c.SetRating(relID, rating)
	batch.Observations = append(batch.Observations, flusher.RelationObservation{
		RelationID: relID,
		Rating:     rating.Rating,
		KFactor:    rating.KFactor,
	})
}
