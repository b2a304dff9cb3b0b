package store

import (
	"context"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// RelationRepository persists Relations, their ordinal sequence records, and
// the one mutable record in the whole data model: RelationRating
// ( Lifecycle invariant). RelationEvidence accumulates
// separately — many evidence rows may back one rating.
type RelationRepository interface {
	// SaveComputed writes a newly-observed relation's Relation,
	// Physicality, ordinal sequence, initial Rating, and first Evidence row
	// in one transaction. If the Relation already exists, only the
	// Evidence row is inserted (after evidence dedup/coalescing) and the
	// existing Rating is left for a subsequent ApplyObservation call.
	SaveComputed(ctx context.Context, computed *substrate.ComputedRelation) error

	FindByID(ctx context.Context, id substrate.ID) (*substrate.Relation, error)

	FindRating(ctx context.Context, relationID substrate.ID) (*substrate.RelationRating, error)

	// ApplyObservation persists the rating update RelationRating.ApplyObservation
	// computes, as a single atomic read-modify-write keyed on relationID.
	ApplyObservation(ctx context.Context, relationID substrate.ID, newRating float64, newKFactor float64) error

	// FindEvidence looks up the existing evidence row for (contentID,
	// relationID), letting callers coalesce on max signal strength before
	// writing.
	FindEvidence(ctx context.Context, contentID, relationID substrate.ID) (*substrate.RelationEvidence, error)

	// FindNeighbors returns up to limit compositions reachable from
	// compositionID across any Relation, aggregated on the rule that two
	// compositions may be joined by multiple relations (max rating, summed
	// observations), sorted by descending rating — the graph-neighbor query
	// both the walk engine's step selection and the A* search's neighbor
	// expansion drive. minElo and minObservations apply the same filters
	// A*'s edge-admissibility check does; pass 0 for neither to filter.
	FindNeighbors(ctx context.Context, compositionID substrate.ID, minElo float64, minObservations uint64, limit int) ([]RelationNeighbor, error)
}

// RelationNeighbor is one composition reachable from a query composition,
// aggregated across however many Relations join the two.
type RelationNeighbor struct {
	CompositionID substrate.ID
	PhysicalityID substrate.ID
	Rating        float64
	Observations  uint64
}
