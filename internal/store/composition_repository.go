package store

import (
	"context"
	"math/big"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// CompositionRepository persists Compositions and their run-length-encoded
// atom sequences. SaveComputed is the unit of work the
// ingestion flusher (internal/ingestion/flusher) writes per batch: a
// Composition row, its Physicality, and its CompositionSequence records all
// land in a single transaction.
type CompositionRepository interface {
	// SaveComputed writes every element of computed in one transaction.
	// Composition ids already present are skipped (content-addressed
	// dedup), matching ingestion-cache "already seen this
	// session" behavior at the storage layer for cross-session dedup.
	SaveComputed(ctx context.Context, computed []*substrate.ComputedComposition) error

	FindByID(ctx context.Context, id substrate.ID) (*substrate.ComputedComposition, error)

	// Exists reports which of ids are already persisted, letting callers
	// skip re-deriving a Composition's sequence records.
	Exists(ctx context.Context, ids []substrate.ID) (map[substrate.ID]bool, error)

	// FindNearCentroid returns up to limit Compositions whose Physicality's
	// Hilbert index falls in [loIndex, hiIndex], joining compositions to
	// physicalities the way PhysicalityRepository.FindNearCentroid range-
	// scans physicalities alone — the walk engine's spatial-drift candidate
	// set needs the owning Composition, not a bare Physicality.
	FindNearCentroid(ctx context.Context, loIndex, hiIndex *big.Int, limit int) ([]*substrate.ComputedComposition, error)
}
