package store

import (
	"context"
	"math/big"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// PhysicalityRepository persists the geometric embedding shared by every
// entity kind. A Physicality is immutable once written; its id
// is a pure function of its centroid and decimated trajectory.
type PhysicalityRepository interface {
	SaveBatch(ctx context.Context, physicalities []*substrate.Physicality) error

	FindByID(ctx context.Context, id substrate.ID) (*substrate.Physicality, error)

	FindByIDs(ctx context.Context, ids []substrate.ID) (map[substrate.ID]*substrate.Physicality, error)

	// FindNearCentroid returns up to limit Physicalities whose Hilbert index
	// falls in the range [loIndex, hiIndex], a locality-preserving range
	// scan that avoids a full table scan. WalkEngine and the Voronoi
	// analysis use CompositionRepository.FindNearCentroid instead, and
	// AStarSearch does no range scan.
	FindNearCentroid(ctx context.Context, loIndex, hiIndex *big.Int, limit int) ([]*substrate.Physicality, error)
}
