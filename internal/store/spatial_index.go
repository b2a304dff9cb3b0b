package store

import (
	"context"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/geometry"
)

// SpatialIndex is a nearest-neighbor index over composition centroids in
// four dimensions, answering k-NN and radius queries; the milvus package
// implements it. WalkEngine and the Voronoi analysis do not consult it:
// they enumerate geometric neighbors with the Hilbert-index range scan
// CompositionRepository.FindNearCentroid.
type SpatialIndex interface {
	// Upsert indexes or re-indexes compositionID's Physicality centroid.
	Upsert(ctx context.Context, compositionID substrate.ID, centroid geometry.Point) error

	// Delete removes compositionID from the index, if present.
	Delete(ctx context.Context, compositionID substrate.ID) error

	// KNN returns up to k SpatialNeighbors nearest to query by the index's
	// inner-product/cosine metric, excluding no composition itself — callers
	// filter the query composition's own id out of the result.
	KNN(ctx context.Context, query geometry.Point, k int) ([]SpatialNeighbor, error)

	// RadiusSearch returns up to limit SpatialNeighbors within the given
	// cosine-similarity radius of query.
	RadiusSearch(ctx context.Context, query geometry.Point, radius float64, limit int) ([]SpatialNeighbor, error)
}

// SpatialNeighbor is one composition returned by a SpatialIndex query,
// carrying its centroid (not re-fetched from the durable store) and the
// index's own similarity score so callers can reuse it directly as
// WalkEngine's geoSim signal.
type SpatialNeighbor struct {
	CompositionID substrate.ID
	Centroid      geometry.Point
	Score         float64
}
