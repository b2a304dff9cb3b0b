// Package voronoi implements a Monte Carlo estimator of a Composition's S³
// Voronoi cell (, supplemented from // voronoi_analysis.{hpp,cpp}): rather than constructing exact 4-D Voronoi
// cells, it samples random points near a composition's centroid and
// classifies each by nearest neighbor, estimating cell volume, boundary
// neighbors, and elongation from the resulting sample histogram.
package voronoi

import (
	"context"
	"math"
	"math/big"
	"math/rand"
	"sort"
	"time"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/spatial"
)

// hilbertWindowShift sizes the Hilbert-index range scan this package uses to
// bound the candidate neighborhood before exact-filtering by geodesic
// distance — the same PostGIS-KNN substitution internal/reasoning/walk
// already applies for its spatial-drift candidates (no store in this module
// exposes a true `ST_DWithin`-style radius query).
const hilbertWindowShift = 80

// BoundaryNeighbor is one composition whose Monte Carlo samples bordered the
// analyzed cell.
type BoundaryNeighbor struct {
	CompositionID    substrate.ID
	BoundaryDistance float64
	BoundaryFraction float64
}

// Cell is VoronoiCell: the Monte Carlo estimate of one composition's
// semantic territory.
type Cell struct {
	CompositionID substrate.ID
	Centroid      geometry.Point

	// ApproximateVolume is the fraction of samples drawn within SearchRadius
	// of Centroid that classified nearest to CompositionID itself — a local
	// estimate relative to the sampled neighborhood, not a fraction of the
	// full S³ surface.
	ApproximateVolume float64

	// AvgBoundaryDistance approximates "how far until this cell's boundary"
	// as the mean geodesic distance from Centroid to the cell's own
	// assigned samples, rather than precisely locating each shared boundary
	// segment's midpoint (own description of this field;
	// left genuinely approximate per accepted trade-off).
	AvgBoundaryDistance float64

	// Eccentricity is 0 for a perfectly round cell, approaching 1 as the
	// cell's assigned samples elongate along one tangent-space axis more
	// than others.
	Eccentricity float64

	BoundaryNeighbors []BoundaryNeighbor
}

// Engine is VoronoiAnalysis. It holds no per-call state of its own.
type Engine struct {
	compositions store.CompositionRepository
	rng          *rand.Rand
}

// New returns an Engine backed by compositions, seeded from the current
// time. Use SetRand for deterministic tests.
func New(compositions store.CompositionRepository) *Engine {
	return &Engine{
		compositions: compositions,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand overrides the Engine's random source, for reproducible tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.rng = rng
}

// neighborhoodEntry is one candidate composition near the analyzed center.
type neighborhoodEntry struct {
	id       substrate.ID
	position geometry.Point
}

// AnalyzeCell computes Cell metrics for compositionID.
func (e *Engine) AnalyzeCell(ctx context.Context, compositionID substrate.ID, cfg config.VoronoiConfig) (*Cell, error) {
	center, err := e.compositions.FindByID(ctx, compositionID)
	if err != nil {
		return nil, err
	}
	centroid := center.Physicality.Centroid

	neighborhood, err := e.loadNeighborhood(ctx, center, cfg.SearchRadius)
	if err != nil {
		return nil, err
	}

	basis := tangentBasis(centroid)

	var centerHits int
	var boundarySum float64
	var varSum [3]float64
	neighborHits := make(map[substrate.ID]int)

	for i := 0; i < cfg.SamplesPerCell; i++ {
		sample := sampleNear(centroid, cfg.SearchRadius, basis, e.rng)

		nearestID := compositionID
		nearestDist := geometry.Geodesic(centroid, sample)
		for _, n := range neighborhood {
			if d := geometry.Geodesic(n.position, sample); d < nearestDist {
				nearestDist = d
				nearestID = n.id
			}
		}

		if nearestID == compositionID {
			centerHits++
			d := geometry.Geodesic(centroid, sample)
			boundarySum += d

			dir := geometry.Point{
				sample[0] - centroid[0],
				sample[1] - centroid[1],
				sample[2] - centroid[2],
				sample[3] - centroid[3],
			}
			for axis := 0; axis < 3; axis++ {
				c := geometry.Dot(dir, basis[axis])
				varSum[axis] += c * c
			}
		} else {
			neighborHits[nearestID]++
		}
	}

	cell := &Cell{
		CompositionID: compositionID,
		Centroid:      centroid,
	}
	if cfg.SamplesPerCell > 0 {
		cell.ApproximateVolume = float64(centerHits) / float64(cfg.SamplesPerCell)
	}
	if centerHits > 0 {
		cell.AvgBoundaryDistance = boundarySum / float64(centerHits)
	}
	cell.Eccentricity = eccentricity(varSum)

	for id, hits := range neighborHits {
		cell.BoundaryNeighbors = append(cell.BoundaryNeighbors, BoundaryNeighbor{
			CompositionID:    id,
			BoundaryDistance: cfg.SearchRadius,
			BoundaryFraction: float64(hits) / float64(cfg.SamplesPerCell),
		})
	}
	sort.Slice(cell.BoundaryNeighbors, func(i, j int) bool {
		return cell.BoundaryNeighbors[i].BoundaryFraction > cell.BoundaryNeighbors[j].BoundaryFraction
	})
	if cfg.MaxNeighbors > 0 && len(cell.BoundaryNeighbors) > cfg.MaxNeighbors {
		cell.BoundaryNeighbors = cell.BoundaryNeighbors[:cfg.MaxNeighbors]
	}

	return cell, nil
}

// loadNeighborhood resolves every composition whose Hilbert index falls
// within a window around center's own index, then exact-filters to those
// genuinely within radius of its centroid — adapted to this store's
// Hilbert-range-scan substitute for a true radius query.
func (e *Engine) loadNeighborhood(ctx context.Context, center *substrate.ComputedComposition, radius float64) ([]neighborhoodEntry, error) {
	if center.Physicality == nil || center.Physicality.HilbertIndex == nil {
		return nil, nil
	}

	lo, hi := hilbertWindow(center.Physicality.HilbertIndex)
	candidates, err := e.compositions.FindNearCentroid(ctx, lo, hi, 0)
	if err != nil {
		return nil, err
	}

	out := make([]neighborhoodEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.Composition.ID == center.Composition.ID || c.Physicality == nil {
			continue
		}
		if geometry.Geodesic(center.Physicality.Centroid, c.Physicality.Centroid) <= radius {
			out = append(out, neighborhoodEntry{id: c.Composition.ID, position: c.Physicality.Centroid})
		}
	}
	return out, nil
}

// hilbertWindow returns a Hilbert-index range centered on center, windowed
// by hilbertWindowShift.
func hilbertWindow(center *big.Int) (lo, hi *big.Int) {
	maxIndex := spatial.MaxIndex()

	radius := new(big.Int).Rsh(maxIndex, hilbertWindowShift)
	lo = new(big.Int).Sub(center, radius)
	if lo.Sign() < 0 {
		lo = big.NewInt(0)
	}
	hi = new(big.Int).Add(center, radius)
	upperBound := new(big.Int).Sub(maxIndex, big.NewInt(1))
	if hi.Cmp(upperBound) > 0 {
		hi = upperBound
	}
	return lo, hi
}

// tangentBasis returns three orthonormal vectors spanning the 3-D tangent
// space at center (the orthogonal complement of center in ℝ⁴), built by
// Gram-Schmidt on the standard basis.
func tangentBasis(center geometry.Point) [3]geometry.Point {
	candidates := []geometry.Point{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	var basis []geometry.Point
	for _, c := range candidates {
		v := geometry.Add(c, geometry.Scale(center, -geometry.Dot(c, center)))
		for _, b := range basis {
			v = geometry.Add(v, geometry.Scale(b, -geometry.Dot(v, b)))
		}
		n := geometry.Norm(v)
		if n < 1e-9 {
			continue
		}
		v = geometry.Scale(v, 1/n)
		basis = append(basis, v)
		if len(basis) == 3 {
			break
		}
	}
	var out [3]geometry.Point
	copy(out[:], basis)
	return out
}

// sampleNear draws a uniformly random point within geodesic distance radius
// of center: a random direction in the tangent space (via three independent
// Gaussian coordinates, normalized — the standard technique for a uniform
// direction) combined with a random angle in [0, radius].
func sampleNear(center geometry.Point, radius float64, basis [3]geometry.Point, rng *rand.Rand) geometry.Point {
	var dir geometry.Point
	for _, b := range basis {
		dir = geometry.Add(dir, geometry.Scale(b, rng.NormFloat64()))
	}
	dir = geometry.Normalize(dir)

	theta := radius * rng.Float64()
	return geometry.Add(geometry.Scale(center, math.Cos(theta)), geometry.Scale(dir, math.Sin(theta)))
}

// eccentricity derives a 0 (round) to ~1 (elongated) shape measure from the
// per-axis sum-of-squares of assigned samples' tangent-space offsets: the
// ratio of the least to the most spread-out axis, inverted. This is an
// approximation in the fixed Gram-Schmidt basis tangentBasis builds rather
// than a rotation-invariant principal-axis decomposition — consistent with
// the rest of this estimator's Monte Carlo approximations.
func eccentricity(varSum [3]float64) float64 {
	min, max := varSum[0], varSum[0]
	for _, v := range varSum[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return 0
	}
	return 1 - min/max
}
