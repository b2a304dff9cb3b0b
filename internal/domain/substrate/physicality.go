package substrate

import (
	"math/big"

	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/hash"
	"github.com/hartonomous/substrate/pkg/spatial"
)

// maxTrajectoryPoints is the decimation cap: a trajectory is reduced to
// at most 16 points by uniform sub-sampling.
const maxTrajectoryPoints = 16

// Physicality is the geometric embedding shared by every entity kind: a
// centroid on S³, an optional decimated trajectory of the positions it was
// derived from, and a locality-preserving Hilbert (Morton-order) index over
// the centroid.
type Physicality struct {
	ID           ID
	Centroid     geometry.Point
	Trajectory   []geometry.Point
	HilbertIndex *big.Int
}

// decimateTrajectory reduces pts to at most maxTrajectoryPoints entries by
// uniform sub-sampling: index i (0..15) selects pts[⌊i·(n-1)/15⌋],
// guaranteeing both endpoints are always included.
//
// Trajectories of length <= maxTrajectoryPoints pass through unchanged.
func decimateTrajectory(pts []geometry.Point) []geometry.Point {
	n := len(pts)
	if n <= maxTrajectoryPoints {
		out := make([]geometry.Point, n)
		copy(out, pts)
		return out
	}

	out := make([]geometry.Point, maxTrajectoryPoints)
	for i := 0; i < maxTrajectoryPoints; i++ {
		idx := (i * (n - 1)) / (maxTrajectoryPoints - 1)
		out[i] = pts[idx]
	}
	return out
}

// newPhysicality derives a Physicality's identity and Hilbert index from a
// centroid and (pre-decimation) trajectory. kind selects the ENTITY_TYPE
// parity bit the Hilbert index encodes.
func newPhysicality(centroid geometry.Point, trajectory []geometry.Point, kind spatial.EntityType) *Physicality {
	decimated := decimateTrajectory(trajectory)

	s := hash.NewStreamer()
	s.Write([]byte{hash.TagPhysicality})
	writeFloat64LE(s, centroid[:]...)
	for _, p := range decimated {
		writeFloat64LE(s, p[:]...)
	}
	id := s.Finalize()

	return &Physicality{
		ID:           id,
		Centroid:     centroid,
		Trajectory:   decimated,
		HilbertIndex: spatial.HilbertIndex(centroid, kind),
	}
}
