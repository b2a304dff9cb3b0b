package spatial_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/spatial"
)

func TestHilbertIndex_InRange(t *testing.T) {
	pts := geometry.SuperFibonacciSequence(100)
	max := spatial.MaxIndex()
	for _, p := range pts {
		idx := spatial.HilbertIndex(p, spatial.CompositionOrRelation)
		require.True(t, idx.Sign() >= 0)
		assert.Equal(t, -1, idx.Cmp(max))
	}
}

func TestHilbertIndex_Deterministic(t *testing.T) {
	p := geometry.Point{0.5, -0.5, 0.25, -0.25}
	a := spatial.HilbertIndex(p, spatial.Atom)
	b := spatial.HilbertIndex(p, spatial.Atom)
	assert.Equal(t, 0, a.Cmp(b))
}

func TestHilbertIndex_AtomParityBitSet(t *testing.T) {
	p := geometry.Point{0.1, 0.2, 0.3, 0.4}
	idx := spatial.HilbertIndex(p, spatial.Atom)
	assert.Equal(t, uint(1), idx.Bit(0))
}

func TestHilbertIndex_CompositionParityBitClear(t *testing.T) {
	p := geometry.Point{0.1, 0.2, 0.3, 0.4}
	idx := spatial.HilbertIndex(p, spatial.CompositionOrRelation)
	assert.Equal(t, uint(0), idx.Bit(0))
}

func TestHilbertIndex_ParityIsOnlyDifference(t *testing.T) {
	p := geometry.Point{0.1, 0.2, 0.3, 0.4}
	atomIdx := spatial.HilbertIndex(p, spatial.Atom)
	compIdx := spatial.HilbertIndex(p, spatial.CompositionOrRelation)

	// Clearing the parity bit from the atom index should yield the
	// composition/relation index for the same point.
	cleared := new(big.Int).Set(atomIdx)
	cleared.SetBit(cleared, 0, 0)
	assert.Equal(t, 0, cleared.Cmp(compIdx))
}

func TestHilbertIndex_LocalityForSmallPerturbation(t *testing.T) {
	p := geometry.Point{0.3, 0.4, 0.5, 0.1}
	perturbed := p
	perturbed[0] += 1e-6

	a := spatial.HilbertIndex(p, spatial.CompositionOrRelation)
	b := spatial.HilbertIndex(perturbed, spatial.CompositionOrRelation)

	delta := new(big.Int).Sub(a, b)
	delta.Abs(delta)

	max := spatial.MaxIndex()
	// Expect the index delta to be a small fraction of the full 128-bit
	// space for a small coordinate perturbation (locality property).
	threshold := new(big.Int).Rsh(max, 40)
	assert.Equal(t, -1, delta.Cmp(threshold))
}

func TestHilbertIndex_ClampsOutOfRangeCoordinates(t *testing.T) {
	p := geometry.Point{2, -2, 10, -10}
	assert.NotPanics(t, func() {
		spatial.HilbertIndex(p, spatial.CompositionOrRelation)
	})
}

func TestHilbertIndex_DistinctPointsLikelyDistinctIndices(t *testing.T) {
	pts := geometry.SuperFibonacciSequence(200)
	seen := make(map[string]bool)
	collisions := 0
	for _, p := range pts {
		idx := spatial.HilbertIndex(p, spatial.CompositionOrRelation)
		key := idx.String()
		if seen[key] {
			collisions++
		}
		seen[key] = true
	}
	assert.Equal(t, 0, collisions)
}

func TestMaxIndex_Is2Pow128(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 128)
	assert.Equal(t, 0, want.Cmp(spatial.MaxIndex()))
}
