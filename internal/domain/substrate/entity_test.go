package substrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/hash"
)

func seedPosition(seed int) geometry.Point {
	return geometry.SuperFibonacci(seed, 1000)
}

func TestNewAtom_IdentityMatchesCodepointHash(t *testing.T) {
	atomA, physA := substrate.NewAtom(0x41, seedPosition(1))
	atomB, physB := substrate.NewAtom(0x41, seedPosition(1))

	assert.Equal(t, atomA.ID, atomB.ID, "recompute_id(e.content) == e.id")
	assert.Equal(t, hash.Codepoint(0x41), atomA.ID)
	assert.Equal(t, physA.ID, physB.ID)
}

func TestNewAtom_DistinctCodepointsDistinctIDs(t *testing.T) {
	a, _ := substrate.NewAtom(65, seedPosition(1))
	b, _ := substrate.NewAtom(66, seedPosition(2))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewAtom_PhysicalityCentroidIsSeedPosition(t *testing.T) {
	pos := seedPosition(42)
	_, phys := substrate.NewAtom(0x61, pos)
	assert.InDelta(t, pos[0], phys.Centroid[0], 1e-12)
	assert.InDelta(t, 1.0, geometry.Norm(phys.Centroid), 1e-9)
}

func TestNewComposition_EmptyIsInvalid(t *testing.T) {
	_, err := substrate.NewComposition(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidComposition))
}

func TestNewComposition_SingleCharacter(t *testing.T) {
	// Single-character ingest.
	atomA, physA := substrate.NewAtom(0x41, seedPosition(1))

	cc, err := substrate.NewComposition([]substrate.ID{atomA.ID}, []geometry.Point{physA.Centroid})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, geometry.Norm(cc.Physicality.Centroid), 1e-9)
	assert.InDelta(t, physA.Centroid[0], cc.Physicality.Centroid[0], 1e-9)

	require.Len(t, cc.Sequence, 1)
	assert.Equal(t, uint32(0), cc.Sequence[0].Ordinal)
	assert.Equal(t, uint32(1), cc.Sequence[0].Occurrences)
	assert.Equal(t, atomA.ID, cc.Sequence[0].AtomID)
}

func TestNewComposition_RunLengthEncoding(t *testing.T) {
	// "aaaa" collapses to one sequence record with occurrences=4.
	atomA, physA := substrate.NewAtom('a', seedPosition(3))
	atomIDs := []substrate.ID{atomA.ID, atomA.ID, atomA.ID, atomA.ID}
	positions := []geometry.Point{physA.Centroid, physA.Centroid, physA.Centroid, physA.Centroid}

	cc, err := substrate.NewComposition(atomIDs, positions)
	require.NoError(t, err)

	require.Len(t, cc.Sequence, 1)
	assert.Equal(t, uint32(0), cc.Sequence[0].Ordinal)
	assert.Equal(t, uint32(4), cc.Sequence[0].Occurrences)
}

func TestNewComposition_MixedRunsProduceMultipleRecords(t *testing.T) {
	a, physA := substrate.NewAtom('a', seedPosition(4))
	b, physB := substrate.NewAtom('b', seedPosition(5))

	atomIDs := []substrate.ID{a.ID, a.ID, b.ID, a.ID}
	positions := []geometry.Point{physA.Centroid, physA.Centroid, physB.Centroid, physA.Centroid}

	cc, err := substrate.NewComposition(atomIDs, positions)
	require.NoError(t, err)

	require.Len(t, cc.Sequence, 3)
	assert.Equal(t, uint32(0), cc.Sequence[0].Ordinal)
	assert.Equal(t, uint32(2), cc.Sequence[0].Occurrences)
	assert.Equal(t, uint32(2), cc.Sequence[1].Ordinal)
	assert.Equal(t, uint32(1), cc.Sequence[1].Occurrences)
	assert.Equal(t, uint32(3), cc.Sequence[2].Ordinal)
	assert.Equal(t, uint32(1), cc.Sequence[2].Occurrences)
}

func TestNewComposition_IdentityDeterministic(t *testing.T) {
	a, physA := substrate.NewAtom('x', seedPosition(6))
	b, physB := substrate.NewAtom('y', seedPosition(7))

	ids := []substrate.ID{a.ID, b.ID}
	pts := []geometry.Point{physA.Centroid, physB.Centroid}

	cc1, err := substrate.NewComposition(ids, pts)
	require.NoError(t, err)
	cc2, err := substrate.NewComposition(ids, pts)
	require.NoError(t, err)

	assert.Equal(t, cc1.Composition.ID, cc2.Composition.ID)
}

func buildComposition(t *testing.T, cp rune, seed int) *substrate.ComputedComposition {
	t.Helper()
	atom, phys := substrate.NewAtom(uint32(cp), seedPosition(seed))
	cc, err := substrate.NewComposition([]substrate.ID{atom.ID}, []geometry.Point{phys.Centroid})
	require.NoError(t, err)
	return cc
}

func TestNewRelation_SelfRelationIsInvalid(t *testing.T) {
	cat := buildComposition(t, 'c', 10)
	content := substrate.ID{0x01}

	_, err := substrate.NewRelation(cat, cat, content, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidRelation))
}

func TestNewRelation_ArgumentOrderInvariance(t *testing.T) {
	// Relation canonicalization.
	cat := buildComposition(t, 'C', 11)
	dog := buildComposition(t, 'D', 12)
	content := substrate.ID{0x02}

	r1, err := substrate.NewRelation(cat, dog, content, 1500)
	require.NoError(t, err)
	r2, err := substrate.NewRelation(dog, cat, content, 1500)
	require.NoError(t, err)

	assert.Equal(t, r1.Relation.ID, r2.Relation.ID)
	assert.Equal(t, r1.Physicality.ID, r2.Physicality.ID)
}

func TestNewRelation_EvidenceCoalescesOnMaxSignalStrength(t *testing.T) {
	cat := buildComposition(t, 'E', 13)
	dog := buildComposition(t, 'F', 14)
	content := substrate.ID{0x03}

	r1, err := substrate.NewRelation(cat, dog, content, 1500)
	require.NoError(t, err)
	r1.Evidence.SignalStrength = 0.4

	r2, err := substrate.NewRelation(dog, cat, content, 1500)
	require.NoError(t, err)
	r2.Evidence.SignalStrength = 0.9

	merged := substrate.CoalesceEvidence(r1.Evidence, r2.Evidence)
	assert.Equal(t, 0.9, merged.SignalStrength)

	// Merging a lower signal afterward must not regress the maximum.
	lower := &substrate.RelationEvidence{SignalStrength: 0.2}
	merged = substrate.CoalesceEvidence(merged, lower)
	assert.Equal(t, 0.9, merged.SignalStrength)
}

func TestNewRelation_PhysicalityCentroidIsUnitLength(t *testing.T) {
	cat := buildComposition(t, 'G', 15)
	dog := buildComposition(t, 'H', 16)
	content := substrate.ID{0x04}

	rel, err := substrate.NewRelation(cat, dog, content, 1500)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, geometry.Norm(rel.Physicality.Centroid), 1e-9)
}

func TestNewRelation_DefaultRatingAndKFactor(t *testing.T) {
	cat := buildComposition(t, 'I', 17)
	dog := buildComposition(t, 'J', 18)
	content := substrate.ID{0x05}

	rel, err := substrate.NewRelation(cat, dog, content, 0)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, rel.Rating.Rating)
	assert.Equal(t, 32.0, rel.Rating.KFactor)
	assert.Equal(t, uint64(1), rel.Rating.Observations)
}

func TestRelationRating_ApplyObservationIncrementsObservations(t *testing.T) {
	rating := &substrate.RelationRating{Rating: 1500, KFactor: 32, Observations: 1}
	rating.ApplyObservation(1.0)
	assert.Equal(t, uint64(2), rating.Observations)
	assert.Greater(t, rating.Rating, 1500.0)
}
