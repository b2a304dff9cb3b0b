package storetest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/store/storetest"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
)

func TestFake_AtomRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()

	atom, phys := substrate.NewAtom(65, geometry.Point{1, 0, 0, 0})
	require.NoError(t, s.Atoms().SaveBatch(ctx, []*substrate.Atom{atom}))
	require.NoError(t, s.Physicalities().SaveBatch(ctx, []*substrate.Physicality{phys}))

	got, err := s.Atoms().FindByCodepoint(ctx, 65)
	require.NoError(t, err)
	assert.Equal(t, atom.ID, got.ID)

	_, err = s.Atoms().FindByCodepoint(ctx, 66)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeCodepointNotSeeded))
}

func TestFake_AtomBatchLookupOmitsMissing(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()

	a1, _ := substrate.NewAtom(65, geometry.Point{1, 0, 0, 0})
	require.NoError(t, s.Atoms().SaveBatch(ctx, []*substrate.Atom{a1}))

	found, err := s.Atoms().FindByCodepoints(ctx, []uint32{65, 999})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	_, ok := found[999]
	assert.False(t, ok)
}

func TestFake_WithTxRunsAgainstSameStore(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()

	err := s.WithTx(ctx, func(tx store.Store) error {
		atom, _ := substrate.NewAtom(65, geometry.Point{1, 0, 0, 0})
		return tx.Atoms().SaveBatch(ctx, []*substrate.Atom{atom})
	})
	require.NoError(t, err)

	count, err := s.Atoms().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFake_RelationEvidenceCoalescesOnMaxSignalStrength(t *testing.T) {
	ctx := context.Background()
	s := storetest.New()

	a1, p1 := substrate.NewAtom(65, geometry.Point{1, 0, 0, 0})
	a2, p2 := substrate.NewAtom(97, geometry.Point{0, 1, 0, 0})
	require.NoError(t, s.Atoms().SaveBatch(ctx, []*substrate.Atom{a1, a2}))
	require.NoError(t, s.Physicalities().SaveBatch(ctx, []*substrate.Physicality{p1, p2}))

	compA, err := substrate.NewComposition([]substrate.ID{a1.ID}, []geometry.Point{p1.Centroid})
	require.NoError(t, err)
	compB, err := substrate.NewComposition([]substrate.ID{a2.ID}, []geometry.Point{p2.Centroid})
	require.NoError(t, err)
	require.NoError(t, s.Compositions().SaveComputed(ctx, []*substrate.ComputedComposition{compA, compB}))

	var contentID substrate.ID
	contentID[0] = 0x42

	rel, err := substrate.NewRelation(compA, compB, contentID, 1500)
	require.NoError(t, err)

	require.NoError(t, s.Relations().SaveComputed(ctx, rel))

	neighbors, err := s.Relations().FindNeighbors(ctx, compA.Composition.ID, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, compB.Composition.ID, neighbors[0].CompositionID)
	assert.Equal(t, rel.Rating.Rating, neighbors[0].Rating)

	weaker := *rel
	weakerEvidence := *rel.Evidence
	weakerEvidence.SignalStrength = 0.25
	weaker.Evidence = &weakerEvidence
	require.NoError(t, s.Relations().SaveComputed(ctx, &weaker))

	evidence, err := s.Relations().FindEvidence(ctx, contentID, rel.Relation.ID)
	require.NoError(t, err)
	assert.Equal(t, rel.Evidence.SignalStrength, evidence.SignalStrength)
}
