// Package storetest provides an in-memory store.Store fake for exercising
// internal/atomstore and internal/ingestion/flusher without a live
// Postgres container.
package storetest

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/errors"
)

// Fake is a single process-local, mutex-guarded implementation of
// store.Store. WithTx has no rollback semantics — callers are trusted not
// to need failure-path isolation in tests exercising the fake directly.
type Fake struct {
	mu sync.Mutex

	atoms         map[uint32]*substrate.Atom
	physicalities map[substrate.ID]*substrate.Physicality
	compositions  map[substrate.ID]*substrate.ComputedComposition
	relations     map[substrate.ID]*substrate.ComputedRelation
	evidence      map[[2]substrate.ID]*substrate.RelationEvidence

	// relationsByComposition indexes every RelationSequence's
	// CompositionID to its owning RelationID, for FindNeighbors.
	relationsByComposition map[substrate.ID][]substrate.ID
}

// New returns an empty Fake, ready to use as a store.Store.
func New() *Fake {
	return &Fake{
		atoms:                   make(map[uint32]*substrate.Atom),
		physicalities:           make(map[substrate.ID]*substrate.Physicality),
		compositions:            make(map[substrate.ID]*substrate.ComputedComposition),
		relations:               make(map[substrate.ID]*substrate.ComputedRelation),
		evidence:                make(map[[2]substrate.ID]*substrate.RelationEvidence),
		relationsByComposition:  make(map[substrate.ID][]substrate.ID),
	}
}

var _ store.Store = (*Fake)(nil)

func (f *Fake) Atoms() store.AtomRepository                 { return (*fakeAtoms)(f) }
func (f *Fake) Physicalities() store.PhysicalityRepository   { return (*fakePhysicalities)(f) }
func (f *Fake) Compositions() store.CompositionRepository    { return (*fakeCompositions)(f) }
func (f *Fake) Relations() store.RelationRepository          { return (*fakeRelations)(f) }

func (f *Fake) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(f)
}

type fakeAtoms Fake

func (f *fakeAtoms) SaveBatch(ctx context.Context, atoms []*substrate.Atom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range atoms {
		if _, exists := f.atoms[a.Codepoint]; !exists {
			f.atoms[a.Codepoint] = a
		}
	}
	return nil
}

func (f *fakeAtoms) FindByCodepoint(ctx context.Context, codepoint uint32) (*substrate.Atom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.atoms[codepoint]
	if !ok {
		return nil, errors.New(errors.CodeCodepointNotSeeded, "codepoint not seeded")
	}
	return a, nil
}

func (f *fakeAtoms) FindByCodepoints(ctx context.Context, codepoints []uint32) (map[uint32]*substrate.Atom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint32]*substrate.Atom, len(codepoints))
	for _, cp := range codepoints {
		if a, ok := f.atoms[cp]; ok {
			out[cp] = a
		}
	}
	return out, nil
}

func (f *fakeAtoms) LoadAll(ctx context.Context) (map[uint32]*substrate.Atom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint32]*substrate.Atom, len(f.atoms))
	for cp, a := range f.atoms {
		out[cp] = a
	}
	return out, nil
}

func (f *fakeAtoms) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.atoms)), nil
}

type fakePhysicalities Fake

func (f *fakePhysicalities) SaveBatch(ctx context.Context, physicalities []*substrate.Physicality) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range physicalities {
		if _, exists := f.physicalities[p.ID]; !exists {
			f.physicalities[p.ID] = p
		}
	}
	return nil
}

func (f *fakePhysicalities) FindByID(ctx context.Context, id substrate.ID) (*substrate.Physicality, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.physicalities[id]
	if !ok {
		return nil, errors.NotFound("physicality not found")
	}
	return p, nil
}

func (f *fakePhysicalities) FindByIDs(ctx context.Context, ids []substrate.ID) (map[substrate.ID]*substrate.Physicality, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[substrate.ID]*substrate.Physicality, len(ids))
	for _, id := range ids {
		if p, ok := f.physicalities[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakePhysicalities) FindNearCentroid(ctx context.Context, loIndex, hiIndex *big.Int, limit int) ([]*substrate.Physicality, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*substrate.Physicality
	for _, p := range f.physicalities {
		if p.HilbertIndex == nil {
			continue
		}
		if p.HilbertIndex.Cmp(loIndex) >= 0 && p.HilbertIndex.Cmp(hiIndex) <= 0 {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type fakeCompositions Fake

func (f *fakeCompositions) SaveComputed(ctx context.Context, computed []*substrate.ComputedComposition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range computed {
		if _, exists := f.compositions[c.Composition.ID]; !exists {
			f.compositions[c.Composition.ID] = c
		}
	}
	return nil
}

func (f *fakeCompositions) FindByID(ctx context.Context, id substrate.ID) (*substrate.ComputedComposition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.compositions[id]
	if !ok {
		return nil, errors.NotFound("composition not found")
	}
	return c, nil
}

func (f *fakeCompositions) Exists(ctx context.Context, ids []substrate.ID) (map[substrate.ID]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[substrate.ID]bool, len(ids))
	for _, id := range ids {
		_, out[id] = f.compositions[id]
	}
	return out, nil
}

func (f *fakeCompositions) FindNearCentroid(ctx context.Context, loIndex, hiIndex *big.Int, limit int) ([]*substrate.ComputedComposition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*substrate.ComputedComposition
	for _, c := range f.compositions {
		if c.Physicality == nil || c.Physicality.HilbertIndex == nil {
			continue
		}
		if c.Physicality.HilbertIndex.Cmp(loIndex) >= 0 && c.Physicality.HilbertIndex.Cmp(hiIndex) <= 0 {
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type fakeRelations Fake

func (f *fakeRelations) SaveComputed(ctx context.Context, computed *substrate.ComputedRelation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	relID := computed.Relation.ID
	if _, exists := f.relations[relID]; !exists {
		f.relations[relID] = computed
		for _, seq := range computed.Sequence {
			f.relationsByComposition[seq.CompositionID] = append(f.relationsByComposition[seq.CompositionID], relID)
		}
	}

	key := [2]substrate.ID{computed.Evidence.ContentID, relID}
	if existing, ok := f.evidence[key]; !ok || computed.Evidence.SignalStrength > existing.SignalStrength {
		f.evidence[key] = computed.Evidence
	}
	return nil
}

func (f *fakeRelations) FindByID(ctx context.Context, id substrate.ID) (*substrate.Relation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.relations[id]
	if !ok {
		return nil, errors.NotFound("relation not found")
	}
	return r.Relation, nil
}

func (f *fakeRelations) FindRating(ctx context.Context, relationID substrate.ID) (*substrate.RelationRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.relations[relationID]
	if !ok {
		return nil, errors.NotFound("relation not found")
	}
	return r.Rating, nil
}

func (f *fakeRelations) ApplyObservation(ctx context.Context, relationID substrate.ID, newRating, newKFactor float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.relations[relationID]
	if !ok {
		return errors.NotFound("relation not found")
	}
	r.Rating.Observations++
	r.Rating.Rating = newRating
	r.Rating.KFactor = newKFactor
	return nil
}

func (f *fakeRelations) FindEvidence(ctx context.Context, contentID, relationID substrate.ID) (*substrate.RelationEvidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.evidence[[2]substrate.ID{contentID, relationID}]
	if !ok {
		return nil, errors.NotFound("evidence not found")
	}
	return e, nil
}

func (f *fakeRelations) FindNeighbors(ctx context.Context, compositionID substrate.ID, minElo float64, minObservations uint64, limit int) ([]store.RelationNeighbor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	agg := make(map[substrate.ID]*store.RelationNeighbor)
	for _, relID := range f.relationsByComposition[compositionID] {
		r, ok := f.relations[relID]
		if !ok {
			continue
		}
		for _, seq := range r.Sequence {
			if seq.CompositionID == compositionID {
				continue
			}
			n, ok := agg[seq.CompositionID]
			if !ok {
				comp, ok := f.compositions[seq.CompositionID]
				if !ok {
					continue
				}
				n = &store.RelationNeighbor{
					CompositionID: seq.CompositionID,
					PhysicalityID: comp.Composition.PhysicalityID,
				}
				agg[seq.CompositionID] = n
			}
			if r.Rating.Rating > n.Rating {
				n.Rating = r.Rating.Rating
			}
			n.Observations += r.Rating.Observations
		}
	}

	var out []store.RelationNeighbor
	for _, n := range agg {
		if n.Rating < minElo || n.Observations < minObservations {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
