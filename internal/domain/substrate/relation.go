package substrate

import (
	"math"

	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/hash"
	"github.com/hartonomous/substrate/pkg/spatial"
)

// defaultEloRating and defaultKFactor are the ELO defaults for a
// freshly-observed relation.
const (
	defaultEloRating = 1500.0
	defaultKFactor   = 32.0
)

// Relation is the identity of an ordered pair of Compositions, canonicalized
// so that the byte-lexicographically smaller composition id is first.
// Canonicalization makes the identity invariant under argument
// order: Relation(A,B).ID == Relation(B,A).ID.
type Relation struct {
	ID            ID
	PhysicalityID ID
}

// RelationSequence is one of the two ordinal entries (0 → first, 1 →
// second) recording which Composition occupies each canonical slot of a
// Relation.
type RelationSequence struct {
	ID            ID
	RelationID    ID
	CompositionID ID
	Ordinal       uint32
}

// RelationRating is the single mutable ELO-style confidence record every
// Relation carries. Observations and Rating are the only fields in the
// entire substrate data model that mutate after creation (
// Lifecycle invariant).
type RelationRating struct {
	RelationID   ID
	Observations uint64
	Rating       float64
	KFactor      float64
}

// RelationEvidence is a witness record linking a content source to a
// relation observation. Its id deduplicates on (content_id, relation_id);
// repeated evidence for the same pair is coalesced by taking the maximum
// SignalStrength.
type RelationEvidence struct {
	ID             ID
	ContentID      ID
	RelationID     ID
	IsValid        bool
	SourceRating   float64
	SignalStrength float64
}

// ComputedRelation is the full output of NewRelation: the Relation
// aggregate, its Physicality, both ordinal sequence records, the initial
// rating, and the evidence record contributed by the originating content.
type ComputedRelation struct {
	Relation    *Relation
	Physicality *Physicality
	Sequence    [2]RelationSequence
	Rating      *RelationRating
	Evidence    *RelationEvidence
}

// NewRelation derives a Relation's identity, centroid, 2-point trajectory,
// rating, and evidence from an unordered pair of already-computed
// Compositions and the content that observed their relationship.
//
// Returns errors.CodeInvalidRelation when a.Composition.ID == b.Composition.ID.
func NewRelation(a, b *ComputedComposition, contentID ID, baseRating float64) (*ComputedRelation, error) {
	if a.Composition.ID == b.Composition.ID {
		return nil, errors.New(errors.CodeInvalidRelation, "relation requires two distinct compositions")
	}
	if baseRating == 0 {
		baseRating = defaultEloRating
	}

	first, second := a, b
	if !first.Composition.ID.Less(second.Composition.ID) {
		first, second = second, first
	}

	id := relationWireHash(first.Composition.ID, second.Composition.ID)
	centroid := geometry.Centroid(first.Physicality.Centroid, second.Physicality.Centroid)
	trajectory := []geometry.Point{first.Physicality.Centroid, second.Physicality.Centroid}
	phys := newPhysicality(centroid, trajectory, spatial.CompositionOrRelation)

	rel := &Relation{ID: id, PhysicalityID: phys.ID}

	seq := [2]RelationSequence{
		{
			ID:            relationSequenceWireHash(id, first.Composition.ID, 0),
			RelationID:    id,
			CompositionID: first.Composition.ID,
			Ordinal:       0,
		},
		{
			ID:            relationSequenceWireHash(id, second.Composition.ID, 1),
			RelationID:    id,
			CompositionID: second.Composition.ID,
			Ordinal:       1,
		},
	}

	rating := &RelationRating{
		RelationID:   id,
		Observations: 1,
		Rating:       baseRating,
		KFactor:      defaultKFactor,
	}

	evidence := &RelationEvidence{
		ID:             evidenceWireHash(contentID, id),
		ContentID:      contentID,
		RelationID:     id,
		IsValid:        true,
		SourceRating:   baseRating,
		SignalStrength: 1.0,
	}

	return &ComputedRelation{
		Relation:    rel,
		Physicality: phys,
		Sequence:    seq,
		Rating:      rating,
		Evidence:    evidence,
	}, nil
}

// relationWireHash computes H(0x52 ‖ min_id ‖ max_id). Callers
// must pass ids already in canonical (byte-lexicographically ascending) order.
func relationWireHash(minID, maxID ID) ID {
	s := hash.NewStreamer()
	s.Write([]byte{hash.TagRelation})
	s.Write(minID[:])
	s.Write(maxID[:])
	return s.Finalize()
}

// relationSequenceWireHash computes
// H(0x54 ‖ rel_id ‖ comp_id ‖ u32_le(ordinal)), 
func relationSequenceWireHash(relationID, compositionID ID, ordinal uint32) ID {
	s := hash.NewStreamer()
	s.Write([]byte{hash.TagRelationSeq})
	s.Write(relationID[:])
	s.Write(compositionID[:])
	writeUint32LE(s, ordinal)
	return s.Finalize()
}

// evidenceWireHash computes the evidence id: content_id ‖ relation_id, with
// no tag byte (32 bytes input).
func evidenceWireHash(contentID, relationID ID) ID {
	return hash.Concat(contentID[:], relationID[:])
}

// ApplyObservation folds a new observation into r using the standard ELO
// update with the rating's stored K-factor: Rating += K·(actual − expected),
// where actual is signalStrength and expected = 1/(1+10^((1500−Rating)/400))
// scores the current rating against the 1500 baseline. Repeated evidence with
// signalStrength 1.0 keeps raising the rating in shrinking steps; repeated
// evidence with signalStrength 0.0 keeps lowering it. Observations is
// incremented unconditionally.
func (r *RelationRating) ApplyObservation(signalStrength float64) {
	r.Observations++
	expected := 1 / (1 + math.Pow(10, (1500-r.Rating)/400))
	r.Rating += r.KFactor * (signalStrength - expected)
}

// CoalesceEvidence merges incoming into existing per dedup rule
// for (content_id, relation_id): the maximum SignalStrength wins. existing is
// mutated in place and returned for call-site chaining.
func CoalesceEvidence(existing, incoming *RelationEvidence) *RelationEvidence {
	if incoming.SignalStrength > existing.SignalStrength {
		existing.SignalStrength = incoming.SignalStrength
	}
	existing.IsValid = existing.IsValid || incoming.IsValid
	return existing
}
