package substrate

import (
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/hash"
	"github.com/hartonomous/substrate/pkg/spatial"
)

// Composition is the identity of an ordered sequence of Atoms — a word, a
// sentence, a tensor serialized as a sequence of quantized weights.
type Composition struct {
	ID            ID
	PhysicalityID ID
}

// CompositionSequence is one run-length-encoded entry in a Composition's
// atom sequence: (composition_id, atom_id, ordinal, occurrences). ordinal is
// the position of the first atom in the run; occurrences is the run length.
// Reconstructing the sequence in ordinal order yields the original atom
// stream.
type CompositionSequence struct {
	ID            ID
	CompositionID ID
	AtomID        ID
	Ordinal       uint32
	Occurrences   uint32
}

// ComputedComposition is the full output of NewComposition: the Composition
// aggregate, its Physicality, and the run-length-encoded sequence records
// that reconstruct it.
type ComputedComposition struct {
	Composition *Composition
	Physicality *Physicality
	Sequence    []CompositionSequence
}

// NewComposition derives a Composition's identity, centroid, trajectory,
// Hilbert index, and run-length sequence records from an already
// atom-resolved sequence: atomIDs[i] and positions[i] are the Atom id and S³
// seed position for the i-th codepoint of the source text (
// steps 2–8; steps 1–2, UTF-8 decode and atom lookup, are the caller's
// responsibility — see internal/substrate.SubstrateService.ComputeComposition).
//
// NewComposition returns errors.CodeInvalidComposition if atomIDs is empty,
// matching "Empty input to compute_composition yields 'invalid'
// with no records emitted."
func NewComposition(atomIDs []ID, positions []geometry.Point) (*ComputedComposition, error) {
	if len(atomIDs) == 0 {
		return nil, errors.New(errors.CodeInvalidComposition, "composition requires at least one atom")
	}
	if len(atomIDs) != len(positions) {
		return nil, errors.New(errors.CodeInvalidComposition, "atomIDs and positions length mismatch")
	}

	id := compositionWireHash(atomIDs)
	centroid := geometry.Centroid(positions...)
	phys := newPhysicality(centroid, positions, spatial.CompositionOrRelation)

	comp := &Composition{
		ID:            id,
		PhysicalityID: phys.ID,
	}

	sequence := buildCompositionSequence(id, atomIDs)

	return &ComputedComposition{
		Composition: comp,
		Physicality: phys,
		Sequence:    sequence,
	}, nil
}

// compositionWireHash computes H(0x43 ‖ atom_id₁ ‖ … ‖ atom_idₙ).
func compositionWireHash(atomIDs []ID) ID {
	s := hash.NewStreamer()
	s.Write([]byte{hash.TagComposition})
	for _, a := range atomIDs {
		s.Write(a[:])
	}
	return s.Finalize()
}

// buildCompositionSequence walks atomIDs left-to-right, emitting one record
// per run of identical atoms. Each record's own id is
// H(0x53 ‖ comp_id ‖ atom_id ‖ u32_le(ordinal)).
func buildCompositionSequence(compositionID ID, atomIDs []ID) []CompositionSequence {
	out := make([]CompositionSequence, 0, len(atomIDs))

	i := 0
	for i < len(atomIDs) {
		run := atomIDs[i]
		ordinal := uint32(i)
		occurrences := uint32(1)
		j := i + 1
		for j < len(atomIDs) && atomIDs[j] == run {
			occurrences++
			j++
		}

		recID := compositionSequenceWireHash(compositionID, run, ordinal)
		out = append(out, CompositionSequence{
			ID:            recID,
			CompositionID: compositionID,
			AtomID:        run,
			Ordinal:       ordinal,
			Occurrences:   occurrences,
		})
		i = j
	}

	return out
}

// compositionSequenceWireHash computes
// H(0x53 ‖ comp_id ‖ atom_id ‖ u32_le(ordinal)), 
func compositionSequenceWireHash(compositionID, atomID ID, ordinal uint32) ID {
	s := hash.NewStreamer()
	s.Write([]byte{hash.TagCompositionSeq})
	s.Write(compositionID[:])
	s.Write(atomID[:])
	writeUint32LE(s, ordinal)
	return s.Finalize()
}
