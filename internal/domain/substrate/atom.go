package substrate

import (
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/hash"
	"github.com/hartonomous/substrate/pkg/spatial"
)

// Atom is the identity of a single Unicode codepoint. The full
// 1,114,112-codepoint space is created once, at system seed, by
// internal/ucd; Atoms are immutable thereafter.
type Atom struct {
	ID            ID
	Codepoint     uint32
	PhysicalityID ID
}

// NewAtom derives an Atom's identity and its Physicality from a codepoint and
// its pre-assigned S³ seed position (internal/ucd's Hopf-lifted Fibonacci
// lattice assignment, ). The Atom's physicality carries no
// trajectory — its centroid *is* the seed position.
//
// id = H(0x41 ‖ u32_le(codepoint)), matching hash.Codepoint exactly.
func NewAtom(codepoint uint32, position geometry.Point) (*Atom, *Physicality) {
	id := hash.Codepoint(codepoint)
	phys := newPhysicality(position, nil, spatial.Atom)

	return &Atom{
		ID:            id,
		Codepoint:     codepoint,
		PhysicalityID: phys.ID,
	}, phys
}
