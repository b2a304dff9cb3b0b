// Package substrate implements the content-addressed entity model at the
// core of the semantic substrate: Atom, Composition, Relation, and
// Physicality. Every identity here is a pure function of
// content — there is no audit-tracked CRUD lifecycle, no tenant scoping, and
// no soft-delete; entities are created once and, aside from RelationRating
// and RelationEvidence, never mutated.
package substrate

import "github.com/hartonomous/substrate/pkg/hash"

// ID is the substrate's identity type: a 128-bit content hash, identical in
// representation for every entity kind (Atom, Composition, Relation,
// Physicality). ID is always the deterministic output of pkg/hash applied
// to an entity's tagged content bytes, never a randomly-assigned value.
type ID = hash.Digest
