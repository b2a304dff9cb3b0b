// Package store defines the datastore contract for the substrate's
// content-addressed entities (Atom, Physicality, Composition, Relation).
// Implementations live under internal/infrastructure/database/postgres
// (the system of record); tests use an in-memory fake (store/storetest)
// rather than a live container. One repository interface covers the whole
// bounded context instead of one interface per aggregate root.
package store

import (
	"context"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// AtomRepository persists the fixed, seed-once codepoint identity space.
// Atoms are never updated or deleted after seeding.
type AtomRepository interface {
	// SaveBatch inserts atoms that do not already exist. Re-seeding is
	// idempotent: an Atom with an ID already present is left untouched.
	SaveBatch(ctx context.Context, atoms []*substrate.Atom) error

	// FindByCodepoint returns errors.CodeCodepointNotSeeded if no Atom has
	// been seeded for the given codepoint.
	FindByCodepoint(ctx context.Context, codepoint uint32) (*substrate.Atom, error)

	// FindByCodepoints resolves many codepoints in a single round trip.
	// Codepoints absent from the result are not seeded; callers must treat
	// a missing key as errors.CodeCodepointNotSeeded.
	FindByCodepoints(ctx context.Context, codepoints []uint32) (map[uint32]*substrate.Atom, error)

	// LoadAll streams every seeded Atom, for AtomStore.PreloadAll's
	// full-cache warm: a microsecond lookup with no per-request query.
	LoadAll(ctx context.Context) (map[uint32]*substrate.Atom, error)

	// Count returns the number of seeded atoms, used to decide whether
	// seeding has already run (re-seeding is idempotent).
	Count(ctx context.Context) (int64, error)
}
