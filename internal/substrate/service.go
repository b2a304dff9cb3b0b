// Package substrate implements the stateless, thread-safe hot path every
// ingester calls: UTF-8 decode plus atom lookup (the two steps that need a
// live AtomLookup), delegating the rest of each operation to
// internal/domain/substrate's pure functions.
package substrate

import (
	"context"
	"unicode/utf8"

	domain "github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
)

// AtomLookup is the minimal per-codepoint resolver ComputeComposition
// depends on: an Atom's identity and its seed S³ position. internal/atomstore
// does not implement this directly (AtomInfo carries more fields than
// AtomPosition); callers adapt it with AtomLookupFunc at the wiring site,
// e.g. `substrate.AtomLookupFunc(func(ctx, cp) (substrate.AtomPosition,
// error) { info, err := store.Lookup(ctx, cp); ... })`.
type AtomLookup interface {
	Lookup(ctx context.Context, codepoint uint32) (AtomPosition, error)
}

// AtomPosition is the minimal per-codepoint data compute_composition needs:
// an Atom's identity and its seed S³ position.
type AtomPosition struct {
	AtomID   domain.ID
	Position geometry.Point
}

// AtomLookupFunc adapts a plain function to AtomLookup.
type AtomLookupFunc func(ctx context.Context, codepoint uint32) (AtomPosition, error)

func (f AtomLookupFunc) Lookup(ctx context.Context, codepoint uint32) (AtomPosition, error) {
	return f(ctx, codepoint)
}

// Service is SubstrateService. It holds no mutable state beyond an
// AtomLookup reference and is safe for concurrent use by every ingester
// worker ("Stateless, thread-safe").
type Service struct {
	lookup AtomLookup
}

// New returns a Service backed by lookup.
func New(lookup AtomLookup) *Service {
	return &Service{lookup: lookup}
}

// ComputeComposition decodes textUTF8 to codepoints (malformed bytes
// skipped, mirroring Go's utf8.DecodeRuneInString behavior of substituting
// utf8.RuneError and advancing one byte), resolves each codepoint's
// pre-seeded Atom via the AtomLookup, and delegates identity/geometry/
// sequence derivation to domain.NewComposition.
//
// Empty input (or input that decodes to nothing) returns
// errors.CodeInvalidComposition, matching domain.NewComposition's own
// empty-input behavior.
func (s *Service) ComputeComposition(ctx context.Context, textUTF8 string) (*domain.ComputedComposition, error) {
	codepoints := decodeCodepoints(textUTF8)
	if len(codepoints) == 0 {
		return nil, errors.New(errors.CodeInvalidComposition, "composition requires at least one atom")
	}

	atomIDs := make([]domain.ID, len(codepoints))
	positions := make([]geometry.Point, len(codepoints))
	for i, cp := range codepoints {
		info, err := s.lookup.Lookup(ctx, cp)
		if err != nil {
			return nil, err
		}
		atomIDs[i] = info.AtomID
		positions[i] = info.Position
	}

	return domain.NewComposition(atomIDs, positions)
}

// ComputeRelation delegates directly to domain.NewRelation: canonicalization,
// centroid, trajectory, rating, and evidence derivation are pure functions of
// the two already-computed Compositions, needing no lookup.
func (s *Service) ComputeRelation(a, b *domain.ComputedComposition, contentID domain.ID, baseRating float64) (*domain.ComputedRelation, error) {
	return domain.NewRelation(a, b, contentID, baseRating)
}

// decodeCodepoints walks textUTF8 byte-by-byte via utf8.DecodeRuneInString,
// skipping malformed sequences rather than emitting them as U+FFFD atoms.
// A genuine, validly encoded U+FFFD character (width 3) is kept; only the
// decoder's width-1 RuneError sentinel for invalid input is dropped.
func decodeCodepoints(textUTF8 string) []uint32 {
	out := make([]uint32, 0, len(textUTF8))
	for i := 0; i < len(textUTF8); {
		r, size := utf8.DecodeRuneInString(textUTF8[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		out = append(out, uint32(r))
		i += size
	}
	return out
}
