package ingesters_test

import (
	"context"

	domain "github.com/hartonomous/substrate/internal/domain/substrate"
	svc "github.com/hartonomous/substrate/internal/substrate"
	"github.com/hartonomous/substrate/pkg/geometry"
)

// newFullLookup resolves any codepoint to a deterministic seed position, so
// ingester tests can feed arbitrary natural-language tokens without
// pre-registering every rune, unlike internal/substrate's fixed-set fake.
func newFullLookup() svc.AtomLookup {
	return svc.AtomLookupFunc(func(ctx context.Context, codepoint uint32) (svc.AtomPosition, error) {
		var id domain.ID
		id[0] = byte(codepoint)
		id[1] = byte(codepoint >> 8)
		return svc.AtomPosition{AtomID: id, Position: geometry.SuperFibonacci(int(codepoint), 5000)}, nil
	})
}
