// Package atomstore implements the read-side cache in front of the
// seeded Atom/Physicality space: single-codepoint lookup, batch lookup,
// and a full preload, backed by store.AtomRepository/PhysicalityRepository.
package atomstore

import (
	"context"
	"math/big"
	"sync"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
)

// AtomInfo is the denormalized, lookup-ready view of a codepoint: its Atom
// and Physicality identity together with the S³ centroid and Hilbert index
// that SubstrateService and the reasoning engines read on the hot path.
type AtomInfo struct {
	AtomID        substrate.ID
	PhysicalityID substrate.ID
	Codepoint     uint32
	Centroid      geometry.Point
	HilbertIndex  *big.Int
}

// Lookup is the read contract internal/substrate.SubstrateService and the
// ingestion ingesters depend on, letting them take a *Store in production
// and a hand-rolled stub in package-local unit tests without importing
// internal/store at all.
type Lookup interface {
	Lookup(ctx context.Context, codepoint uint32) (*AtomInfo, error)
	LookupBatch(ctx context.Context, codepoints []uint32) (map[uint32]*AtomInfo, error)
}

// Store is a read-through cache wrapping store.Store: an in-memory
// codepoint-to-AtomInfo map, a preloaded flag, and cache-then-query
// semantics on Lookup/LookupBatch. Once PreloadAll has run, the cache is
// read-only and safe to share by reference across goroutines.
type Store struct {
	backing store.Store

	mu        sync.RWMutex
	cache     map[uint32]*AtomInfo
	preloaded bool
}

var _ Lookup = (*Store)(nil)

// New wraps backing with an empty, not-yet-preloaded cache.
func New(backing store.Store) *Store {
	return &Store{
		backing: backing,
		cache:   make(map[uint32]*AtomInfo),
	}
}

// IsPreloaded reports whether PreloadAll has completed.
func (s *Store) IsPreloaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preloaded
}

// Lookup resolves a single codepoint, checking the cache first and falling
// back to a single-row store query on miss. Returns
// errors.CodeCodepointNotSeeded if the codepoint was never seeded by
// internal/ucd.
func (s *Store) Lookup(ctx context.Context, codepoint uint32) (*AtomInfo, error) {
	if info, ok := s.cached(codepoint); ok {
		return info, nil
	}
	if s.IsPreloaded() {
		// The cache is complete and read-only post-preload; a miss here is
		// a genuine "not seeded", not a cold-cache gap.
		return nil, errors.New(errors.CodeCodepointNotSeeded, "codepoint not seeded")
	}

	atom, err := s.backing.Atoms().FindByCodepoint(ctx, codepoint)
	if err != nil {
		return nil, err
	}
	phys, err := s.backing.Physicalities().FindByID(ctx, atom.PhysicalityID)
	if err != nil {
		return nil, err
	}

	info := infoFrom(atom, phys)
	s.store(codepoint, info)
	return info, nil
}

// LookupBatch resolves many codepoints in one round trip: every cache hit
// is served locally, and every miss is fetched with a single batched store
// query, partitioning cache hits from misses before issuing one query for
// the whole miss set.
func (s *Store) LookupBatch(ctx context.Context, codepoints []uint32) (map[uint32]*AtomInfo, error) {
	out := make(map[uint32]*AtomInfo, len(codepoints))

	var missing []uint32
	for _, cp := range codepoints {
		if info, ok := s.cached(cp); ok {
			out[cp] = info
		} else if !s.IsPreloaded() {
			missing = append(missing, cp)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	atoms, err := s.backing.Atoms().FindByCodepoints(ctx, missing)
	if err != nil {
		return nil, err
	}

	physIDs := make([]substrate.ID, 0, len(atoms))
	for _, a := range atoms {
		physIDs = append(physIDs, a.PhysicalityID)
	}
	physicalities, err := s.backing.Physicalities().FindByIDs(ctx, physIDs)
	if err != nil {
		return nil, err
	}

	for cp, atom := range atoms {
		phys, ok := physicalities[atom.PhysicalityID]
		if !ok {
			continue
		}
		info := infoFrom(atom, phys)
		s.store(cp, info)
		out[cp] = info
	}

	return out, nil
}

// PreloadAll streams every seeded Atom into the cache and marks it
// preloaded: caches all 1.1M atoms into memory (~200 MB) for microsecond
// lookup during ingestion, rather than per-request store queries.
func (s *Store) PreloadAll(ctx context.Context) error {
	atoms, err := s.backing.Atoms().LoadAll(ctx)
	if err != nil {
		return err
	}

	physIDs := make([]substrate.ID, 0, len(atoms))
	for _, a := range atoms {
		physIDs = append(physIDs, a.PhysicalityID)
	}
	physicalities, err := s.backing.Physicalities().FindByIDs(ctx, physIDs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for cp, atom := range atoms {
		phys, ok := physicalities[atom.PhysicalityID]
		if !ok {
			continue
		}
		s.cache[cp] = infoFrom(atom, phys)
	}
	s.preloaded = true
	return nil
}

func (s *Store) cached(codepoint uint32) (*AtomInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.cache[codepoint]
	return info, ok
}

func (s *Store) store(codepoint uint32, info *AtomInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[codepoint] = info
}

func infoFrom(atom *substrate.Atom, phys *substrate.Physicality) *AtomInfo {
	return &AtomInfo{
		AtomID:        atom.ID,
		PhysicalityID: atom.PhysicalityID,
		Codepoint:     atom.Codepoint,
		Centroid:      phys.Centroid,
		HilbertIndex:  phys.HilbertIndex,
	}
}
