package ucd

import (
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/pkg/geometry"
)

// TotalCodepoints is N in "Assigns each codepoint index i its
// S³ position... with N = 1,114,112" — the full Unicode codespace,
// surrogates included.
const TotalCodepoints = 1114112

// Result is the output of a full UCD seeding pass: one Atom and Physicality
// per codepoint in [0, total), ordered by sequence index, plus the parsed
// metadata for codepoints the source files actually described.
type Result struct {
	Atoms         []*substrate.Atom
	Physicalities []*substrate.Physicality
	Metadata      map[uint32]*Metadata
}

// Loader drives the UCD seeding pipeline: total-order derivation (order.go)
// followed by Hopf-lifted Fibonacci position assignment (pkg/geometry) and
// Atom/Physicality construction (internal/domain/substrate).
type Loader struct {
	log logging.Logger
}

// NewLoader returns a Loader. A nil log defaults to a no-op logger.
func NewLoader(log logging.Logger) *Loader {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Loader{log: log}
}

// Seed runs the full pipeline against the real Unicode codespace size
// (TotalCodepoints): it assigns base codepoints, computes the total
// semantic order over metas, and produces an Atom + Physicality for every
// codepoint in [0, TotalCodepoints) — those present in metas at their
// semantically-sequenced position, and the rest continuing the spiral in
// raw codepoint order (unassigned codepoints are seeded with indices
// continuing the spiral).
func (l *Loader) Seed(metas map[uint32]*Metadata) (*Result, error) {
	return l.SeedWithTotal(metas, TotalCodepoints)
}

// SeedWithTotal runs the pipeline against an arbitrary codespace size total
// instead of the real TotalCodepoints. Production callers always use Seed;
// SeedWithTotal exists so tests can exercise the unassigned-codepoint
// continuation path without generating the full 1.1-million-entry result.
func (l *Loader) SeedWithTotal(metas map[uint32]*Metadata, total uint32) (*Result, error) {
	AssignBaseCodepoints(metas)
	ordered := BuildTotalOrder(metas)

	result := &Result{Metadata: metas}
	assigned := make(map[uint32]bool, len(ordered))

	for _, m := range ordered {
		assigned[m.Codepoint] = true
		pos := geometry.HopfLiftedFibonacci(int(m.sequenceIndex), int(total))
		atom, phys := substrate.NewAtom(m.Codepoint, pos)
		result.Atoms = append(result.Atoms, atom)
		result.Physicalities = append(result.Physicalities, phys)
	}

	seq := uint32(len(ordered))
	for cp := uint32(0); cp < total; cp++ {
		if assigned[cp] {
			continue
		}
		pos := geometry.HopfLiftedFibonacci(int(seq), int(total))
		atom, phys := substrate.NewAtom(cp, pos)
		result.Atoms = append(result.Atoms, atom)
		result.Physicalities = append(result.Physicalities, phys)
		seq++
	}

	l.log.Info("ucd seeding complete",
		logging.Int("assigned_codepoints", len(ordered)),
		logging.Int("total_codepoints", int(seq)),
	)

	return result, nil
}
