package ucd

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// scriptIDs assigns a stable, first-seen-order integer id to each script
// name, used as the secondary sort key in BuildTotalOrder. Scripts are
// assigned ids in the order encountered rather than alphabetically — the
// resulting order is still deterministic given the same input map
// iteration order produced by BuildTotalOrder's own pre-sort-by-codepoint
// pass below.
type scriptIDs struct {
	ids map[string]uint32
}

func newScriptIDs() *scriptIDs {
	return &scriptIDs{ids: make(map[string]uint32)}
}

func (s *scriptIDs) of(script string) uint32 {
	if script == "" {
		return 999
	}
	if id, ok := s.ids[script]; ok {
		return id
	}
	id := uint32(len(s.ids))
	s.ids[script] = id
	return id
}

// AssignBaseCodepoints fills in m.BaseCodepoint for every entry in metas: the
// first codepoint of the NFD canonical decomposition, or the codepoint
// itself if it does not decompose ( rule 5; // confusables-aware normalization root).
func AssignBaseCodepoints(metas map[uint32]*Metadata) {
	for cp, m := range metas {
		m.BaseCodepoint = baseCodepoint(cp)
	}
}

func baseCodepoint(cp uint32) uint32 {
	decomposed := norm.NFD.String(string(rune(cp)))
	for _, r := range decomposed {
		return uint32(r)
	}
	return cp
}

// BuildTotalOrder derives total semantic order over metas'
// keys: (primary general-category bucket, script id, UCA primary weight,
// UCA secondary weight, Han radical, Han stroke, base codepoint, codepoint)
// — each a tiebreak for the one before it, with raw codepoint value as the
// final deterministic tiebreak.
//
// The returned slice is ordered; index i of the result is codepoint i's
// sequence_index for S³ position assignment (internal/ucd.Loader).
func BuildTotalOrder(metas map[uint32]*Metadata) []*Metadata {
	ordered := make([]*Metadata, 0, len(metas))
	for _, m := range metas {
		ordered = append(ordered, m)
	}
	// Stable initial order by codepoint so the script-id assignment below is
	// deterministic across runs.
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Codepoint < ordered[j].Codepoint
	})

	scripts := newScriptIDs()
	scriptGroup := make(map[*Metadata]uint32, len(ordered))
	for _, m := range ordered {
		scriptGroup[m] = scripts.of(m.Script)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]

		if pa, pb := a.primaryGroup(), b.primaryGroup(); pa != pb {
			return pa < pb
		}
		if sa, sb := scriptGroup[a], scriptGroup[b]; sa != sb {
			return sa < sb
		}
		if a.UCA.Primary != b.UCA.Primary {
			return a.UCA.Primary < b.UCA.Primary
		}
		if a.UCA.Secondary != b.UCA.Secondary {
			return a.UCA.Secondary < b.UCA.Secondary
		}
		if a.HanRadical != b.HanRadical {
			return a.HanRadical < b.HanRadical
		}
		if a.HanStroke != b.HanStroke {
			return a.HanStroke < b.HanStroke
		}
		if a.BaseCodepoint != b.BaseCodepoint {
			return a.BaseCodepoint < b.BaseCodepoint
		}
		return a.Codepoint < b.Codepoint
	})

	for i, m := range ordered {
		m.sequenceIndex = uint32(i)
	}
	return ordered
}
