// Package ucd parses the Unicode Character Database and derives the total
// semantic order and S³ seed positions assigned to every codepoint in the
// 1,114,112-codepoint space.
package ucd

// UCAWeights holds the first collation element's primary/secondary/tertiary
// weights for a codepoint, parsed from the DUCET allkeys.txt table.
type UCAWeights struct {
	Primary   uint32
	Secondary uint32
	Tertiary  uint32
}

// Metadata is the per-codepoint record the loader builds from UCD source
// files: the subset of properties used as inputs to the total semantic
// order, plus the handful of supplemental properties (confusables-aware
// normalization) needed downstream.
type Metadata struct {
	Codepoint uint32

	Name            string
	GeneralCategory string // e.g. "Lu", "Nd", "Po"
	Script          string
	Block           string
	Age             string

	CombiningClass uint8

	SimpleUppercase string
	SimpleLowercase string

	IsEmoji bool

	// HanRadical and HanStroke order CJK ideographs by radical then stroke
	// count ( rule 4); zero for non-Han codepoints.
	HanRadical uint32
	HanStroke  int32

	// DecompositionMapping is the raw UnicodeData.txt canonical/compatibility
	// decomposition field, used to derive BaseCodepoint.
	DecompositionMapping string

	// UCA is the codepoint's primary collation weights; zero value if the
	// codepoint has no allkeys.txt entry.
	UCA UCAWeights

	// BaseCodepoint is the first codepoint of this codepoint's NFD
	// decomposition (itself, if it does not decompose). Used both as an
	// ordering tiebreak ( rule 5) and, per , as
	// the confusables-aware normalization root exposed to downstream
	// consumers without the core having to expose a full confusables table.
	BaseCodepoint uint32

	// sequenceIndex is assigned by BuildTotalOrder; 0 until sequenced.
	sequenceIndex uint32
}

// primaryGroup buckets a codepoint by the first letter of its general
// category: L < N < P < S < M < Z < C.
func (m *Metadata) primaryGroup() int {
	if m.GeneralCategory == "" {
		return 7
	}
	switch m.GeneralCategory[0] {
	case 'L':
		return 1
	case 'N':
		return 2
	case 'P':
		return 3
	case 'S':
		return 4
	case 'M':
		return 5
	case 'Z':
		return 6
	default:
		return 7
	}
}
