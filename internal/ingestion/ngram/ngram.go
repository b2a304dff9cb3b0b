// Package ngram implements suffix-array composition discovery over free
// text, yielding significant substrings as composition candidates instead
// of an arbitrary fixed-width n-gram window. No ingester calls it: the text
// ingester (internal/ingestion/ingesters) does not use this package.
package ngram

import (
	"math"
	"sort"
	"strings"

	"github.com/hartonomous/substrate/internal/config"
)

// maxBranchingFactor caps a composition's right-context distinct-symbol
// count for significance (branching <= 50). Unlike
// MinFrequency/MinNPMI/MinEntropy/MaxNGramLength, this threshold has no
// config.NGramConfig field — it is a fixed constant, so there is nothing
// for an operator to usefully tune.
const maxBranchingFactor = 50

// NGram is a discovered repeated substring together with the statistics
// NGramExtractor.Significant filters on.
type NGram struct {
	Text      string
	N         int
	Frequency int
	Positions []int // sorted codepoint offsets into the source text

	PMI          float64
	NPMI         float64
	LeftEntropy  float64
	RightEntropy float64
	Branching    int

	IsRLE            bool // every codepoint in Text is identical, e.g. "aaa"
	PatternSignature string
}

// Extractor discovers every repeated substring in a stream of text via
// suffix array + LCP, without an arbitrary n-gram window — a composition
// is any substring whose frequency and context statistics clear the
// significance test. Extract may be called more than once before
// Significant; later calls accumulate frequency counts and positions
// across calls rather than resetting, mirroring a single long-lived
// extractor instance per ingestion run. Call Clear to reset between
// independent runs.
type Extractor struct {
	cfg config.NGramConfig

	ngrams       map[string]*NGram
	leftContext  map[string]map[rune]int
	rightContext map[string]map[rune]int

	totalUnigrams uint64
}

// New returns an Extractor applying cfg's thresholds.
func New(cfg config.NGramConfig) *Extractor {
	return &Extractor{
		cfg:          cfg,
		ngrams:       make(map[string]*NGram),
		leftContext:  make(map[string]map[rune]int),
		rightContext: make(map[string]map[rune]int),
	}
}

// Extract scans text (a single document's codepoints), discovering every
// repeated substring up to cfg.MaxNGramLength codepoints long and updating
// each NGram's frequency, positions, and context-entropy samples.
// Unigrams (every distinct codepoint) are always recorded, since every
// codepoint is an Atom regardless of repetition; multi-codepoint
// substrings are only recorded once their occurrence count reaches
// cfg.MinFrequency. Scanning stops early at the first length n for which
// no substring repeats cfg.MinFrequency times, since no longer substring
// can repeat more often than any of its length-n prefixes/suffixes.
func (e *Extractor) Extract(text []rune) {
	n := len(text)
	if n == 0 {
		return
	}

	maxLen := e.cfg.MaxNGramLength
	if maxLen <= 0 || maxLen > n {
		maxLen = n
	}

	sa := buildSuffixArray(text)
	lcp := kasaiLCP(text, sa, maxLen)

	e.extractUnigrams(text, sa, lcp)
	e.extractMultigrams(text, sa, lcp, maxLen)
	e.finalizeMetrics()
}

func (e *Extractor) extractUnigrams(text []rune, sa, lcp []int) {
	for i := 0; i < len(sa); {
		pos := sa[i]
		cp := text[pos]

		j := i + 1
		for j < len(sa) && lcp[j] >= 1 && text[sa[j]] == cp {
			j++
		}
		freq := j - i

		key := string(cp)
		ng := e.ngrams[key]
		if ng == nil {
			ng = &NGram{Text: key, N: 1}
			e.ngrams[key] = ng
		}
		ng.Frequency = freq
		e.totalUnigrams += uint64(freq)
		ng.Positions = sortedPositions(sa[i:j])

		e.sampleContext(key, text, sa[i:j], 1)
		i = j
	}
}

func (e *Extractor) extractMultigrams(text []rune, sa, lcp []int, maxLen int) {
	n := len(text)
	for length := 2; length <= maxLen; length++ {
		groups := 0
		i := 0
		for i < len(sa) {
			if sa[i]+length > n {
				i++
				continue
			}
			j := i + 1
			for j < len(sa) && lcp[j] >= length {
				j++
			}
			freq := j - i

			if freq >= e.cfg.MinFrequency {
				pos := sa[i]
				key := string(text[pos : pos+length])

				ng := e.ngrams[key]
				if ng == nil {
					ng = &NGram{Text: key, N: length, IsRLE: isRLE(text[pos : pos+length])}
					if length <= 32 {
						ng.PatternSignature = patternSignature(text[pos : pos+length])
					}
					e.ngrams[key] = ng
				}
				ng.Frequency = freq
				ng.Positions = sortedPositions(sa[i:j])

				e.sampleContext(key, text, sa[i:j], length)
				groups++
			}
			i = j
		}
		if groups == 0 {
			break
		}
	}
}

// sampleContext records (sampled, for long runs) the codepoints immediately
// before/after each occurrence of key, feeding finalizeMetrics' entropy
// computation. Sampling every occurrence of a composition with millions of
// hits would dominate extraction time for no statistical benefit past a few
// dozen samples, matching `freq / 64` stride.
func (e *Extractor) sampleContext(key string, text []rune, positions []int, length int) {
	n := len(text)
	step := len(positions) / 64
	if step < 1 {
		step = 1
	}

	lc := e.leftContext[key]
	if lc == nil {
		lc = make(map[rune]int)
		e.leftContext[key] = lc
	}
	rc := e.rightContext[key]
	if rc == nil {
		rc = make(map[rune]int)
		e.rightContext[key] = rc
	}

	for k := 0; k < len(positions); k += step {
		p := positions[k]
		if p > 0 {
			lc[text[p-1]]++
		}
		if p+length < n {
			rc[text[p+length]]++
		}
	}
}

func (e *Extractor) finalizeMetrics() {
	if e.totalUnigrams == 0 {
		return
	}
	total := float64(e.totalUnigrams)

	for key, ng := range e.ngrams {
		ng.LeftEntropy = entropy(e.leftContext[key], ng.Frequency)
		ng.RightEntropy = entropy(e.rightContext[key], ng.Frequency)
		ng.Branching = len(e.rightContext[key])

		if ng.N < 2 {
			continue
		}
		runes := []rune(ng.Text)
		first, rest := e.ngrams[string(runes[0])], e.ngrams[string(runes[1:])]
		if first == nil || rest == nil {
			continue
		}

		pXY := float64(ng.Frequency) / total
		pX := float64(first.Frequency) / total
		pY := float64(rest.Frequency) / total
		if pX <= 0 || pY <= 0 || pXY <= 0 {
			continue
		}
		ng.PMI = math.Log2(pXY / (pX * pY))
		if logPxy := -math.Log2(pXY); logPxy > 0 {
			ng.NPMI = ng.PMI / logPxy
		}
	}
}

// Significant returns every NGram clearing promotion test —
// frequency ≥ min_freq ∧ nPMI ≥ min_npmi ∧ max(left_H, right_H) ≥ min_entropy
// ∧ branching ≤ 50, or a run-length pattern regardless of the statistical
// test — sorted longest-first, then by frequency, then by nPMI (the same
// order significant_ngrams returns, so downstream
// composition promotion favors the most specific, best-attested
// compositions first). Unigrams are always significant: every codepoint is
// an Atom independent of its repetition statistics.
func (e *Extractor) Significant() []*NGram {
	var result []*NGram
	for _, ng := range e.ngrams {
		if ng.N == 1 {
			result = append(result, ng)
			continue
		}

		sig := ng.Frequency >= e.cfg.MinFrequency &&
			ng.NPMI >= e.cfg.MinNPMI &&
			(ng.LeftEntropy >= e.cfg.MinEntropy || ng.RightEntropy >= e.cfg.MinEntropy) &&
			ng.Branching <= maxBranchingFactor

		if sig || ng.IsRLE {
			result = append(result, ng)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.N != b.N {
			return a.N > b.N
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		return a.NPMI > b.NPMI
	})
	return result
}

// NGrams returns every substring Extract has recorded, including ones that
// never clear Significant's promotion test. Exposed for introspection.
func (e *Extractor) NGrams() map[string]*NGram {
	return e.ngrams
}

// TotalNGrams reports how many distinct substrings Extract has recorded.
func (e *Extractor) TotalNGrams() int { return len(e.ngrams) }

// TotalUnigrams reports the total codepoint count Extract has scanned.
func (e *Extractor) TotalUnigrams() uint64 { return e.totalUnigrams }

// Clear discards all accumulated statistics, readying the Extractor for an
// independent run.
func (e *Extractor) Clear() {
	e.ngrams = make(map[string]*NGram)
	e.leftContext = make(map[string]map[rune]int)
	e.rightContext = make(map[string]map[rune]int)
	e.totalUnigrams = 0
}

func entropy(counts map[rune]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func isRLE(text []rune) bool {
	for _, r := range text[1:] {
		if r != text[0] {
			return false
		}
	}
	return true
}

// patternSignature renders text's structural shape as a string over a
// growing alphabet (X, Y, Z, ..., a, b, ...), one symbol per distinct
// codepoint in first-seen order — e.g. "abba" becomes "XYYX". Mirrors
// compute_pattern_signature.
func patternSignature(text []rune) string {
	if len(text) <= 1 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(text))

	mapping := make(map[rune]byte, len(text))
	next := byte('X')
	for _, cp := range text {
		sym, ok := mapping[cp]
		if !ok {
			if next > 'Z' {
				next = 'a'
			}
			sym = next
			mapping[cp] = sym
			next++
		}
		sb.WriteByte(sym)
	}
	return sb.String()
}

func sortedPositions(sa []int) []int {
	positions := make([]int, len(sa))
	copy(positions, sa)
	sort.Ints(positions)
	return positions
}
