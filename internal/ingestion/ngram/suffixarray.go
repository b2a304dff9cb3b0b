package ngram

import "sort"

// buildSuffixArray returns the suffix array of text: sa[i] is the starting
// position of the i-th suffix in lexicographic order. Uses prefix-doubling
// rank refinement (Manber-Myers), the idiomatic Go substitute for
// libdivsufsort dependency — no third-party Go suffix-array
// package with LCP support appears anywhere in this module's corpus, so this
// is one of the few genuinely stdlib-only algorithms in the codebase (see
// DESIGN.md).
func buildSuffixArray(text []rune) []int {
	n := len(text)
	sa := make([]int, n)
	rank := make([]int, n)
	tmp := make([]int, n)
	for i := range text {
		sa[i] = i
		rank[i] = int(text[i])
	}

	rankAt := func(i, k int) int {
		if i+k < n {
			return rank[i+k]
		}
		return -1
	}

	for k := 1; ; k *= 2 {
		sort.Slice(sa, func(i, j int) bool {
			a, b := sa[i], sa[j]
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return rankAt(a, k) < rankAt(b, k)
		})

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			prev, cur := sa[i-1], sa[i]
			if rank[prev] != rank[cur] || rankAt(prev, k) != rankAt(cur, k) {
				tmp[sa[i]]++
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == n-1 {
			break
		}
	}
	return sa
}

// kasaiLCP computes the LCP array for sa over text via Kasai's O(N)
// algorithm: lcp[i] is the length of the common prefix shared by the
// suffixes at sa[i-1] and sa[i] (lcp[0] is always 0). Each value is capped
// at maxLen, mirroring `max_cmp = min(max_cmp,
// config_.max_n)` — composition discovery never looks past max_n codepoints
// regardless of how far two suffixes actually agree.
func kasaiLCP(text []rune, sa []int, maxLen int) []int {
	n := len(text)
	rankOf := make([]int, n)
	for i, pos := range sa {
		rankOf[pos] = i
	}

	lcp := make([]int, n)
	h := 0
	for i := 0; i < n; i++ {
		if rankOf[i] == 0 {
			h = 0
			continue
		}
		j := sa[rankOf[i]-1]
		for i+h < n && j+h < n && h < maxLen && text[i+h] == text[j+h] {
			h++
		}
		lcp[rankOf[i]] = h
		if h > 0 {
			h--
		}
	}
	return lcp
}
