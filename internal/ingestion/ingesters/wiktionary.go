package ingesters

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

var (
	reTemplateArg  = regexp.MustCompile(`\{\{[^|}]+\|([^|}]*)(?:\|[^}]*)?\}\}`)
	reTemplateBare = regexp.MustCompile(`\{\{[^}]+\}\}`)
	reWikiLink     = regexp.MustCompile(`\[\[([^|\]]+)(?:\|[^|\]]+)?\]\]`)
	reCategory     = regexp.MustCompile(`\[\[Category:([^|\]]+)`)
)

// wiktionaryTemplates maps each relation template name to the rating it
// implies (lexical-relation rating table: hyponyms, meronyms,
// holonyms, coordinate/derived/related terms have no matching
// RelationRating constant and are dropped).
var wiktionaryTemplates = map[string]RelationRating{
	"syn":       RatingSynonym,
	"synonyms":  RatingSynonym,
	"ant":       RatingAntonym,
	"antonyms":  RatingAntonym,
	"hyper":     RatingHypernym,
	"hypernyms": RatingHypernym,
}

// cleanMarkup strips MediaWiki template/link/emphasis markup down to plain
// text, mirroring clean_markup.
func cleanMarkup(s string) string {
	s = reTemplateArg.ReplaceAllString(s, "$1")
	s = reTemplateBare.ReplaceAllString(s, "")
	s = reWikiLink.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "'''", "")
	s = strings.ReplaceAll(s, "''", "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`).Replace(s)
	return strings.TrimSpace(s)
}

// ParseWiktionaryXML streams a MediaWiki XML dump (Wiktionary's export
// format), extracting one Sentence per page: Tokens[0] is the page title
// (the source word, with a "Thesaurus:"/"Category:" namespace prefix
// stripped), and each lexical relation the page's English section or
// category markup yields becomes Tokens[1+i] with a WordRelation{0, 1+i,
// rating} — synonym/antonym/hypernym templates, "# gloss" definition
// lines (RatingGloss), and "[[Category:X]]" links (RatingCategory),
// mirroring process_page_compute. Only namespace 0
// (articles), 14 (Category), and 110 (Thesaurus) pages are processed, and
// only lines inside "==English==" contribute template/gloss relations —
// category links are extracted regardless of section, matching the
// original's `!in_eng && !is_cat` gate.
func ParseWiktionaryXML(r io.Reader, contentID substrate.ID, out chan<- Sentence) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var title string
	var ns int
	var text strings.Builder
	inText := false

	flush := func() {
		if title == "" || (ns != 0 && ns != 14 && ns != 110) {
			title, ns = "", -1
			text.Reset()
			return
		}
		if s, ok := sentenceFromWiktionaryPage(title, text.String(), contentID); ok {
			out <- s
		}
		title, ns = "", -1
		text.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "<title>"):
			flush()
			s, e := strings.Index(line, "<title>")+7, strings.Index(line, "</title>")
			if e > s {
				title = line[s:e]
			}
			ns = -1
			inText = false
		case strings.Contains(line, "<ns>"):
			s, e := strings.Index(line, "<ns>")+4, strings.Index(line, "</ns>")
			if e > s {
				ns = atoiOrDefault(line[s:e], -1)
			}
		case strings.Contains(line, "<text"):
			if ns != 0 && ns != 14 && ns != 110 {
				inText = false
				continue
			}
			inText = true
			if gt := strings.Index(line, ">"); gt >= 0 {
				rest := line[gt+1:]
				if end := strings.Index(rest, "</text>"); end >= 0 {
					text.WriteString(rest[:end])
					inText = false
				} else {
					text.WriteString(rest)
				}
			}
		case inText:
			if end := strings.Index(line, "</text>"); end >= 0 {
				text.WriteString(line[:end])
				inText = false
			} else {
				text.WriteString(line)
				text.WriteByte('\n')
			}
		}
	}
	flush()
}

func atoiOrDefault(s string, def int) int {
	n := 0
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func sentenceFromWiktionaryPage(title, body string, contentID substrate.ID) (Sentence, bool) {
	word := strings.TrimPrefix(strings.TrimPrefix(title, "Thesaurus:"), "Category:")
	if word == "" {
		return Sentence{}, false
	}

	tokens := []string{word}
	var relations []WordRelation
	addTarget := func(target string, rating RelationRating) {
		target = cleanMarkup(target)
		if target == "" || target == word {
			return
		}
		idx := len(tokens)
		tokens = append(tokens, target)
		relations = append(relations, WordRelation{From: 0, To: idx, Rating: rating})
	}

	inEnglish := false
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "==English=="):
			inEnglish = true
		case strings.HasPrefix(line, "==") && !strings.HasPrefix(line, "==="):
			inEnglish = false
		}

		isCategory := strings.Contains(line, "[[Category:")
		if !inEnglish && !isCategory {
			continue
		}

		for tmpl, rating := range wiktionaryTemplates {
			needle := "{{" + tmpl + "|"
			if !strings.Contains(line, needle) {
				continue
			}
			for _, part := range strings.Split(line, "|") {
				part = strings.TrimSuffix(part, "}}")
				if part == "" || strings.ContainsAny(part, "{=") {
					continue
				}
				addTarget(part, rating)
			}
		}

		if len(line) > 2 && line[0] == '#' && line[1] == ' ' {
			addTarget(line[2:], RatingGloss)
		}

		if isCategory {
			if m := reCategory.FindStringSubmatch(line); m != nil {
				addTarget(m[1], RatingCategory)
			}
		}
	}

	return Sentence{Tokens: tokens, Relations: relations, ContentID: contentID}, true
}
