package ingesters

import (
	"bufio"
	"io"
	"unicode"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// sentenceBoundary reports whether r ends a sentence, splitting plain text
// into the word-order units adjacency relations are derived within — text
// has no syntactic structure to provide head-dependent relations, so this
// ingester only contributes RatingAdjacency relations, unlike ParseConLLU's
// dependency-parsed input.
func sentenceBoundary(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// ParseText reads arbitrary UTF-8 text, splitting it into sentences on
// '.'/'!'/'?'/newline and each sentence into words on whitespace/punctuation,
// emitting one Sentence per non-empty word run with consecutive-token
// adjacency relations (ELO RatingAdjacency).
func ParseText(r io.Reader, contentID substrate.ID, out chan<- Sentence) {
	defer close(out)

	reader := bufio.NewReader(r)
	var words []string
	var current []rune

	flushWord := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}
	flushSentence := func() {
		flushWord()
		if len(words) > 0 {
			out <- sentenceFromWords(words, contentID)
			words = nil
		}
	}

	for {
		ru, _, err := reader.ReadRune()
		if err != nil {
			break
		}
		switch {
		case sentenceBoundary(ru):
			flushSentence()
		case unicode.IsSpace(ru) || unicode.IsPunct(ru):
			flushWord()
		default:
			current = append(current, ru)
		}
	}
	flushSentence()
}

func sentenceFromWords(words []string, contentID substrate.ID) Sentence {
	var relations []WordRelation
	for i := 0; i+1 < len(words); i++ {
		relations = append(relations, WordRelation{From: i, To: i + 1, Rating: RatingAdjacency})
	}
	return Sentence{Tokens: words, Relations: relations, ContentID: contentID}
}
