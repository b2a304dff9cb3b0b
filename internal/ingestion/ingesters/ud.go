package ingesters

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/hartonomous/substrate/internal/domain/substrate"
)

// udToken is one CoNLL-U data line's fields relevant to relation
// derivation: its own sentence-local id, its lemma, and its syntactic
// head's id (0 means root — no dependency relation).
type udToken struct {
	id     uint32
	lemma  string
	head   uint32
}

// ParseConLLU reads a Universal Dependencies CoNLL-U file, emitting one
// Sentence per blank-line-delimited block on out: a Composition per token
// lemma, a head→dependent WordRelation per non-root token (ELO
// RatingHeadDependent), and a consecutive-token WordRelation per adjacent
// pair (ELO RatingAdjacency). Comment lines (leading '#') and
// multiword-token / empty-node ids (containing '.' or '-') are skipped.
// out is closed when r is exhausted or ctx-independent parsing fails; the
// first parse error, if any, is sent on errc.
func ParseConLLU(r io.Reader, contentID substrate.ID, out chan<- Sentence, errc chan<- error) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current []udToken
	flush := func() {
		if len(current) == 0 {
			return
		}
		out <- sentenceFromUDTokens(current, contentID)
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 8 {
			continue
		}
		idField := fields[0]
		if strings.ContainsAny(idField, ".-") {
			continue
		}
		id, err := strconv.ParseUint(idField, 10, 32)
		if err != nil {
			continue
		}
		var head uint64
		if fields[6] != "0" {
			head, err = strconv.ParseUint(fields[6], 10, 32)
			if err != nil {
				continue
			}
		}
		current = append(current, udToken{id: uint32(id), lemma: fields[2], head: uint32(head)})
	}
	flush()

	if err := scanner.Err(); err != nil {
		errc <- err
	}
}

func sentenceFromUDTokens(tokens []udToken, contentID substrate.ID) Sentence {
	tokenIndex := make(map[uint32]int, len(tokens))
	lemmas := make([]string, len(tokens))
	for i, tok := range tokens {
		tokenIndex[tok.id] = i
		lemmas[i] = tok.lemma
	}

	var relations []WordRelation
	for i, tok := range tokens {
		if tok.head == 0 {
			continue
		}
		if headIdx, ok := tokenIndex[tok.head]; ok {
			relations = append(relations, WordRelation{From: headIdx, To: i, Rating: RatingHeadDependent})
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		relations = append(relations, WordRelation{From: i, To: i + 1, Rating: RatingAdjacency})
	}

	return Sentence{Tokens: lemmas, Relations: relations, ContentID: contentID}
}
