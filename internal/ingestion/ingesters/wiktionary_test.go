package ingesters_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/ingestion/ingesters"
)

const samplePage = `<page>
  <title>happy</title>
  <ns>0</ns>
  <text xml:space="preserve">==English==
===Adjective===
# feeling or showing pleasure
{{syn|en|glad|joyful}}
[[Category:English adjectives]]
</text>
</page>
`

func TestParseWiktionaryXML_ExtractsGlossSynonymAndCategoryRelations(t *testing.T) {
	var cid substrate.ID
	cid[0] = 8

	out := make(chan ingesters.Sentence, 4)
	ingesters.ParseWiktionaryXML(strings.NewReader(samplePage), cid, out)

	var sentences []ingesters.Sentence
	for s := range out {
		sentences = append(sentences, s)
	}
	require.Len(t, sentences, 1)

	s := sentences[0]
	assert.Equal(t, "happy", s.Tokens[0])

	ratingsByTarget := make(map[string]ingesters.RelationRating)
	for _, rel := range s.Relations {
		require.Equal(t, 0, rel.From)
		ratingsByTarget[s.Tokens[rel.To]] = rel.Rating
	}

	assert.Equal(t, ingesters.RatingGloss, ratingsByTarget["feeling or showing pleasure"])
	assert.Equal(t, ingesters.RatingSynonym, ratingsByTarget["glad"])
	assert.Equal(t, ingesters.RatingSynonym, ratingsByTarget["joyful"])
	assert.Equal(t, ingesters.RatingCategory, ratingsByTarget["English adjectives"])
}

func TestParseWiktionaryXML_SkipsNonArticleNamespace(t *testing.T) {
	const page = `<page>
  <title>Talk:happy</title>
  <ns>1</ns>
  <text>==English==
# irrelevant talk page content
</text>
</page>
`
	var cid substrate.ID
	out := make(chan ingesters.Sentence, 2)
	ingesters.ParseWiktionaryXML(strings.NewReader(page), cid, out)

	var count int
	for range out {
		count++
	}
	assert.Equal(t, 0, count)
}
