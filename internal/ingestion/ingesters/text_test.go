package ingesters_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/ingestion/ingesters"
)

func TestParseText_SplitsSentencesAndWordsWithAdjacency(t *testing.T) {
	var cid substrate.ID
	cid[0] = 7

	out := make(chan ingesters.Sentence, 4)
	ingesters.ParseText(strings.NewReader("The cat sat. Dogs bark!"), cid, out)

	var sentences []ingesters.Sentence
	for s := range out {
		sentences = append(sentences, s)
	}

	require.Len(t, sentences, 2)
	assert.Equal(t, []string{"The", "cat", "sat"}, sentences[0].Tokens)
	assert.Equal(t, []ingesters.WordRelation{
		{From: 0, To: 1, Rating: ingesters.RatingAdjacency},
		{From: 1, To: 2, Rating: ingesters.RatingAdjacency},
	}, sentences[0].Relations)
	assert.Equal(t, []string{"Dogs", "bark"}, sentences[1].Tokens)
}

func TestParseText_IgnoresEmptyInput(t *testing.T) {
	var cid substrate.ID
	out := make(chan ingesters.Sentence, 1)
	ingesters.ParseText(strings.NewReader("   \n\n"), cid, out)

	var count int
	for range out {
		count++
	}
	assert.Equal(t, 0, count)
}
