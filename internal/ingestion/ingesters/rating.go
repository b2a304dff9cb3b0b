// Package ingesters implements the five stream ingesters — UD dependency
// treebanks, Tatoeba sentences/translations, Wiktionary glosses, HuggingFace
// model packages, and plain text — each following the same shape: stream
// input, parse into records, compute compositions/relations in parallel
// chunks via internal/substrate.Service, merge under
// internal/ingestion/cache's dedup, and hand off to
// internal/ingestion/flusher.
package ingesters

// RelationRating is the base ELO rating a relation source seeds a newly
// observed Relation's RelationRating with.
type RelationRating float64

const (
	// RatingHeadDependent seeds dependency-parse head→dependent relations
	// (syntactic structure).
	RatingHeadDependent RelationRating = 1800

	// RatingAdjacency seeds consecutive-token word-order relations.
	RatingAdjacency RelationRating = 1500

	// RatingTranslation seeds parallel-translation links between sentences
	// in different languages.
	RatingTranslation RelationRating = 1600

	// RatingSynonym, RatingAntonym, RatingHypernym, RatingGloss, and
	// RatingCategory seed the lexical-relation kinds a Wiktionary XML dump
	// ingester reports (rating table).
	RatingSynonym  RelationRating = 1950
	RatingAntonym  RelationRating = 1850
	RatingHypernym RelationRating = 1900
	RatingGloss    RelationRating = 1800
	RatingCategory RelationRating = 1200
)
