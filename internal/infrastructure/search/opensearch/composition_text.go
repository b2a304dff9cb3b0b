package opensearch

import (
	"context"
	"encoding/json"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/hash"
)

// compositionTextDoc is the document shape indexed under
// CompositionTextIndexMapping: one per composition, keyed by the
// composition's hex id, carrying its reconstructed text.
type compositionTextDoc struct {
	CompositionID string `json:"composition_id"`
	Text          string `json:"text"`
}

// CompositionTextIndex is the composition-text lookup backing
// astar.TextLookup: it resolves a Composition id to its reconstructed text
// (LookupText) and, in reverse, the exact text of a query back to the
// Composition that produced it (FindComposition) — the role
// v_composition_text view plays for find_composition, here
// served by an OpenSearch index instead of a SQL view join.
type CompositionTextIndex struct {
	indexer   *Indexer
	searcher  *Searcher
	indexName string
}

// NewCompositionTextIndex returns a CompositionTextIndex reading and writing
// indexName via indexer and searcher.
func NewCompositionTextIndex(indexer *Indexer, searcher *Searcher, indexName string) *CompositionTextIndex {
	return &CompositionTextIndex{indexer: indexer, searcher: searcher, indexName: indexName}
}

// EnsureIndex creates the backing index with CompositionTextIndexMapping if
// it does not already exist.
func (c *CompositionTextIndex) EnsureIndex(ctx context.Context) error {
	exists, err := c.indexer.IndexExists(ctx, c.indexName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.indexer.CreateIndex(ctx, c.indexName, CompositionTextIndexMapping())
}

// Put indexes (or reindexes) the reconstructed text for a Composition.
func (c *CompositionTextIndex) Put(ctx context.Context, id substrate.ID, text string) error {
	doc := compositionTextDoc{CompositionID: id.String(), Text: text}
	return c.indexer.IndexDocument(ctx, c.indexName, id.String(), doc)
}

// PutBatch indexes the reconstructed text for many Compositions in one bulk
// request, mirroring the ingestion pipeline's batch-everything discipline.
func (c *CompositionTextIndex) PutBatch(ctx context.Context, texts map[substrate.ID]string) (*BulkResult, error) {
	docs := make(map[string]interface{}, len(texts))
	for id, text := range texts {
		docs[id.String()] = compositionTextDoc{CompositionID: id.String(), Text: text}
	}
	return c.indexer.BulkIndex(ctx, c.indexName, docs)
}

// LookupText implements astar.TextLookup: it resolves id's document by id and
// returns its stored text.
func (c *CompositionTextIndex) LookupText(ctx context.Context, id substrate.ID) (string, error) {
	res, err := c.searcher.Search(ctx, SearchRequest{
		IndexName: c.indexName,
		Query:     &Query{QueryType: "term", Field: "composition_id", Value: id.String()},
		Pagination: &Pagination{Offset: 0, Limit: 1},
	})
	if err != nil {
		return "", err
	}
	if len(res.Hits) == 0 {
		return "", errors.New(errors.CodeNotFound, "no text indexed for composition")
	}
	var doc compositionTextDoc
	if err := json.Unmarshal(res.Hits[0].Source, &doc); err != nil {
		return "", errors.Wrap(err, errors.CodeSearchError, "failed to decode composition text document")
	}
	return doc.Text, nil
}

// FindComposition implements astar.TextLookup: it resolves text back to the
// Composition id that produced it via an exact match against the indexed
// "raw" keyword sub-field, returning ok=false rather than an error when no
// Composition has that exact text.
func (c *CompositionTextIndex) FindComposition(ctx context.Context, text string) (substrate.ID, bool, error) {
	res, err := c.searcher.Search(ctx, SearchRequest{
		IndexName: c.indexName,
		Query:     &Query{QueryType: "term", Field: "text.raw", Value: text},
		Pagination: &Pagination{Offset: 0, Limit: 1},
	})
	if err != nil {
		return substrate.ID{}, false, err
	}
	if len(res.Hits) == 0 {
		return substrate.ID{}, false, nil
	}
	var doc compositionTextDoc
	if err := json.Unmarshal(res.Hits[0].Source, &doc); err != nil {
		return substrate.ID{}, false, errors.Wrap(err, errors.CodeSearchError, "failed to decode composition text document")
	}
	id, err := hash.Parse(doc.CompositionID)
	if err != nil {
		return substrate.ID{}, false, errors.Wrap(err, errors.CodeSearchError, "indexed composition_id is not a valid digest")
	}
	return id, true, nil
}
