package ingesters

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/ingestion/cache"
	"github.com/hartonomous/substrate/internal/ingestion/flusher"
	svc "github.com/hartonomous/substrate/internal/substrate"
)

// WordRelation names a binary relation to compute between two tokens of a
// Sentence by index, at the given base rating.
type WordRelation struct {
	From, To int
	Rating   RelationRating
}

// Sentence is one parsed unit of ingestion input, generalized to the
// word-level granularity every source but Tatoeba's translation links
// shares: an ordered token list, each becoming a Composition, plus the
// binary relations to derive between them (dependency, adjacency, or a
// lexical-relation source's fixed pair).
type Sentence struct {
	Tokens    []string
	Relations []WordRelation
	ContentID substrate.ID
}

// ChunkSize is the default chunk granularity: compositions and relations
// are computed in parallel in chunks of 10^4-10^5 items.
const ChunkSize = 20000

// BatchSink is the handoff target for one merged SubstrateBatch. A local
// *flusher.Flusher satisfies it directly (committing straight to the
// substrate store); cmd/substrate's distributed mode instead hands it to a
// BatchSink that publishes the batch as a Kafka envelope on
// kafka.TopicSubstrateBatches for cmd/worker to consume.
type BatchSink interface {
	Enqueue(ctx context.Context, batch *flusher.SubstrateBatch) error
}

// Pipeline is the shape every ingester shares past parsing: parallel
// per-chunk compute, cache-deduped merge into a SubstrateBatch, and
// handoff to a BatchSink, using a bounded golang.org/x/sync/errgroup
// fan-out per chunk.
type Pipeline struct {
	svc       *svc.Service
	cache     *cache.Cache
	sink      BatchSink
	chunkSize int
	workers   int
}

// New returns a Pipeline. chunkSize <= 0 uses ChunkSize.
func New(service *svc.Service, c *cache.Cache, sink BatchSink, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	return &Pipeline{svc: service, cache: c, sink: sink, chunkSize: chunkSize, workers: runtime.NumCPU()}
}

// sentenceResult holds one Sentence's computed compositions (by token
// index) and relations, before cache-deduped merge.
type sentenceResult struct {
	sentence     Sentence
	compositions []*substrate.ComputedComposition
}

// Ingest streams sentences, chunking and computing them in parallel, then
// merges each chunk's results into a SubstrateBatch and hands it to the
// flusher. It returns once every sentence off the
// channel has been enqueued; it does not wait for the flusher to drain —
// callers call Flusher.WaitAll themselves once every ingester feeding it
// has finished.
func (p *Pipeline) Ingest(ctx context.Context, sentences <-chan Sentence) error {
	chunk := make([]Sentence, 0, p.chunkSize)
	for s := range sentences {
		chunk = append(chunk, s)
		if len(chunk) >= p.chunkSize {
			if err := p.processChunk(ctx, chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		return p.processChunk(ctx, chunk)
	}
	return nil
}

func (p *Pipeline) processChunk(ctx context.Context, chunk []Sentence) error {
	results := make([]sentenceResult, len(chunk))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, sentence := range chunk {
		i, sentence := i, sentence
		g.Go(func() error {
			comps := make([]*substrate.ComputedComposition, len(sentence.Tokens))
			for ti, tok := range sentence.Tokens {
				comp, err := p.svc.ComputeComposition(gctx, tok)
				if err != nil {
					return err
				}
				comps[ti] = comp
			}
			results[i] = sentenceResult{sentence: sentence, compositions: comps}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	batch := &flusher.SubstrateBatch{}
	for _, r := range results {
		p.mergeSentence(r, batch)
	}
	return p.sink.Enqueue(ctx, batch)
}

// mergeSentence folds one sentence's computed compositions and relations
// into batch via mergeComposition/mergeRelation, skipping anything the
// cache has already seen this run.
func (p *Pipeline) mergeSentence(r sentenceResult, batch *flusher.SubstrateBatch) {
	for _, comp := range r.compositions {
		mergeComposition(p.cache, comp, batch)
	}

	for _, rel := range r.sentence.Relations {
		if rel.From < 0 || rel.From >= len(r.compositions) || rel.To < 0 || rel.To >= len(r.compositions) {
			continue
		}
		a, b := r.compositions[rel.From], r.compositions[rel.To]
		if a.Composition.ID == b.Composition.ID {
			continue
		}
		computed, err := p.svc.ComputeRelation(a, b, r.sentence.ContentID, float64(rel.Rating))
		if err != nil {
			continue
		}
		mergeRelation(p.cache, r.sentence.ContentID, computed, batch)
	}
}
