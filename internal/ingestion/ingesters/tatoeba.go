package ingesters

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/ingestion/cache"
	"github.com/hartonomous/substrate/internal/ingestion/flusher"
	svc "github.com/hartonomous/substrate/internal/substrate"
)

// tatoebaChunkSize is the number of lines processed per parallel chunk.
const tatoebaChunkSize = 100000

// TatoebaIngester ingests Tatoeba's two-file corpus: sentences.csv (one
// whole sentence per external numeric id, each becoming a single
// Composition — unlike every other ingester, a "sentence" here is one
// token, not a list) and links.csv (pairs of external ids that are mutual
// translations, becoming a RatingTranslation Relation). Its two-phase
// structure — first building an external-id→composition map, then
// resolving link pairs through it — does not fit the single-Sentence/
// WordRelation shape Pipeline assumes, since a translation link crosses two
// independent sentences rather than relating two tokens of one.
type TatoebaIngester struct {
	svc     *svc.Service
	cache   *cache.Cache
	sink    BatchSink
	workers int

	byExternalID map[uint64]*substrate.ComputedComposition
}

// NewTatoebaIngester returns a TatoebaIngester sharing service, cache, and
// sink with the rest of an ingestion run.
func NewTatoebaIngester(service *svc.Service, c *cache.Cache, sink BatchSink) *TatoebaIngester {
	return &TatoebaIngester{
		svc:          service,
		cache:        c,
		sink:         sink,
		workers:      runtime.NumCPU(),
		byExternalID: make(map[uint64]*substrate.ComputedComposition),
	}
}

// IngestSentences streams sentences.csv ("id\tlang\ttext" per line,
// matching Tatoeba's export format), computing each sentence's Composition
// in parallel chunks and recording it in byExternalID for IngestLinks to
// resolve later.
func (t *TatoebaIngester) IngestSentences(ctx context.Context, r io.Reader, contentID substrate.ID) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	type row struct {
		id   uint64
		text string
	}
	chunk := make([]row, 0, tatoebaChunkSize)

	flush := func(rows []row) error {
		results := make([]*substrate.ComputedComposition, len(rows))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(t.workers)
		for i, rr := range rows {
			i, rr := i, rr
			g.Go(func() error {
				comp, err := t.svc.ComputeComposition(gctx, rr.text)
				if err != nil {
					return nil // unparseable sentence text: skip, not fatal
				}
				results[i] = comp
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		batch := &flusher.SubstrateBatch{}
		for i, comp := range results {
			if comp == nil {
				continue
			}
			mergeComposition(t.cache, comp, batch)
			t.byExternalID[rows[i].id] = comp
		}
		return t.sink.Enqueue(ctx, batch)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		first := strings.IndexByte(line, '\t')
		if first < 0 {
			continue
		}
		second := strings.IndexByte(line[first+1:], '\t')
		if second < 0 {
			continue
		}
		second += first + 1

		id, err := strconv.ParseUint(line[:first], 10, 64)
		if err != nil {
			continue
		}
		chunk = append(chunk, row{id: id, text: line[second+1:]})

		if len(chunk) >= tatoebaChunkSize {
			if err := flush(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		if err := flush(chunk); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// IngestLinks streams links.csv ("id1\tid2" per line), resolving both ids
// through byExternalID (populated by a prior IngestSentences call) and
// computing a RatingTranslation Relation for every pair that resolves.
// Pairs naming an id IngestSentences never saw (no sentence, or a sentence
// whose Composition failed to compute) are silently skipped rather than
// treated as an error.
func (t *TatoebaIngester) IngestLinks(ctx context.Context, r io.Reader, contentID substrate.ID) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	type pair struct{ a, b uint64 }
	chunk := make([]pair, 0, tatoebaChunkSize)

	flush := func(pairs []pair) error {
		results := make([]*substrate.ComputedRelation, len(pairs))
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(t.workers)
		for i, p := range pairs {
			i, p := i, p
			g.Go(func() error {
				a, okA := t.byExternalID[p.a]
				b, okB := t.byExternalID[p.b]
				if !okA || !okB || a.Composition.ID == b.Composition.ID {
					return nil
				}
				rel, err := t.svc.ComputeRelation(a, b, contentID, float64(RatingTranslation))
				if err != nil {
					return nil
				}
				results[i] = rel
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		batch := &flusher.SubstrateBatch{}
		for _, rel := range results {
			if rel == nil {
				continue
			}
			mergeRelation(t.cache, contentID, rel, batch)
		}
		return t.sink.Enqueue(ctx, batch)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		a, err1 := strconv.ParseUint(line[:tab], 10, 64)
		b, err2 := strconv.ParseUint(line[tab+1:], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		chunk = append(chunk, pair{a: a, b: b})

		if len(chunk) >= tatoebaChunkSize {
			if err := flush(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		if err := flush(chunk); err != nil {
			return err
		}
	}
	return scanner.Err()
}
