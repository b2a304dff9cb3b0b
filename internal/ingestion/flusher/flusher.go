// Package flusher implements the AsyncFlusher: a fixed pool of background
// workers draining a bounded queue of SubstrateBatches, each committed to
// the datastore in a single transaction with deadlock-class retry, using
// the same persistent-worker-goroutine/atomic-running/graceful-Close idiom
// as internal/infrastructure/messaging/kafka.Consumer.
package flusher

import (
	"context"
	stdliberrors "errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/store"
)

// maxAttempts is 1 initial attempt plus 3 additional retries allowed for a
// deadlock-class failure.
const maxAttempts = 4

// ErrClosed is returned by Enqueue after Shutdown has been called.
var ErrClosed = stdliberrors.New("flusher: closed")

// Flusher is the AsyncFlusher. The zero value is not usable; use New.
type Flusher struct {
	store   store.Store
	log     logging.Logger
	queue   chan *SubstrateBatch
	workers int

	mu   sync.Mutex
	cond *sync.Cond
	busy int

	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
}

// New returns a Flusher with the given worker-pool size and bounded queue
// depth (defaults: 3 workers, 16-deep queue), writing batches through s.
func New(s store.Store, log logging.Logger, workers, queueDepth int) *Flusher {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	f := &Flusher{
		store:   s,
		log:     log,
		queue:   make(chan *SubstrateBatch, queueDepth),
		workers: workers,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Start launches the worker pool. Calling Start more than once is a no-op.
func (f *Flusher) Start(ctx context.Context) {
	if !f.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < f.workers; i++ {
		f.wg.Add(1)
		go f.worker(ctx, i)
	}
}

// Enqueue hands batch to the worker pool, blocking while the queue holds
// queueDepth pending batches (bounded backpressure) or until
// ctx is done.
func (f *Flusher) Enqueue(ctx context.Context, batch *SubstrateBatch) error {
	if f.closed.Load() {
		return ErrClosed
	}
	if batch.IsEmpty() {
		return nil
	}
	select {
	case f.queue <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAll blocks until the queue is empty and no worker is currently
// flushing (wait_all).
func (f *Flusher) WaitAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) > 0 || f.busy > 0 {
		f.cond.Wait()
	}
}

// Shutdown closes the queue, letting every worker drain whatever remains,
// then blocks until all workers have exited or ctx is done.
func (f *Flusher) Shutdown(ctx context.Context) error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(f.queue)

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Flusher) worker(ctx context.Context, workerIndex int) {
	defer f.wg.Done()
	rng := rand.New(rand.NewSource(int64(workerIndex) + 1))

	for batch := range f.queue {
		f.mu.Lock()
		f.busy++
		f.mu.Unlock()

		f.flushWithRetry(ctx, batch, workerIndex, rng)

		f.mu.Lock()
		f.busy--
		f.cond.Broadcast()
		f.mu.Unlock()
	}
}

// flushWithRetry commits batch in a single transaction (compositions, then
// relations, then rating observations for
// relations already written in an earlier chunk or run — each repository
// call already writes its own Physicality and sequence rows within the same
// tx), retrying on a deadlock-class error up to maxAttempts times with
// jittered exponential backoff. Any other error, or exhaustion of retries,
// is logged and the batch is dropped: the transaction guarantees there are
// no half-writes.
func (f *Flusher) flushWithRetry(ctx context.Context, batch *SubstrateBatch, workerIndex int, rng *rand.Rand) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt-1, rng)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
				f.logFailure(workerIndex, batch, lastErr)
				return
			}
		}

		err := f.store.WithTx(ctx, func(tx store.Store) error {
			if err := tx.Compositions().SaveComputed(ctx, batch.Compositions); err != nil {
				return err
			}
			for _, rel := range batch.Relations {
				if err := tx.Relations().SaveComputed(ctx, rel); err != nil {
					return err
				}
			}
			for _, obs := range batch.Observations {
				if err := tx.Relations().ApplyObservation(ctx, obs.RelationID, obs.Rating, obs.KFactor); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			return
		}
		lastErr = err

		if !isDeadlockClass(err) {
			break
		}
	}

	if lastErr != nil {
		f.logFailure(workerIndex, batch, lastErr)
	}
}

func (f *Flusher) logFailure(workerIndex int, batch *SubstrateBatch, err error) {
	f.log.Error("async flush failed",
		logging.Int("worker", workerIndex),
		logging.Int("records", batch.RecordCount()),
		logging.Err(err))
}
