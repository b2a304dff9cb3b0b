// Package substratestore implements internal/store.Store against Postgres
// via pgx/v5 on a caller-supplied *pgxpool.Pool, with its own WithTx
// transaction helper.
package substratestore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hartonomous/substrate/internal/store"
)

// querier abstracts *pgxpool.Pool and pgx.Tx so repository methods can run
// either directly against the pool or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store implements store.Store against a *pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Atoms() store.AtomRepository               { return &atomRepo{q: s.q} }
func (s *Store) Physicalities() store.PhysicalityRepository { return &physicalityRepo{q: s.q} }
func (s *Store) Compositions() store.CompositionRepository  { return &compositionRepo{q: s.q} }
func (s *Store) Relations() store.RelationRepository        { return &relationRepo{q: s.q} }

// WithTx runs fn against a Store whose repositories all execute against the
// same pgx.Tx, committing on nil return and rolling back otherwise —
// generalizes postgres.WithTransaction (which hands one pgx.Tx to a single
// callback) to the whole four-repository Store fn needs for
// internal/ingestion/flusher's per-batch atomic write.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txStore := &Store{pool: s.pool, q: tx}
	if err := fn(txStore); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
