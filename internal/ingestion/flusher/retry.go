package flusher

import (
	stdliberrors "errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hartonomous/substrate/pkg/errors"
)

// postgresDeadlockDetected and postgresSerializationFailure are the SQLSTATE
// codes Postgres raises when it aborts one side of a write-write conflict —
// the deadlock-class error that flushWithRetry treats as retryable.
const (
	postgresDeadlockDetected    = "40P01"
	postgresSerializationFailure = "40001"
)

// isDeadlockClass reports whether err (possibly wrapped in an
// *errors.AppError, per store.Store's wrapping convention) stems from a
// Postgres deadlock or serialization failure.
func isDeadlockClass(err error) bool {
	var appErr *errors.AppError
	if stdliberrors.As(err, &appErr) && appErr.Code == errors.CodeFlushDeadlock {
		return true
	}
	var pgErr *pgconn.PgError
	if stdliberrors.As(err, &pgErr) {
		return pgErr.Code == postgresDeadlockDetected || pgErr.Code == postgresSerializationFailure
	}
	return false
}

// backoff returns the delay before a retry attempt: a 20·2^attempt ms base,
// jittered by a per-worker random source seeded once at worker startup —
// each worker's retries jitter independently of the others without needing
// a shared, lock-guarded RNG.
func backoff(attempt int, rng *rand.Rand) time.Duration {
	base := 20 * (1 << uint(attempt))
	jitter := rng.Intn(base)
	return time.Duration(base+jitter) * time.Millisecond
}
