package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
)

// stubSession/fakeInternalDriver implement this package's own
// internalSession/internalDriver interfaces directly, sidestepping
// neo4j-go-driver's unconstructable concrete types (ManagedTransaction has no
// public constructor) the same way the package's real stdSession/stdDriver
// wrap the driver instead of being wrapped by a mocking library.

type stubSession struct {
	executeReadFn  func(ctx context.Context, work func(Transaction) (any, error)) (any, error)
	executeWriteFn func(ctx context.Context, work func(Transaction) (any, error)) (any, error)
	closed         bool
}

func (s *stubSession) ExecuteRead(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return s.executeReadFn(ctx, work)
}

func (s *stubSession) ExecuteWrite(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return s.executeWriteFn(ctx, work)
}

func (s *stubSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeInternalDriver struct {
	verifyErr  error
	session    *stubSession
	closeCalls int
}

func (d *fakeInternalDriver) VerifyConnectivity(ctx context.Context) error {
	return d.verifyErr
}

func (d *fakeInternalDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession {
	return d.session
}

func (d *fakeInternalDriver) Close(ctx context.Context) error {
	d.closeCalls++
	return nil
}

func TestDriver_ExecuteRead_Success(t *testing.T) {
	sess := &stubSession{
		executeReadFn: func(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
			return "ok", nil
		},
	}
	d := &Driver{
		driver: &fakeInternalDriver{session: sess},
		logger: logging.NewNopLogger(),
	}

	result, err := d.ExecuteRead(context.Background(), func(tx Transaction) (interface{}, error) {
		return "unused", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.True(t, sess.closed)
}

func TestDriver_ExecuteRead_Error(t *testing.T) {
	sess := &stubSession{
		executeReadFn: func(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
			return nil, errors.New("boom")
		},
	}
	d := &Driver{
		driver: &fakeInternalDriver{session: sess},
		logger: logging.NewNopLogger(),
	}

	_, err := d.ExecuteRead(context.Background(), func(tx Transaction) (interface{}, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestDriver_ExecuteWrite_Success(t *testing.T) {
	sess := &stubSession{
		executeWriteFn: func(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
			return int64(3), nil
		},
	}
	d := &Driver{
		driver: &fakeInternalDriver{session: sess},
		logger: logging.NewNopLogger(),
	}

	result, err := d.ExecuteWrite(context.Background(), func(tx Transaction) (interface{}, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result)
}

func TestDriver_Close_Success(t *testing.T) {
	fd := &fakeInternalDriver{}
	d := &Driver{
		driver: fd,
		logger: logging.NewNopLogger(),
	}

	err := d.Close()
	require.NoError(t, err)
	assert.Equal(t, 1, fd.closeCalls)

	// sync.Once guards against double-close.
	err = d.Close()
	require.NoError(t, err)
	assert.Equal(t, 1, fd.closeCalls)
}

func TestDriver_HealthCheck_ConnectivityFailure(t *testing.T) {
	d := &Driver{
		driver: &fakeInternalDriver{verifyErr: errors.New("unreachable")},
		logger: logging.NewNopLogger(),
	}

	err := d.HealthCheck(context.Background())
	assert.Error(t, err)
}
