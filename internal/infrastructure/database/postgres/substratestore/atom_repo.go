package substratestore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/errors"
)

type atomRepo struct {
	q querier
}

func (r *atomRepo) SaveBatch(ctx context.Context, atoms []*substrate.Atom) error {
	if len(atoms) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range atoms {
		batch.Queue(
			`INSERT INTO atoms (id, codepoint, physicality_id) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			a.ID[:], a.Codepoint, a.PhysicalityID[:],
		)
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range atoms {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to save atom batch")
		}
	}
	return nil
}

func (r *atomRepo) FindByCodepoint(ctx context.Context, codepoint uint32) (*substrate.Atom, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, codepoint, physicality_id FROM atoms WHERE codepoint = $1`, codepoint)
	return scanAtomRows(row)
}

func (r *atomRepo) FindByCodepoints(ctx context.Context, codepoints []uint32) (map[uint32]*substrate.Atom, error) {
	out := make(map[uint32]*substrate.Atom, len(codepoints))
	if len(codepoints) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT id, codepoint, physicality_id FROM atoms WHERE codepoint = ANY($1)`, codepoints)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to batch-query atoms")
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAtomRows(rows)
		if err != nil {
			return nil, err
		}
		out[a.Codepoint] = a
	}
	return out, rows.Err()
}

func (r *atomRepo) LoadAll(ctx context.Context) (map[uint32]*substrate.Atom, error) {
	out := make(map[uint32]*substrate.Atom)
	rows, err := r.q.Query(ctx, `SELECT id, codepoint, physicality_id FROM atoms`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to stream atoms")
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAtomRows(rows)
		if err != nil {
			return nil, err
		}
		out[a.Codepoint] = a
	}
	return out, rows.Err()
}

func (r *atomRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM atoms`).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeDBQueryError, "failed to count atoms")
	}
	return n, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAtomRows(row rowScanner) (*substrate.Atom, error) {
	var a substrate.Atom
	var idBytes, physBytes []byte
	if err := row.Scan(&idBytes, &a.Codepoint, &physBytes); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.CodeCodepointNotSeeded, "codepoint not seeded")
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to scan atom row")
	}
	copy(a.ID[:], idBytes)
	copy(a.PhysicalityID[:], physBytes)
	return &a, nil
}
