package substratestore

import (
	"context"
	"math/big"

	"github.com/jackc/pgx/v5"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
)

type physicalityRepo struct {
	q querier
}

func (r *physicalityRepo) SaveBatch(ctx context.Context, physicalities []*substrate.Physicality) error {
	if len(physicalities) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range physicalities {
		batch.Queue(
			`INSERT INTO physicalities (id, centroid, trajectory, hilbert_index)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
			p.ID[:], centroidToSlice(p.Centroid), trajectoryToSlice(p.Trajectory), p.HilbertIndex.String(),
		)
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range physicalities {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to save physicality batch")
		}
	}
	return nil
}

func (r *physicalityRepo) FindByID(ctx context.Context, id substrate.ID) (*substrate.Physicality, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, centroid, trajectory, hilbert_index FROM physicalities WHERE id = $1`, id[:])
	return scanPhysicalityRow(row)
}

func (r *physicalityRepo) FindByIDs(ctx context.Context, ids []substrate.ID) (map[substrate.ID]*substrate.Physicality, error) {
	out := make(map[substrate.ID]*substrate.Physicality, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	idBytes := make([][]byte, len(ids))
	for i, id := range ids {
		idBytes[i] = id[:]
	}
	rows, err := r.q.Query(ctx,
		`SELECT id, centroid, trajectory, hilbert_index FROM physicalities WHERE id = ANY($1)`, idBytes)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to batch-query physicalities")
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPhysicalityRow(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *physicalityRepo) FindNearCentroid(ctx context.Context, loIndex, hiIndex *big.Int, limit int) ([]*substrate.Physicality, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, centroid, trajectory, hilbert_index FROM physicalities
		 WHERE hilbert_index::numeric BETWEEN $1::numeric AND $2::numeric
		 ORDER BY hilbert_index::numeric LIMIT $3`,
		loIndex.String(), hiIndex.String(), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to range-scan physicalities")
	}
	defer rows.Close()

	var out []*substrate.Physicality
	for rows.Next() {
		p, err := scanPhysicalityRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPhysicalityRow(row rowScanner) (*substrate.Physicality, error) {
	var idBytes []byte
	var centroid []float64
	var trajectory [][]float64
	var hilbertStr string

	if err := row.Scan(&idBytes, &centroid, &trajectory, &hilbertStr); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("physicality not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to scan physicality row")
	}

	p := &substrate.Physicality{
		Trajectory: make([]geometry.Point, len(trajectory)),
	}
	copy(p.ID[:], idBytes)
	if len(centroid) == 4 {
		copy(p.Centroid[:], centroid)
	}
	for i, pt := range trajectory {
		if len(pt) == 4 {
			copy(p.Trajectory[i][:], pt)
		}
	}

	hilbert, ok := new(big.Int).SetString(hilbertStr, 10)
	if !ok {
		return nil, errors.New(errors.CodeDatabaseError, "malformed hilbert_index value")
	}
	p.HilbertIndex = hilbert

	return p, nil
}

func centroidToSlice(p geometry.Point) []float64 {
	return []float64{p[0], p[1], p[2], p[3]}
}

func trajectoryToSlice(pts []geometry.Point) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = centroidToSlice(p)
	}
	return out
}
