package substratestore

import (
	"context"
	"math/big"

	"github.com/jackc/pgx/v5"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
)

type compositionRepo struct {
	q querier
}

func (r *compositionRepo) SaveComputed(ctx context.Context, computed []*substrate.ComputedComposition) error {
	if len(computed) == 0 {
		return nil
	}
	pr := &physicalityRepo{q: r.q}
	phys := make([]*substrate.Physicality, len(computed))
	for i, c := range computed {
		phys[i] = c.Physicality
	}
	if err := pr.SaveBatch(ctx, phys); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, c := range computed {
		batch.Queue(
			`INSERT INTO compositions (id, physicality_id) VALUES ($1, $2)
			 ON CONFLICT (id) DO NOTHING`,
			c.Composition.ID[:], c.Composition.PhysicalityID[:],
		)
		queued++
		for _, seq := range c.Sequence {
			batch.Queue(
				`INSERT INTO composition_sequences (id, composition_id, atom_id, ordinal, occurrences)
				 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
				seq.ID[:], seq.CompositionID[:], seq.AtomID[:], seq.Ordinal, seq.Occurrences,
			)
			queued++
		}
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to save composition batch")
		}
	}
	return nil
}

func (r *compositionRepo) FindByID(ctx context.Context, id substrate.ID) (*substrate.ComputedComposition, error) {
	var physBytes []byte
	err := r.q.QueryRow(ctx,
		`SELECT physicality_id FROM compositions WHERE id = $1`, id[:]).Scan(&physBytes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("composition not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to find composition")
	}

	var physID substrate.ID
	copy(physID[:], physBytes)
	phys, err := (&physicalityRepo{q: r.q}).FindByID(ctx, physID)
	if err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx,
		`SELECT id, atom_id, ordinal, occurrences FROM composition_sequences
		 WHERE composition_id = $1 ORDER BY ordinal`, id[:])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to load composition sequence")
	}
	defer rows.Close()

	var sequence []substrate.CompositionSequence
	for rows.Next() {
		var seqID, atomIDBytes []byte
		var seq substrate.CompositionSequence
		if err := rows.Scan(&seqID, &atomIDBytes, &seq.Ordinal, &seq.Occurrences); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to scan composition sequence row")
		}
		copy(seq.ID[:], seqID)
		copy(seq.AtomID[:], atomIDBytes)
		seq.CompositionID = id
		sequence = append(sequence, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &substrate.ComputedComposition{
		Composition: &substrate.Composition{ID: id, PhysicalityID: physID},
		Physicality: phys,
		Sequence:    sequence,
	}, nil
}

func (r *compositionRepo) Exists(ctx context.Context, ids []substrate.ID) (map[substrate.ID]bool, error) {
	out := make(map[substrate.ID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	idBytes := make([][]byte, len(ids))
	for i, id := range ids {
		idBytes[i] = id[:]
	}
	rows, err := r.q.Query(ctx, `SELECT id FROM compositions WHERE id = ANY($1)`, idBytes)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to check composition existence")
	}
	defer rows.Close()
	for rows.Next() {
		var idB []byte
		if err := rows.Scan(&idB); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to scan composition id")
		}
		var id substrate.ID
		copy(id[:], idB)
		out[id] = true
	}
	return out, rows.Err()
}

func (r *compositionRepo) FindNearCentroid(ctx context.Context, loIndex, hiIndex *big.Int, limit int) ([]*substrate.ComputedComposition, error) {
	rows, err := r.q.Query(ctx,
		`SELECT c.id, p.id, p.centroid, p.trajectory, p.hilbert_index
		 FROM compositions c
		 JOIN physicalities p ON p.id = c.physicality_id
		 WHERE p.hilbert_index::numeric BETWEEN $1::numeric AND $2::numeric
		 ORDER BY p.hilbert_index::numeric LIMIT $3`,
		loIndex.String(), hiIndex.String(), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to range-scan compositions")
	}
	defer rows.Close()

	var out []*substrate.ComputedComposition
	for rows.Next() {
		var compIDBytes []byte
		var physIDBytes []byte
		var centroid []float64
		var trajectory [][]float64
		var hilbertStr string
		if err := rows.Scan(&compIDBytes, &physIDBytes, &centroid, &trajectory, &hilbertStr); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to scan composition neighbor row")
		}

		var compID, physID substrate.ID
		copy(compID[:], compIDBytes)
		copy(physID[:], physIDBytes)

		phys := &substrate.Physicality{ID: physID, Trajectory: make([]geometry.Point, len(trajectory))}
		if len(centroid) == 4 {
			copy(phys.Centroid[:], centroid)
		}
		for i, pt := range trajectory {
			if len(pt) == 4 {
				copy(phys.Trajectory[i][:], pt)
			}
		}
		hilbert, ok := new(big.Int).SetString(hilbertStr, 10)
		if !ok {
			return nil, errors.New(errors.CodeDatabaseError, "malformed hilbert_index value")
		}
		phys.HilbertIndex = hilbert

		out = append(out, &substrate.ComputedComposition{
			Composition: &substrate.Composition{ID: compID, PhysicalityID: physID},
			Physicality: phys,
		})
	}
	return out, rows.Err()
}
