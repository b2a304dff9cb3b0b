package substratestore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/errors"
)

type relationRepo struct {
	q querier
}

func (r *relationRepo) SaveComputed(ctx context.Context, computed *substrate.ComputedRelation) error {
	pr := &physicalityRepo{q: r.q}
	if err := pr.SaveBatch(ctx, []*substrate.Physicality{computed.Physicality}); err != nil {
		return err
	}

	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM relations WHERE id = $1)`,
		computed.Relation.ID[:]).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "failed to check relation existence")
	}

	if !exists {
		batch := &pgx.Batch{}
		batch.Queue(
			`INSERT INTO relations (id, physicality_id) VALUES ($1, $2)`,
			computed.Relation.ID[:], computed.Relation.PhysicalityID[:],
		)
		for _, seq := range computed.Sequence {
			batch.Queue(
				`INSERT INTO relation_sequences (id, relation_id, composition_id, ordinal)
				 VALUES ($1, $2, $3, $4)`,
				seq.ID[:], seq.RelationID[:], seq.CompositionID[:], seq.Ordinal,
			)
		}
		batch.Queue(
			`INSERT INTO relation_ratings (relation_id, observations, rating, k_factor)
			 VALUES ($1, $2, $3, $4)`,
			computed.Rating.RelationID[:], computed.Rating.Observations, computed.Rating.Rating, computed.Rating.KFactor,
		)
		results := r.q.SendBatch(ctx, batch)
		n := 2 + len(computed.Sequence)
		for i := 0; i < n; i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return errors.Wrap(err, errors.CodeDatabaseError, "failed to save new relation")
			}
		}
		if err := results.Close(); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "failed to finalize relation batch")
		}
	}

	return r.upsertEvidence(ctx, computed.Evidence)
}

// upsertEvidence coalesces on max signal strength: a row for
// (content_id, relation_id) already present is only overwritten if the new
// evidence's signal is strictly stronger.
func (r *relationRepo) upsertEvidence(ctx context.Context, ev *substrate.RelationEvidence) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO relation_evidence (id, content_id, relation_id, is_valid, source_rating, signal_strength)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (content_id, relation_id) DO UPDATE SET
		   id = EXCLUDED.id,
		   is_valid = EXCLUDED.is_valid,
		   source_rating = EXCLUDED.source_rating,
		   signal_strength = EXCLUDED.signal_strength
		 WHERE EXCLUDED.signal_strength > relation_evidence.signal_strength`,
		ev.ID[:], ev.ContentID[:], ev.RelationID[:], ev.IsValid, ev.SourceRating, ev.SignalStrength,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to upsert relation evidence")
	}
	return nil
}

func (r *relationRepo) FindByID(ctx context.Context, id substrate.ID) (*substrate.Relation, error) {
	var physBytes []byte
	err := r.q.QueryRow(ctx, `SELECT physicality_id FROM relations WHERE id = $1`, id[:]).Scan(&physBytes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("relation not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to find relation")
	}
	rel := &substrate.Relation{ID: id}
	copy(rel.PhysicalityID[:], physBytes)
	return rel, nil
}

func (r *relationRepo) FindRating(ctx context.Context, relationID substrate.ID) (*substrate.RelationRating, error) {
	var rating substrate.RelationRating
	rating.RelationID = relationID
	err := r.q.QueryRow(ctx,
		`SELECT observations, rating, k_factor FROM relation_ratings WHERE relation_id = $1`, relationID[:],
	).Scan(&rating.Observations, &rating.Rating, &rating.KFactor)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("relation rating not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to find relation rating")
	}
	return &rating, nil
}

func (r *relationRepo) ApplyObservation(ctx context.Context, relationID substrate.ID, newRating, newKFactor float64) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE relation_ratings SET observations = observations + 1, rating = $2, k_factor = $3
		 WHERE relation_id = $1`,
		relationID[:], newRating, newKFactor,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to apply relation observation")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("relation rating not found")
	}
	return nil
}

func (r *relationRepo) FindEvidence(ctx context.Context, contentID, relationID substrate.ID) (*substrate.RelationEvidence, error) {
	ev := &substrate.RelationEvidence{ContentID: contentID, RelationID: relationID}
	var idBytes []byte
	err := r.q.QueryRow(ctx,
		`SELECT id, is_valid, source_rating, signal_strength FROM relation_evidence
		 WHERE content_id = $1 AND relation_id = $2`, contentID[:], relationID[:],
	).Scan(&idBytes, &ev.IsValid, &ev.SourceRating, &ev.SignalStrength)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("relation evidence not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to find relation evidence")
	}
	copy(ev.ID[:], idBytes)
	return ev, nil
}

func (r *relationRepo) FindNeighbors(ctx context.Context, compositionID substrate.ID, minElo float64, minObservations uint64, limit int) ([]store.RelationNeighbor, error) {
	rows, err := r.q.Query(ctx,
		`SELECT rs2.composition_id, c.physicality_id,
		        MAX(rt.rating) AS rating, SUM(rt.observations) AS observations
		 FROM relation_sequences rs1
		 JOIN relation_sequences rs2 ON rs2.relation_id = rs1.relation_id
		                             AND rs2.composition_id != rs1.composition_id
		 JOIN relation_ratings rt ON rt.relation_id = rs1.relation_id
		 JOIN compositions c ON c.id = rs2.composition_id
		 WHERE rs1.composition_id = $1
		 GROUP BY rs2.composition_id, c.physicality_id
		 HAVING MAX(rt.rating) >= $2 AND SUM(rt.observations) >= $3
		 ORDER BY MAX(rt.rating) DESC
		 LIMIT $4`,
		compositionID[:], minElo, minObservations, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to query relation neighbors")
	}
	defer rows.Close()

	var out []store.RelationNeighbor
	for rows.Next() {
		var compBytes, physBytes []byte
		var n store.RelationNeighbor
		if err := rows.Scan(&compBytes, &physBytes, &n.Rating, &n.Observations); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "failed to scan relation neighbor row")
		}
		copy(n.CompositionID[:], compBytes)
		copy(n.PhysicalityID[:], physBytes)
		out = append(out, n)
	}
	return out, rows.Err()
}
