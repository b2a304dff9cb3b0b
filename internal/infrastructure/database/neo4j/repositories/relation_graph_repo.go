// Package repositories adapts Neo4j as an accelerated read path over the
// relation graph.
package repositories

import (
	"context"

	neo4jgo "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	infraNeo4j "github.com/hartonomous/substrate/internal/infrastructure/database/neo4j"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/hash"
)

// RelationGraphRepository is store.RelationRepository with FindNeighbors
// accelerated by a Cypher aggregation over a :Composition/:RELATES graph
// instead of the relational relation_sequences/relation_ratings join
// (accelerated neighbor aggregation). Every other method
// delegates straight to backing, the source-of-truth Postgres repository;
// SaveComputed and ApplyObservation additionally mirror their write into the
// graph so the accelerated read path never drifts from Postgres.
type RelationGraphRepository struct {
	driver  infraNeo4j.DriverInterface
	backing store.RelationRepository
	log     logging.Logger
}

var _ store.RelationRepository = (*RelationGraphRepository)(nil)

// NewRelationGraphRepository returns a RelationGraphRepository reading
// neighbor queries from driver's graph and everything else from backing.
func NewRelationGraphRepository(driver infraNeo4j.DriverInterface, backing store.RelationRepository, log logging.Logger) *RelationGraphRepository {
	return &RelationGraphRepository{driver: driver, backing: backing, log: log}
}

func (r *RelationGraphRepository) FindByID(ctx context.Context, id substrate.ID) (*substrate.Relation, error) {
	return r.backing.FindByID(ctx, id)
}

func (r *RelationGraphRepository) FindRating(ctx context.Context, relationID substrate.ID) (*substrate.RelationRating, error) {
	return r.backing.FindRating(ctx, relationID)
}

func (r *RelationGraphRepository) FindEvidence(ctx context.Context, contentID, relationID substrate.ID) (*substrate.RelationEvidence, error) {
	return r.backing.FindEvidence(ctx, contentID, relationID)
}

// SaveComputed persists computed to backing, then mirrors its two composition
// nodes and RELATES edge into the graph so FindNeighbors sees it immediately.
func (r *RelationGraphRepository) SaveComputed(ctx context.Context, computed *substrate.ComputedRelation) error {
	if err := r.backing.SaveComputed(ctx, computed); err != nil {
		return err
	}

	fromID := computed.Sequence[0].CompositionID.String()
	toID := computed.Sequence[1].CompositionID.String()
	relationID := computed.Relation.ID.String()
	rating, observations := 0.0, uint64(0)
	if computed.Rating != nil {
		rating = computed.Rating.Rating
		observations = computed.Rating.Observations
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MERGE (a:Composition {id: $fromId})
			MERGE (b:Composition {id: $toId})
			MERGE (a)-[rel:RELATES {relation_id: $relationId}]-(b)
			SET rel.rating = $rating, rel.observations = $observations
		`, map[string]any{
			"fromId": fromID, "toId": toID, "relationId": relationID,
			"rating": rating, "observations": observations,
		})
		return nil, err
	})
	if err != nil {
		r.log.Error("failed to mirror relation into graph", logging.Err(err), logging.String("relation_id", relationID))
		return errors.Wrap(err, errors.CodeGraphError, "failed to mirror relation into graph")
	}
	return nil
}

// ApplyObservation persists the rating update to backing, then mirrors it
// onto the graph edge identified by relationID.
func (r *RelationGraphRepository) ApplyObservation(ctx context.Context, relationID substrate.ID, newRating float64, newKFactor float64) error {
	if err := r.backing.ApplyObservation(ctx, relationID, newRating, newKFactor); err != nil {
		return err
	}

	rating, err := r.backing.FindRating(ctx, relationID)
	if err != nil {
		return err
	}

	_, err = r.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MATCH ()-[rel:RELATES {relation_id: $relationId}]-()
			SET rel.rating = $rating, rel.observations = $observations
		`, map[string]any{
			"relationId":   relationID.String(),
			"rating":       rating.Rating,
			"observations": rating.Observations,
		})
		return nil, err
	})
	if err != nil {
		r.log.Error("failed to mirror observation into graph", logging.Err(err), logging.String("relation_id", relationID.String()))
		return errors.Wrap(err, errors.CodeGraphError, "failed to mirror observation into graph")
	}
	return nil
}

// FindNeighbors aggregates max(rating)/sum(observations) per neighbor
// composition with one Cypher query — the accelerated alternative to
// relationRepo.FindNeighbors' relational join.
func (r *RelationGraphRepository) FindNeighbors(ctx context.Context, compositionID substrate.ID, minElo float64, minObservations uint64, limit int) ([]store.RelationNeighbor, error) {
	if limit <= 0 {
		limit = 500
	}

	res, err := r.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Composition {id: $id})-[rel:RELATES]-(neighbor:Composition)
			WITH neighbor, max(rel.rating) AS rating, sum(rel.observations) AS observations
			WHERE rating >= $minElo AND observations >= $minObservations
			RETURN neighbor.id AS id, rating, observations
			ORDER BY rating DESC
			LIMIT $limit
		`, map[string]any{
			"id": compositionID.String(), "minElo": minElo,
			"minObservations": minObservations, "limit": limit,
		})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, result, func(rec *neo4jgo.Record) (store.RelationNeighbor, error) {
			return recordToNeighbor(rec)
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeGraphError, "failed to query relation neighbors from graph")
	}
	return res.([]store.RelationNeighbor), nil
}

// recordToNeighbor decodes one FindNeighbors result row. The graph does not
// carry a neighbor's physicality id (that lives only in Postgres), so callers
// needing it resolve it separately through compositions.FindByID — the same
// gap WalkEngine's getCandidates already bridges for its spatial-neighbor
// merge step.
func recordToNeighbor(rec *neo4jgo.Record) (store.RelationNeighbor, error) {
	idVal, _ := rec.Get("id")
	ratingVal, _ := rec.Get("rating")
	obsVal, _ := rec.Get("observations")

	idStr, _ := idVal.(string)
	id, err := hash.Parse(idStr)
	if err != nil {
		return store.RelationNeighbor{}, errors.Wrap(err, errors.CodeGraphError, "invalid composition id in graph")
	}

	var n store.RelationNeighbor
	n.CompositionID = id
	if f, ok := ratingVal.(float64); ok {
		n.Rating = f
	}
	if i, ok := obsVal.(int64); ok {
		n.Observations = uint64(i)
	}
	return n, nil
}
