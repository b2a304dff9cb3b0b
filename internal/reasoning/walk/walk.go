// Package walk implements WalkEngine: a goal-attracted,
// energy-decaying random walk over the substrate's composition graph,
// sampling its next step via softmax over a weighted mixture of graph
// adjacency, geometric proximity, and goal attraction signals.
package walk

import (
	"context"
	"math"
	"math/big"
	"math/rand"
	"time"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/spatial"
)

const (
	// maxGraphNeighbors caps the relation-graph candidate query to at most
	// 500 graph neighbors, matching the idx_RelationSequence_
	// CompositionId-backed LIMIT the underlying query hardcodes.
	maxGraphNeighbors = 500

	// maxSpatialNeighbors caps the spatial-drift candidate query to at
	// most 20 spatial neighbors, enabling "creative" leaps between
	// compositions close in S³ but unlinked by any observed relation.
	maxSpatialNeighbors = 20

	// spatialWindowShift sizes the Hilbert-index range scan this package
	// uses in place of a PostGIS `centroid <-> point` KNN operator: no
	// store in this module exposes true nearest-neighbor
	// ordering (pkg/spatial itself already documents the Morton-curve
	// substitution this accepts), so FindNearCentroid's range is a
	// window of MaxIndex>>spatialWindowShift on either side of the current
	// composition's own Hilbert index — locality-preserving, not exact.
	spatialWindowShift = 100
)

// State is WalkState: the mutable position of a single in-progress walk.
type State struct {
	CurrentComposition substrate.ID
	CurrentPosition    geometry.Point
	PreviousPosition   geometry.Point
	CurrentEnergy      float64

	Trajectory  []substrate.ID
	VisitCounts map[substrate.ID]int
	recent      []substrate.ID // bounded to config.WalkConfig.RecentWindow, oldest first

	GoalComposition *substrate.ID
	GoalPosition    *geometry.Point
}

// StepResult is WalkStepResult: the outcome of a single Step call.
type StepResult struct {
	NextComposition substrate.ID
	Probability     float64
	EnergyRemaining float64
	Terminated      bool
	Reason          string
}

// candidate is the engine's internal scoring unit — never exposed outside
// a single Step call.
type candidate struct {
	id       substrate.ID
	position geometry.Point

	modelSim    float64
	textSim     float64
	relStrength float64
	geoSim      float64
	hilbertSim  float64
}

// Engine is WalkEngine. It holds no per-walk state of its own — every walk's
// state lives in a caller-owned *State — so one Engine is safe to drive many
// concurrent walks.
type Engine struct {
	relations     store.RelationRepository
	physicalities store.PhysicalityRepository
	compositions  store.CompositionRepository
	rng           *rand.Rand
}

// New returns an Engine backed by the given repositories, seeded from the
// current time. Use SetRand for deterministic tests.
func New(relations store.RelationRepository, physicalities store.PhysicalityRepository, compositions store.CompositionRepository) *Engine {
	return &Engine{
		relations:     relations,
		physicalities: physicalities,
		compositions:  compositions,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand overrides the Engine's random source, for reproducible tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.rng = rng
}

// InitWalk returns a fresh State rooted at startID with initialEnergy,
// resolving the starting composition's S³ centroid from the store.
func (e *Engine) InitWalk(ctx context.Context, startID substrate.ID, initialEnergy float64) (*State, error) {
	comp, err := e.compositions.FindByID(ctx, startID)
	if err != nil {
		return nil, err
	}
	pos := comp.Physicality.Centroid
	return &State{
		CurrentComposition: startID,
		CurrentPosition:    pos,
		PreviousPosition:   pos,
		CurrentEnergy:      initialEnergy,
		Trajectory:         []substrate.ID{startID},
		VisitCounts:        map[substrate.ID]int{startID: 1},
		recent:             []substrate.ID{startID},
	}, nil
}

// SetGoal attaches a goal composition to state, resolving its centroid so
// Step's goal-attraction term has a target to pull toward.
func (e *Engine) SetGoal(ctx context.Context, state *State, goalID substrate.ID) error {
	comp, err := e.compositions.FindByID(ctx, goalID)
	if err != nil {
		return err
	}
	goal := goalID
	pos := comp.Physicality.Centroid
	state.GoalComposition = &goal
	state.GoalPosition = &pos
	return nil
}

// Step advances state by one sampled move, via the candidate scoring
// formula and softmax selection. A terminal condition (out of energy,
// trapped, goal reached) is reported via StepResult.Terminated/Reason, not
// an error: walks surface structured failure in their result rather than
// raising.
func (e *Engine) Step(ctx context.Context, state *State, params config.WalkConfig) (*StepResult, error) {
	if state.CurrentEnergy <= 0 {
		return &StepResult{Terminated: true, Reason: "out of energy", EnergyRemaining: state.CurrentEnergy}, nil
	}

	candidates, err := e.getCandidates(ctx, state)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &StepResult{Terminated: true, Reason: "trapped", EnergyRemaining: state.CurrentEnergy}, nil
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = e.scoreCandidate(state, c, params)
	}

	temperature := math.Max(0.01, params.BaseTemperature+params.Alpha*state.CurrentEnergy)

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp((s - maxScore) / temperature)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	chosen := sampleIndex(e.rng, probs)
	selected := candidates[chosen]

	state.PreviousPosition = state.CurrentPosition
	state.CurrentComposition = selected.id
	state.CurrentPosition = selected.position
	state.CurrentEnergy -= params.EnergyDecay
	state.Trajectory = append(state.Trajectory, selected.id)
	state.VisitCounts[selected.id]++
	state.recent = appendRecent(state.recent, selected.id, params.RecentWindow)

	result := &StepResult{
		NextComposition: selected.id,
		Probability:     probs[chosen],
		EnergyRemaining: state.CurrentEnergy,
	}
	if state.GoalComposition != nil && *state.GoalComposition == state.CurrentComposition {
		result.Terminated = true
		result.Reason = "goal reached"
	}
	return result, nil
}

// getCandidates assembles the graph-neighbor and spatial-neighbor candidate
// pool for state.CurrentComposition, deduplicating spatial hits already
// present among the graph neighbors.
func (e *Engine) getCandidates(ctx context.Context, state *State) ([]candidate, error) {
	var out []candidate
	seen := make(map[substrate.ID]bool)

	neighbors, err := e.relations.FindNeighbors(ctx, state.CurrentComposition, 0, 0, maxGraphNeighbors)
	if err != nil {
		return nil, err
	}
	if len(neighbors) > 0 {
		physIDs := make([]substrate.ID, len(neighbors))
		for i, n := range neighbors {
			physIDs[i] = n.PhysicalityID
		}
		physByID, err := e.physicalities.FindByIDs(ctx, physIDs)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			phys, ok := physByID[n.PhysicalityID]
			if !ok {
				continue
			}
			dot := geometry.Dot(state.CurrentPosition, phys.Centroid)
			out = append(out, candidate{
				id:          n.CompositionID,
				position:    phys.Centroid,
				modelSim:    n.Rating / 2000.0,
				textSim:     math.Log1p(float64(n.Observations)) / 10.0,
				relStrength: float64(n.Observations),
				geoSim:      (dot + 1.0) / 2.0,
				hilbertSim:  0.5,
			})
			seen[n.CompositionID] = true
		}
	}

	cur, err := e.compositions.FindByID(ctx, state.CurrentComposition)
	if err != nil {
		return nil, err
	}
	if cur.Physicality == nil || cur.Physicality.HilbertIndex == nil {
		return out, nil
	}

	lo, hi := hilbertWindow(cur.Physicality.HilbertIndex)
	spatialNeighbors, err := e.compositions.FindNearCentroid(ctx, lo, hi, maxSpatialNeighbors+len(out))
	if err != nil {
		return nil, err
	}
	for _, sc := range spatialNeighbors {
		if sc.Composition.ID == state.CurrentComposition || seen[sc.Composition.ID] {
			continue
		}
		dot := geometry.Dot(state.CurrentPosition, sc.Physicality.Centroid)
		out = append(out, candidate{
			id:         sc.Composition.ID,
			position:   sc.Physicality.Centroid,
			modelSim:   0.5, // neutral — no observed graph adjacency
			geoSim:     (dot + 1.0) / 2.0,
			hilbertSim: 0.5,
		})
		seen[sc.Composition.ID] = true
	}

	return out, nil
}

// scoreCandidate computes a candidate's step score: the weighted mixture of
// adjacency signals, goal attraction, repetition/novelty penalties, and the
// energy-exploration bonus.
func (e *Engine) scoreCandidate(state *State, c candidate, params config.WalkConfig) float64 {
	score := params.WeightModel*c.modelSim +
		params.WeightText*c.textSim +
		params.WeightRelation*sigmoid(c.relStrength/100.0) +
		params.WeightGeo*c.geoSim +
		params.WeightHilbert*c.hilbertSim

	if state.GoalPosition != nil {
		gSim := geometry.Dot(*state.GoalPosition, c.position)
		score += params.GoalAttraction * (gSim + 1.0) / 2.0
	}

	if visits, ok := state.VisitCounts[c.id]; ok {
		score -= params.WeightRepeat * float64(visits)
	}
	for _, r := range state.recent {
		if r == c.id {
			score -= params.WeightNovelty
			break
		}
	}

	score += params.WeightEnergy * state.CurrentEnergy
	return score
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// sampleIndex draws an index from probs via inverse-CDF sampling.
func sampleIndex(rng *rand.Rand, probs []float64) int {
	draw := rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if draw < cum {
			return i
		}
	}
	return len(probs) - 1
}

// appendRecent pushes id onto recent, evicting the oldest entry once the
// window exceeds limit (fixed-size deque).
func appendRecent(recent []substrate.ID, id substrate.ID, limit int) []substrate.ID {
	recent = append(recent, id)
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	return recent
}

// hilbertWindow returns a Hilbert-index range centered on center, sized by
// spatialWindowShift.
func hilbertWindow(center *big.Int) (lo, hi *big.Int) {
	maxIndex := spatial.MaxIndex()

	radius := new(big.Int).Rsh(maxIndex, spatialWindowShift)
	lo = new(big.Int).Sub(center, radius)
	if lo.Sign() < 0 {
		lo = big.NewInt(0)
	}
	hi = new(big.Int).Add(center, radius)
	upperBound := new(big.Int).Sub(maxIndex, big.NewInt(1))
	if hi.Cmp(upperBound) > 0 {
		hi = upperBound
	}
	return lo, hi
}
