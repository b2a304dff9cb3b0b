package walk

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/pkg/geometry"
	"github.com/hartonomous/substrate/pkg/spatial"
)

func testParams() config.WalkConfig {
	return config.WalkConfig{
		WeightModel:     0.35,
		WeightText:      0.40,
		WeightRelation:  0.15,
		WeightGeo:       0.05,
		WeightHilbert:   0.05,
		WeightRepeat:    0.25,
		WeightNovelty:   0.15,
		GoalAttraction:  2.0,
		WeightEnergy:    0.10,
		BaseTemperature: 0.4,
		Alpha:           0.6,
		EnergyDecay:     0.05,
		RecentWindow:    16,
	}
}

func TestSampleIndex_DeterministicWhenOneProbDominates(t *testing.T) {
	probs := []float64{1, 0, 0}
	for _, seed := range []int64{1, 2, 3, 42, 1000} {
		rng := rand.New(rand.NewSource(seed))
		assert.Equal(t, 0, sampleIndex(rng, probs))
	}
}

func TestSampleIndex_SingleCandidateAlwaysChosen(t *testing.T) {
	probs := []float64{1}
	rng := rand.New(rand.NewSource(7))
	assert.Equal(t, 0, sampleIndex(rng, probs))
}

func TestScoreCandidate_HigherRatingYieldsHigherScore(t *testing.T) {
	e := &Engine{}
	state := &State{VisitCounts: map[substrate.ID]int{}}
	params := testParams()

	highRated := candidate{modelSim: 0.9, relStrength: 500, textSim: 0.3}
	lowRated := candidate{modelSim: 0.1, relStrength: 5, textSim: 0.0}

	assert.Greater(t, e.scoreCandidate(state, highRated, params), e.scoreCandidate(state, lowRated, params))
}

func TestScoreCandidate_GoalAttractionPullsTowardAlignedCandidate(t *testing.T) {
	e := &Engine{}
	params := testParams()

	goalPos := geometry.Point{0, 1, 0, 0}
	state := &State{VisitCounts: map[substrate.ID]int{}, GoalPosition: &goalPos}

	aligned := candidate{position: geometry.Point{0, 1, 0, 0}}
	opposed := candidate{position: geometry.Point{0, -1, 0, 0}}

	assert.Greater(t, e.scoreCandidate(state, aligned, params), e.scoreCandidate(state, opposed, params))
}

func TestScoreCandidate_RepeatPenaltyReducesScore(t *testing.T) {
	e := &Engine{}
	params := testParams()

	var id substrate.ID
	id[0] = 1
	c := candidate{id: id}

	fresh := &State{VisitCounts: map[substrate.ID]int{}}
	visited := &State{VisitCounts: map[substrate.ID]int{id: 5}}

	assert.Greater(t, e.scoreCandidate(fresh, c, params), e.scoreCandidate(visited, c, params))
}

func TestScoreCandidate_NoveltyPenaltyAppliesWhenRecentlyVisited(t *testing.T) {
	e := &Engine{}
	params := testParams()

	var id substrate.ID
	id[0] = 2
	c := candidate{id: id}

	novel := &State{VisitCounts: map[substrate.ID]int{}}
	recent := &State{VisitCounts: map[substrate.ID]int{}, recent: []substrate.ID{id}}

	assert.Greater(t, e.scoreCandidate(novel, c, params), e.scoreCandidate(recent, c, params))
}

func TestAppendRecent_EvictsOldestBeyondWindow(t *testing.T) {
	var ids []substrate.ID
	for i := 0; i < 5; i++ {
		var id substrate.ID
		id[0] = byte(i)
		ids = append(ids, id)
	}

	var recent []substrate.ID
	for _, id := range ids {
		recent = appendRecent(recent, id, 3)
	}

	assert.Len(t, recent, 3)
	assert.Equal(t, ids[2:], recent)
}

func TestHilbertWindow_StaysWithinValidRange(t *testing.T) {
	center := new(big.Int).Rsh(spatial.MaxIndex(), 1) // midpoint
	lo, hi := hilbertWindow(center)

	assert.True(t, lo.Sign() >= 0)
	assert.True(t, hi.Cmp(spatial.MaxIndex()) < 0)
	assert.True(t, lo.Cmp(center) <= 0)
	assert.True(t, hi.Cmp(center) >= 0)
}

func TestHilbertWindow_ClampsNearZero(t *testing.T) {
	lo, _ := hilbertWindow(big.NewInt(0))
	assert.Equal(t, 0, lo.Sign())
}
