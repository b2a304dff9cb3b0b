// Package astar implements an optimal path search over the substrate's
// composition graph, using an S³ geodesic admissible heuristic and
// ELO/observation-derived edge costs.
package astar

import (
	"container/heap"
	"context"
	"math"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/geometry"
)

// staleEpsilon bounds the slack tolerated when deciding a popped queue entry
// is stale (its f was computed against a g-cost since improved upon),
// matching `f > g + w*π + 0.001` guard.
const staleEpsilon = 0.001

// Path is AStarPath: the outcome of a Search call.
type Path struct {
	Nodes           []substrate.ID
	Texts           []string
	TotalCost       float64
	AvgElo          float64
	AvgObservations float64
	Found           bool
	NodesExpanded   int
}

// TextLookup resolves a Composition's readable reconstructed text, and the
// reverse lookup SearchText needs. It is optional: a nil TextLookup leaves
// Path.Texts empty and SearchText unusable. The natural home for an
// implementation is an OpenSearch-backed composition-text index — see
// internal/infrastructure/search/opensearch — left as the wiring point for
// that adapter rather than duplicated here.
type TextLookup interface {
	LookupText(ctx context.Context, id substrate.ID) (string, error)
	FindComposition(ctx context.Context, text string) (substrate.ID, bool, error)
}

// Engine is AStarSearch. It holds no per-search state — position and text
// lookups are cached locally within a single Search call: caches are
// per-request, not shared.
type Engine struct {
	relations    store.RelationRepository
	compositions store.CompositionRepository
	texts        TextLookup
}

// New returns an Engine. texts may be nil; SearchText then always fails and
// every Path's Texts field stays empty.
func New(relations store.RelationRepository, compositions store.CompositionRepository, texts TextLookup) *Engine {
	return &Engine{relations: relations, compositions: compositions, texts: texts}
}

// neighbor is the aggregated edge data resolved per candidate: max ELO,
// summed observations across every Relation joining two compositions.
type neighbor struct {
	id  substrate.ID
	elo float64
	obs float64
}

// pqEntry is one (f_cost, composition) entry in the open set.
type pqEntry struct {
	f  float64
	id substrate.ID
}

type priorityQueue []pqEntry

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].f < pq[j].f }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqEntry)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Search finds the optimal path from start to goal. A* never reaches the
// goal (expansion budget exhausted, or start/goal has no cached position),
// Path.Found is false rather than an error — "searches surface
// structured failure in their result ... rather than raising."
func (e *Engine) Search(ctx context.Context, start, goal substrate.ID, cfg config.AStarConfig) (*Path, error) {
	return e.search(ctx, start, []substrate.ID{goal}, cfg)
}

// SearchMultiGoal finds the shortest path from start to whichever member of
// goals is reached first, using the minimum geodesic distance to any goal as
// the heuristic (multi-goal variant).
func (e *Engine) SearchMultiGoal(ctx context.Context, start substrate.ID, goals []substrate.ID, cfg config.AStarConfig) (*Path, error) {
	if len(goals) == 0 {
		return &Path{Found: false}, nil
	}
	return e.search(ctx, start, goals, cfg)
}

// SearchText resolves startText and goalText to composition ids via the
// configured TextLookup, then delegates to Search.
func (e *Engine) SearchText(ctx context.Context, startText, goalText string, cfg config.AStarConfig) (*Path, error) {
	if e.texts == nil {
		return &Path{Found: false}, nil
	}
	start, ok, err := e.texts.FindComposition(ctx, startText)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Path{Found: false}, nil
	}
	goal, ok, err := e.texts.FindComposition(ctx, goalText)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Path{Found: false}, nil
	}
	return e.Search(ctx, start, goal, cfg)
}

func (e *Engine) search(ctx context.Context, start substrate.ID, goals []substrate.ID, cfg config.AStarConfig) (*Path, error) {
	positions := make(map[substrate.ID]geometry.Point)

	startPos, ok, err := e.loadPosition(ctx, positions, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Path{Found: false}, nil
	}

	goalPositions := make(map[substrate.ID]geometry.Point, len(goals))
	for _, g := range goals {
		pos, ok, err := e.loadPosition(ctx, positions, g)
		if err != nil {
			return nil, err
		}
		if ok {
			goalPositions[g] = pos
		}
	}
	if len(goalPositions) == 0 {
		return &Path{Found: false}, nil
	}

	heuristic := func(pos geometry.Point) float64 {
		minH := math.Pi
		for _, gpos := range goalPositions {
			if h := geometry.Geodesic(pos, gpos); h < minH {
				minH = h
			}
		}
		return minH
	}

	gCosts := map[substrate.ID]float64{start: 0}
	parents := make(map[substrate.ID]substrate.ID)
	edgeElo := make(map[substrate.ID]float64)
	edgeObs := make(map[substrate.ID]float64)

	open := &priorityQueue{{f: cfg.HeuristicWeight * heuristic(startPos), id: start}}
	heap.Init(open)

	expanded := 0
	for open.Len() > 0 && expanded < cfg.MaxExpansions {
		entry := heap.Pop(open).(pqEntry)
		f, current := entry.f, entry.id

		if g, ok := gCosts[current]; ok && f > g+cfg.HeuristicWeight*math.Pi+staleEpsilon {
			continue
		}

		if _, isGoal := goalPositions[current]; isGoal {
			return e.buildPath(ctx, start, current, gCosts[current], expanded, parents, edgeElo, edgeObs)
		}

		expanded++

		neighbors, err := e.neighbors(ctx, current, cfg)
		if err != nil {
			return nil, err
		}
		currentG := gCosts[current]

		for _, n := range neighbors {
			tentativeG := currentG + edgeCost(n.elo, n.obs)
			if existing, ok := gCosts[n.id]; ok && tentativeG >= existing {
				continue
			}

			gCosts[n.id] = tentativeG
			parents[n.id] = current
			edgeElo[n.id] = n.elo
			edgeObs[n.id] = n.obs

			h := math.Pi
			if pos, ok, err := e.loadPosition(ctx, positions, n.id); err != nil {
				return nil, err
			} else if ok {
				h = heuristic(pos)
			}

			heap.Push(open, pqEntry{f: tentativeG + cfg.HeuristicWeight*h, id: n.id})
		}
	}

	return &Path{Found: false, NodesExpanded: expanded}, nil
}

// buildPath reconstructs the path from start to reached by walking parents
// backward, then computes total cost and per-edge ELO/observation averages
// (output contract).
func (e *Engine) buildPath(ctx context.Context, start, reached substrate.ID, totalCost float64, expanded int, parents map[substrate.ID]substrate.ID, edgeElo, edgeObs map[substrate.ID]float64) (*Path, error) {
	var nodes []substrate.ID
	node := reached
	for node != start {
		nodes = append(nodes, node)
		parent, ok := parents[node]
		if !ok {
			break
		}
		node = parent
	}
	nodes = append(nodes, start)
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	var eloSum, obsSum float64
	var edgeCount int
	for _, n := range nodes {
		if elo, ok := edgeElo[n]; ok {
			eloSum += elo
			obsSum += edgeObs[n]
			edgeCount++
		}
	}

	texts := make([]string, 0, len(nodes))
	if e.texts != nil {
		for _, n := range nodes {
			text, err := e.texts.LookupText(ctx, n)
			if err != nil {
				return nil, err
			}
			texts = append(texts, text)
		}
	}

	path := &Path{
		Nodes:         nodes,
		Texts:         texts,
		TotalCost:     totalCost,
		Found:         true,
		NodesExpanded: expanded,
	}
	if edgeCount > 0 {
		path.AvgElo = eloSum / float64(edgeCount)
		path.AvgObservations = obsSum / float64(edgeCount)
	}
	return path, nil
}

// neighbors resolves the ELO/observation-aggregated neighbor set for id,
// applying cfg's admissibility filters.
func (e *Engine) neighbors(ctx context.Context, id substrate.ID, cfg config.AStarConfig) ([]neighbor, error) {
	rn, err := e.relations.FindNeighbors(ctx, id, cfg.MinElo, uint64(cfg.MinObservations), 0)
	if err != nil {
		return nil, err
	}
	out := make([]neighbor, len(rn))
	for i, n := range rn {
		out[i] = neighbor{id: n.CompositionID, elo: n.Rating, obs: float64(n.Observations)}
	}
	return out, nil
}

// loadPosition resolves id's S³ centroid, caching the result in cache for
// the remainder of one search call.
func (e *Engine) loadPosition(ctx context.Context, cache map[substrate.ID]geometry.Point, id substrate.ID) (geometry.Point, bool, error) {
	if pos, ok := cache[id]; ok {
		return pos, true, nil
	}
	comp, err := e.compositions.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return geometry.Point{}, false, nil
		}
		return geometry.Point{}, false, err
	}
	if comp.Physicality == nil {
		return geometry.Point{}, false, nil
	}
	pos := comp.Physicality.Centroid
	cache[id] = pos
	return pos, true, nil
}

// edgeCost computes c(u,v) = 1 / (elo_norm · obs_norm): high-ELO,
// well-evidenced relations are cheap to traverse; weak or sparsely-observed
// ones are expensive.
func edgeCost(elo, observations float64) float64 {
	eloNorm := clamp((elo-800.0)/1200.0, 0.01, 1.0)
	obsNorm := clamp(math.Log(observations+1.0)/math.Log(1000.0), 0.01, 1.0)
	return 1.0 / (eloNorm * obsNorm)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
