// Package handlers: substrate query surface.
//
// SubstrateHandler exposes the read-side of the reasoning engines (WalkEngine,
// AStarSearch) and the Atom/Physicality lookup cache over HTTP as an
// unauthenticated, internal query API — there is no tenant or user identity
// in this system, so these handlers take no auth context.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hartonomous/substrate/internal/atomstore"
	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/domain/substrate"
	"github.com/hartonomous/substrate/internal/reasoning/astar"
	"github.com/hartonomous/substrate/internal/reasoning/walk"
	"github.com/hartonomous/substrate/pkg/errors"
	"github.com/hartonomous/substrate/pkg/hash"
)

// SubstrateHandler wires the WalkEngine, AStarSearch, and AtomLookup cache
// into the HTTP surface.
type SubstrateHandler struct {
	walkEngine  *walk.Engine
	astarEngine *astar.Engine
	atoms       atomstore.Lookup
	walkCfg     config.WalkConfig
	astarCfg    config.AStarConfig
}

// NewSubstrateHandler constructs a SubstrateHandler. astarEngine may be nil
// if the relation-graph read path is not wired (POST /v1/astar then 501s).
func NewSubstrateHandler(walkEngine *walk.Engine, astarEngine *astar.Engine, atoms atomstore.Lookup, walkCfg config.WalkConfig, astarCfg config.AStarConfig) *SubstrateHandler {
	return &SubstrateHandler{
		walkEngine:  walkEngine,
		astarEngine: astarEngine,
		atoms:       atoms,
		walkCfg:     walkCfg,
		astarCfg:    astarCfg,
	}
}

// RegisterRoutes mounts the substrate query endpoints under /v1.
func (h *SubstrateHandler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/walk", h.Walk)
	v1.POST("/astar", h.AStar)
	v1.GET("/atoms/:cp", h.GetAtom)
}

// WalkRequest drives a single goal-attracted random walk to completion (or
// MaxSteps, whichever comes first).
type WalkRequest struct {
	StartID       string  `json:"start_id" binding:"required"`
	GoalID        string  `json:"goal_id,omitempty"`
	InitialEnergy float64 `json:"initial_energy"`
	MaxSteps      int     `json:"max_steps"`
}

// WalkStepResponse mirrors walk.StepResult for wire transport.
type WalkStepResponse struct {
	Composition     string  `json:"composition"`
	Probability     float64 `json:"probability"`
	EnergyRemaining float64 `json:"energy_remaining"`
	Terminated      bool    `json:"terminated"`
	Reason          string  `json:"reason,omitempty"`
}

// WalkResponse is the full trajectory produced by Walk.
type WalkResponse struct {
	Trajectory []string           `json:"trajectory"`
	Steps      []WalkStepResponse `json:"steps"`
}

const (
	defaultInitialEnergy = 1.0
	defaultMaxWalkSteps  = 100
	maxWalkSteps         = 10_000
)

// Walk handles POST /v1/walk.
func (h *SubstrateHandler) Walk(c *gin.Context) {
	var req WalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "invalid walk request body"))
		return
	}

	startID, err := hash.Parse(req.StartID)
	if err != nil {
		writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "invalid start_id"))
		return
	}

	energy := req.InitialEnergy
	if energy <= 0 {
		energy = defaultInitialEnergy
	}
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxWalkSteps
	}
	if maxSteps > maxWalkSteps {
		maxSteps = maxWalkSteps
	}

	ctx := c.Request.Context()
	state, err := h.walkEngine.InitWalk(ctx, substrate.ID(startID), energy)
	if err != nil {
		writeAppError(c.Writer, err)
		return
	}

	if req.GoalID != "" {
		goalID, err := hash.Parse(req.GoalID)
		if err != nil {
			writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "invalid goal_id"))
			return
		}
		if err := h.walkEngine.SetGoal(ctx, state, substrate.ID(goalID)); err != nil {
			writeAppError(c.Writer, err)
			return
		}
	}

	resp := WalkResponse{Steps: make([]WalkStepResponse, 0, maxSteps)}
	for i := 0; i < maxSteps; i++ {
		result, err := h.walkEngine.Step(ctx, state, h.walkCfg)
		if err != nil {
			writeAppError(c.Writer, err)
			return
		}
		resp.Steps = append(resp.Steps, WalkStepResponse{
			Composition:     result.NextComposition.String(),
			Probability:     result.Probability,
			EnergyRemaining: result.EnergyRemaining,
			Terminated:      result.Terminated,
			Reason:          result.Reason,
		})
		if result.Terminated {
			break
		}
	}

	resp.Trajectory = make([]string, len(state.Trajectory))
	for i, id := range state.Trajectory {
		resp.Trajectory[i] = id.String()
	}

	c.JSON(http.StatusOK, resp)
}

// AStarRequest requests a single optimal path between two compositions.
type AStarRequest struct {
	StartID string   `json:"start_id" binding:"required"`
	GoalID  string   `json:"goal_id"`
	GoalIDs []string `json:"goal_ids,omitempty"`
}

// AStarResponse mirrors astar.Path for wire transport.
type AStarResponse struct {
	Nodes           []string `json:"nodes"`
	Texts           []string `json:"texts,omitempty"`
	TotalCost       float64  `json:"total_cost"`
	AvgElo          float64  `json:"avg_elo"`
	AvgObservations float64  `json:"avg_observations"`
	Found           bool     `json:"found"`
	NodesExpanded   int      `json:"nodes_expanded"`
}

// AStar handles POST /v1/astar.
func (h *SubstrateHandler) AStar(c *gin.Context) {
	if h.astarEngine == nil {
		writeAppError(c.Writer, errors.New(errors.CodeNotImplemented, "astar search is not wired on this server"))
		return
	}

	var req AStarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "invalid astar request body"))
		return
	}

	startID, err := hash.Parse(req.StartID)
	if err != nil {
		writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "invalid start_id"))
		return
	}

	ctx := c.Request.Context()
	var path *astar.Path
	switch {
	case len(req.GoalIDs) > 0:
		goals := make([]substrate.ID, 0, len(req.GoalIDs))
		for _, g := range req.GoalIDs {
			id, err := hash.Parse(g)
			if err != nil {
				writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "invalid entry in goal_ids"))
				return
			}
			goals = append(goals, substrate.ID(id))
		}
		path, err = h.astarEngine.SearchMultiGoal(ctx, substrate.ID(startID), goals, h.astarCfg)
	case req.GoalID != "":
		goalID, gerr := hash.Parse(req.GoalID)
		if gerr != nil {
			writeAppError(c.Writer, errors.Wrap(gerr, errors.CodeInvalidParam, "invalid goal_id"))
			return
		}
		path, err = h.astarEngine.Search(ctx, substrate.ID(startID), substrate.ID(goalID), h.astarCfg)
	default:
		writeAppError(c.Writer, errors.New(errors.CodeInvalidParam, "one of goal_id or goal_ids is required"))
		return
	}
	if err != nil {
		writeAppError(c.Writer, err)
		return
	}

	nodes := make([]string, len(path.Nodes))
	for i, id := range path.Nodes {
		nodes[i] = id.String()
	}

	c.JSON(http.StatusOK, AStarResponse{
		Nodes:           nodes,
		Texts:           path.Texts,
		TotalCost:       path.TotalCost,
		AvgElo:          path.AvgElo,
		AvgObservations: path.AvgObservations,
		Found:           path.Found,
		NodesExpanded:   path.NodesExpanded,
	})
}

// AtomResponse is the wire form of atomstore.AtomInfo.
type AtomResponse struct {
	AtomID        string     `json:"atom_id"`
	PhysicalityID string     `json:"physicality_id"`
	Codepoint     uint32     `json:"codepoint"`
	Centroid      [4]float64 `json:"centroid"`
	HilbertIndex  string     `json:"hilbert_index"`
}

// GetAtom handles GET /v1/atoms/:cp, where :cp is a decimal Unicode codepoint.
func (h *SubstrateHandler) GetAtom(c *gin.Context) {
	cp, err := strconv.ParseUint(c.Param("cp"), 10, 32)
	if err != nil {
		writeAppError(c.Writer, errors.Wrap(err, errors.CodeInvalidParam, "codepoint must be a decimal integer"))
		return
	}

	info, err := h.atoms.Lookup(c.Request.Context(), uint32(cp))
	if err != nil {
		writeAppError(c.Writer, err)
		return
	}

	c.JSON(http.StatusOK, AtomResponse{
		AtomID:        info.AtomID.String(),
		PhysicalityID: info.PhysicalityID.String(),
		Codepoint:     info.Codepoint,
		Centroid:      info.Centroid,
		HilbertIndex:  info.HilbertIndex.String(),
	})
}
