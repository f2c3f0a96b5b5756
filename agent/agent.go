// Package agent implements the runtime decision boundary: it receives map
// text, skill points, and move history from the session layer, plans once
// per map, and answers each decision request with one action identifier.
package agent

import (
	"fmt"
	"log"

	"github.com/cavecrawl/go-cavecrawl/cache"
	"github.com/cavecrawl/go-cavecrawl/cave"
	"github.com/cavecrawl/go-cavecrawl/mdp"
	"github.com/cavecrawl/go-cavecrawl/policy"
)

// Agent selects actions by looking up the observed state in a policy
// solved for the episode's map and skill. Planning happens at most once per
// (map, config) pair; repeated requests reuse the cached result.
type Agent struct {
	cfg   mdp.Config
	cache *cache.PolicyCache
}

// New creates an agent planning with the given config.
func New(cfg mdp.Config) *Agent {
	return &Agent{
		cfg:   cfg,
		cache: cache.NewPolicyCache(16),
	}
}

// WithCache replaces the policy cache (shared caches let a server reuse
// plans across sessions).
func (a *Agent) WithCache(c *cache.PolicyCache) *Agent {
	a.cache = c
	return a
}

// Decide answers one decision request. When free skill points are offered
// it allocates all of them to agility; otherwise it derives the current
// state from the history and returns the planned action for it.
func (a *Agent) Decide(req Request) (Response, error) {
	if req.FreeSkillPoints > 0 {
		return Response{SkillPoints: &SkillAllocation{Agility: req.FreeSkillPoints}}, nil
	}

	grid, err := cave.ParseMap(req.Map)
	if err != nil {
		return Response{}, fmt.Errorf("parse map: %w", err)
	}

	// Missing or negative agility plans as skill 0, the worst case.
	cfg := a.cfg.WithSkill(req.SkillPoints["agility"])

	res, err := a.cache.GetOrCompute(cache.Key(req.Map, cfg), func() (*policy.Result, error) {
		engine, err := policy.NewEngine(grid, cfg)
		if err != nil {
			return nil, err
		}
		return engine.Solve(), nil
	})
	if err != nil {
		return Response{}, fmt.Errorf("plan: %w", err)
	}

	state := observedState(grid, req.History)
	action, ok := res.Policy.Lookup(state)
	if !ok {
		// Indicates a gap between the planning state space and the
		// environment's observed states. Recoverable, but worth noticing.
		log.Printf("warning: state %v not in policy (%d states), using fallback", state, res.Policy.Len())
		action = SafeFallback(grid, state.Pos)
	}
	return Response{Action: action.String()}, nil
}

// observedState derives the current state from the move history: the last
// event's position and collected-gold list, or the start state when the
// history is empty.
func observedState(grid *cave.Grid, history []HistoryEvent) mdp.State {
	if len(history) == 0 {
		return mdp.State{Pos: grid.Start()}
	}

	last := history[len(history)-1].Outcome
	state := mdp.State{Pos: cave.Position{Col: last.Position[0], Row: last.Position[1]}}

	index := make(map[cave.Position]int)
	for i, g := range grid.Gold() {
		index[g] = i
	}
	for _, at := range last.CollectedGoldAt {
		if i, ok := index[cave.Position{Col: at[0], Row: at[1]}]; ok {
			state.Gold = state.Gold.With(i)
		}
	}
	return state
}

// SafeFallback picks an action for a state outside the policy: the first
// direction in canonical order whose target is walkable and neither a
// hazard nor a bridge, or Hold when the agent is boxed in.
func SafeFallback(grid *cave.Grid, pos cave.Position) mdp.Action {
	for _, action := range mdp.PlanningActions {
		if !action.IsMove() {
			continue
		}
		target := action.Target(pos)
		if !grid.Walkable(target) {
			continue
		}
		switch grid.At(target) {
		case cave.TilePit, cave.TileWumpus, cave.TileBridge:
			continue
		}
		return action
	}
	return mdp.Hold
}
