package policy

import (
	"log"
	"math"

	"github.com/cavecrawl/go-cavecrawl/cave"
	"github.com/cavecrawl/go-cavecrawl/mdp"
)

// Engine runs policy iteration: full evaluation of the current policy
// followed by greedy one-step improvement, repeated until no action
// changes. One Engine plans one episode; it owns the policy and value
// tables exclusively while Solve runs and they are read-only afterwards.
type Engine struct {
	model     *mdp.Model
	states    []mdp.State
	epsilon   float64
	maxSweeps int
	maxIters  int
}

// NewEngine builds an engine for a grid and config. It validates the
// config and enumerates the state space up front.
func NewEngine(grid *cave.Grid, cfg mdp.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	states, err := mdp.EnumerateStates(grid)
	if err != nil {
		return nil, err
	}
	return &Engine{
		model:     mdp.NewModel(grid, cfg),
		states:    states,
		epsilon:   cfg.Epsilon,
		maxSweeps: cfg.MaxSweeps,
		maxIters:  cfg.MaxIterations,
	}, nil
}

// WithEpsilon overrides the evaluation convergence threshold.
func (e *Engine) WithEpsilon(eps float64) *Engine {
	e.epsilon = eps
	return e
}

// WithMaxSweeps overrides the evaluation sweep cap.
func (e *Engine) WithMaxSweeps(n int) *Engine {
	e.maxSweeps = n
	return e
}

// Model returns the underlying MDP model.
func (e *Engine) Model() *mdp.Model {
	return e.model
}

// Result holds the converged policy and diagnostics from one Solve run.
type Result struct {
	Policy *Policy
	Values map[mdp.State]float64

	Iterations int  // evaluate/improve rounds performed
	Sweeps     int  // total evaluation sweeps across all rounds
	Converged  bool // every evaluation phase met epsilon within the cap
	Stable     bool // improvement reached a fixed point

	// Deltas records the max |dV| after each evaluation sweep, and
	// PolicyChanges the number of actions changed per improvement pass.
	// Both exist for diagnostics and plotting.
	Deltas        []float64
	PolicyChanges []int
}

// Solve runs policy iteration to a stable policy. Evaluation phases that
// exhaust the sweep cap are reported (Converged=false) but planning
// proceeds with the best-effort value function rather than failing: an
// approximately converged value function still improves the policy.
func (e *Engine) Solve() *Result {
	res := &Result{
		Values:    make(map[mdp.State]float64, len(e.states)),
		Converged: true,
	}

	// The initial policy is an arbitrary fixed assignment; policy
	// iteration converges regardless of initialization, and a fixed
	// choice keeps runs reproducible.
	actions := make(map[mdp.State]mdp.Action, len(e.states))
	for _, s := range e.states {
		actions[s] = mdp.North
	}
	pol := &Policy{actions: actions, states: e.states}

	for iter := 1; iter <= e.maxIters; iter++ {
		res.Iterations = iter

		sweeps, ok := e.evaluate(pol, res)
		res.Sweeps += sweeps
		if !ok {
			res.Converged = false
			log.Printf("policy: evaluation hit the %d sweep cap on iteration %d, proceeding with best effort", e.maxSweeps, iter)
		}

		changed := e.improve(pol, res.Values)
		res.PolicyChanges = append(res.PolicyChanges, changed)
		if changed == 0 {
			res.Stable = true
			break
		}
	}

	if !res.Stable {
		log.Printf("policy: no stable policy within %d iterations, returning last improvement", e.maxIters)
	}

	res.Policy = pol
	return res
}

// evaluate sweeps the value function in place (Gauss-Seidel order) until
// the largest per-state change drops below epsilon or the cap is hit.
func (e *Engine) evaluate(pol *Policy, res *Result) (sweeps int, converged bool) {
	for sweep := 1; sweep <= e.maxSweeps; sweep++ {
		delta := 0.0
		for _, s := range e.states {
			old := res.Values[s]
			res.Values[s] = e.backup(s, pol.actions[s], res.Values)
			if d := math.Abs(old - res.Values[s]); d > delta {
				delta = d
			}
		}
		res.Deltas = append(res.Deltas, delta)
		if delta < e.epsilon {
			return sweep, true
		}
	}
	return e.maxSweeps, false
}

// backup computes the one-step Bellman value of taking action at s under
// the given value function.
func (e *Engine) backup(s mdp.State, action mdp.Action, values map[mdp.State]float64) float64 {
	total := 0.0
	for _, out := range e.model.Trans.Distribution(s.Pos, action) {
		r := e.model.Rew.Reward(s.Pos, action, out.Pos, s.Gold)
		next := e.model.Successor(s, out.Pos)
		total += out.Prob * (r + e.model.Cfg.Gamma*values[next])
	}
	return total
}

// improve performs one greedy improvement pass over the whole policy and
// returns the number of states whose action changed. Ties break toward the
// earlier action in canonical order, keeping results reproducible.
func (e *Engine) improve(pol *Policy, values map[mdp.State]float64) int {
	changed := 0
	for _, s := range e.states {
		best := mdp.PlanningActions[0]
		bestValue := e.backup(s, best, values)
		for _, a := range mdp.PlanningActions[1:] {
			if v := e.backup(s, a, values); v > bestValue {
				best, bestValue = a, v
			}
		}
		if pol.actions[s] != best {
			pol.actions[s] = best
			changed++
		}
	}
	return changed
}

// Improve runs one more improvement pass against a finished Result, in
// place, and returns the number of actions that changed. A stable result
// must return 0; anything else indicates the fixed point was not reached.
func (e *Engine) Improve(res *Result) int {
	return e.improve(res.Policy, res.Values)
}
