package mdp

import (
	"github.com/cavecrawl/go-cavecrawl/cave"

	"github.com/cavecrawl/go-cavecrawl/dice"
)

// Outcome is one branch of a transition distribution.
type Outcome struct {
	Pos  cave.Position
	Prob float64
}

// Transitions computes next-position distributions under the movement
// rules. The only stochastic transition in the whole environment is the
// bridge check; everything else is a point mass, which is what keeps plain
// policy iteration tractable without sampling.
type Transitions struct {
	grid       *cave.Grid
	bridgeProb float64
}

// NewTransitions builds the transition model for a grid. The bridge success
// probability is fixed up front from the configured agility skill; planning
// never rolls dice.
func NewTransitions(grid *cave.Grid, cfg Config) *Transitions {
	return &Transitions{
		grid:       grid,
		bridgeProb: dice.SuccessProbability(cfg.BridgeSkill),
	}
}

// BridgeProb returns the fixed bridge crossing probability.
func (t *Transitions) BridgeProb() float64 {
	return t.bridgeProb
}

// Distribution returns the next-position distribution for taking action at
// pos. Outcomes are in a fixed order (moved-to cell first) and their
// probabilities always sum to 1.
//
// Precedence: EXIT and Hold self-loop deterministically (EXIT terminates
// the episode only at the start cell, elsewhere it is a no-op); a move into
// a wall or out of bounds self-loops (the wall bump); a move onto a bridge
// splits between the bridge cell and staying put; any other move is a point
// mass on the adjacent cell.
func (t *Transitions) Distribution(pos cave.Position, action Action) []Outcome {
	if !action.IsMove() {
		return []Outcome{{Pos: pos, Prob: 1}}
	}

	next := action.Target(pos)
	if !t.grid.Walkable(next) {
		return []Outcome{{Pos: pos, Prob: 1}}
	}

	if t.grid.At(next) == cave.TileBridge {
		p := t.bridgeProb
		if p >= 1 {
			return []Outcome{{Pos: next, Prob: 1}}
		}
		if p <= 0 {
			return []Outcome{{Pos: pos, Prob: 1}}
		}
		return []Outcome{
			{Pos: next, Prob: p},
			{Pos: pos, Prob: 1 - p},
		}
	}

	return []Outcome{{Pos: next, Prob: 1}}
}
