package mdp

import "github.com/cavecrawl/go-cavecrawl/cave"

// Rewards computes the immediate reward for a (state, action, next)
// transition. All components are additive: the step cost on every action,
// the wall-bump penalty, the gold pickup bonus, the hazard penalty, and the
// exit bonus scaled by banked gold. A failed bridge crossing pays only the
// step cost; the crossing probability already encodes its risk.
type Rewards struct {
	grid      *cave.Grid
	cfg       Config
	goldIndex map[cave.Position]int
	allGold   GoldSet
}

// NewRewards builds the reward model for a grid.
func NewRewards(grid *cave.Grid, cfg Config) *Rewards {
	gold := grid.Gold()
	index := make(map[cave.Position]int, len(gold))
	for i, p := range gold {
		index[p] = i
	}
	return &Rewards{
		grid:      grid,
		cfg:       cfg,
		goldIndex: index,
		allGold:   AllGold(len(gold)),
	}
}

// Reward returns the immediate reward for moving from pos to next under
// action, given the gold collected before the transition.
func (r *Rewards) Reward(pos cave.Position, action Action, next cave.Position, before GoldSet) float64 {
	v := r.cfg.StepCost

	// The wall-bump penalty applies only to self-loops caused by walls or
	// the boundary, not to failed bridge checks or EXIT no-ops.
	if next == pos && action.IsMove() && !r.grid.Walkable(action.Target(pos)) {
		v += r.cfg.WallPenalty
	}

	if idx, ok := r.goldIndex[next]; ok && !before.Has(idx) {
		v += r.cfg.GoldBonus
	}

	if next != pos {
		switch r.grid.At(next) {
		case cave.TilePit, cave.TileWumpus:
			v += r.cfg.HazardPenalty
		}
	}

	if action == Exit && next == pos && pos == r.grid.Start() {
		n := before.Count()
		v += r.cfg.ExitBonusPerGold * float64(n)
		if r.allGold != 0 && before == r.allGold {
			v += r.cfg.AllGoldBonus
		}
	}

	return v
}

// Model bundles the transition and reward models for one grid and config.
// It owns the gold bit-index assignment shared by both.
type Model struct {
	Grid  *cave.Grid
	Cfg   Config
	Trans *Transitions
	Rew   *Rewards
}

// NewModel builds the full MDP model for a grid.
func NewModel(grid *cave.Grid, cfg Config) *Model {
	return &Model{
		Grid:  grid,
		Cfg:   cfg,
		Trans: NewTransitions(grid, cfg),
		Rew:   NewRewards(grid, cfg),
	}
}

// GoldAt returns the bit index of the gold cell at p, if any.
func (m *Model) GoldAt(p cave.Position) (int, bool) {
	idx, ok := m.Rew.goldIndex[p]
	return idx, ok
}

// AllGold returns the full gold set for this map.
func (m *Model) AllGold() GoldSet {
	return m.Rew.allGold
}

// Successor returns the state reached by arriving at next, collecting any
// gold found there.
func (m *Model) Successor(s State, next cave.Position) State {
	gold := s.Gold
	if idx, ok := m.Rew.goldIndex[next]; ok {
		gold = gold.With(idx)
	}
	return State{Pos: next, Gold: gold}
}
