package mdp

import "fmt"

// Config holds every constant a planning run depends on: the discount and
// convergence parameters plus the reward weights. A Config is passed by
// value and never mutated by the models, so concurrent planning runs with
// different presets cannot interfere.
type Config struct {
	Gamma         float64 // discount factor, must satisfy 0 < Gamma < 1
	Epsilon       float64 // evaluation convergence threshold on max |dV|
	MaxSweeps     int     // safety cap on evaluation sweeps per iteration
	MaxIterations int     // safety cap on evaluate/improve rounds

	StepCost         float64 // applied to every action
	WallPenalty      float64 // extra cost for bumping a wall or the boundary
	GoldBonus        float64 // picking up an uncollected gold piece
	ExitBonusPerGold float64 // per banked gold piece on a successful EXIT
	AllGoldBonus     float64 // extra for exiting with every gold piece
	HazardPenalty    float64 // entering a pit or wumpus cell

	BridgeSkill int // agility skill feeding the bridge success probability
}

// DefaultConfig returns the high-stakes constant set: large rewards and a
// far-sighted discount. This matches the tuning used for live play.
func DefaultConfig() Config {
	return Config{
		Gamma:            0.99,
		Epsilon:          1e-6,
		MaxSweeps:        2000,
		MaxIterations:    50,
		StepCost:         -0.1,
		WallPenalty:      -0.5,
		GoldBonus:        10,
		ExitBonusPerGold: 10,
		AllGoldBonus:     100,
		HazardPenalty:    -100,
	}
}

// ClassicConfig returns the small-magnitude constant set from the earlier
// ruleset revision: gentle rewards and a shorter horizon.
func ClassicConfig() Config {
	return Config{
		Gamma:            0.95,
		Epsilon:          1e-6,
		MaxSweeps:        2000,
		MaxIterations:    50,
		StepCost:         -0.01,
		WallPenalty:      -0.1,
		GoldBonus:        1,
		ExitBonusPerGold: 1,
		AllGoldBonus:     10,
		HazardPenalty:    -10,
	}
}

// Validate checks that the convergence parameters can actually converge.
func (c Config) Validate() error {
	if c.Gamma <= 0 || c.Gamma >= 1 {
		return fmt.Errorf("config: gamma %v outside (0,1)", c.Gamma)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("config: epsilon %v must be positive", c.Epsilon)
	}
	if c.MaxSweeps <= 0 {
		return fmt.Errorf("config: max sweeps %d must be positive", c.MaxSweeps)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: max iterations %d must be positive", c.MaxIterations)
	}
	return nil
}

// WithSkill returns a copy of the config with the agility skill set.
// Negative or missing skill is treated as 0, the meaningful worst case.
func (c Config) WithSkill(skill int) Config {
	if skill < 0 {
		skill = 0
	}
	c.BridgeSkill = skill
	return c
}
