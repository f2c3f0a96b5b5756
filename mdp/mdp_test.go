package mdp

import (
	"math"
	"testing"

	"github.com/cavecrawl/go-cavecrawl/cave"
	"github.com/cavecrawl/go-cavecrawl/dice"
)

func mustParse(t *testing.T, raw string) *cave.Grid {
	t.Helper()
	g, err := cave.ParseMap(raw)
	if err != nil {
		t.Fatalf("ParseMap failed: %v", err)
	}
	return g
}

// testConfig uses the high-stakes constants but zeroes the all-gold bonus
// so per-component arithmetic is easy to check.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AllGoldBonus = 0
	return cfg
}

// === State space ===

func TestEnumerateStatesSize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no gold", "S \nX "},
		{"one gold", "SG"},
		{"gold and hazards", "XXXXX\nXS GX\nXBPGX\nXXXXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.raw)
			states, err := EnumerateStates(g)
			if err != nil {
				t.Fatalf("EnumerateStates failed: %v", err)
			}

			walkable := len(g.WalkablePositions())
			want := walkable * (1 << len(g.Gold()))
			if len(states) != want {
				t.Errorf("Expected %d states (%d walkable x 2^%d), got %d",
					want, walkable, len(g.Gold()), len(states))
			}

			seen := make(map[State]bool, len(states))
			for _, s := range states {
				if !g.Walkable(s.Pos) {
					t.Errorf("State %v has unwalkable position", s)
				}
				if seen[s] {
					t.Errorf("Duplicate state %v", s)
				}
				seen[s] = true
			}
		})
	}
}

func TestEnumerateStatesGoldLimit(t *testing.T) {
	raw := "S"
	for i := 0; i <= MaxGold; i++ {
		raw += "G"
	}
	g := mustParse(t, raw)
	if _, err := EnumerateStates(g); err == nil {
		t.Errorf("Expected error for %d gold cells", MaxGold+1)
	}
}

func TestGoldSet(t *testing.T) {
	var g GoldSet
	if g.Has(0) || g.Count() != 0 {
		t.Error("Zero value should be the empty set")
	}

	g = g.With(0).With(3)
	if !g.Has(0) || !g.Has(3) || g.Has(1) {
		t.Errorf("Unexpected membership in %v", g)
	}
	if g.Count() != 2 {
		t.Errorf("Count = %d, want 2", g.Count())
	}
	if g.With(0) != g {
		t.Error("Adding a present element should be a no-op")
	}
	if AllGold(3) != GoldSet(0b111) {
		t.Errorf("AllGold(3) = %v", AllGold(3))
	}
}

// === Transition model ===

func TestDistributionSumsToOne(t *testing.T) {
	g := mustParse(t, "XXXXX\nXS GX\nXBPGX\nXXXXX")
	trans := NewTransitions(g, testConfig().WithSkill(5))

	for _, pos := range g.WalkablePositions() {
		for _, action := range PlanningActions {
			total := 0.0
			for _, out := range trans.Distribution(pos, action) {
				if out.Prob <= 0 || out.Prob > 1 {
					t.Errorf("Probability out of range at %v/%v: %v", pos, action, out.Prob)
				}
				total += out.Prob
			}
			if math.Abs(total-1.0) > 1e-9 {
				t.Errorf("Distribution at %v/%v sums to %v", pos, action, total)
			}
		}
	}
}

func TestDeterministicOutsideBridges(t *testing.T) {
	g := mustParse(t, "XXXXX\nXS GX\nXBPGX\nXXXXX")
	trans := NewTransitions(g, testConfig().WithSkill(5))

	for _, pos := range g.WalkablePositions() {
		for _, action := range PlanningActions {
			if action.IsMove() && g.At(action.Target(pos)) == cave.TileBridge {
				continue
			}
			outs := trans.Distribution(pos, action)
			if len(outs) != 1 || outs[0].Prob != 1 {
				t.Errorf("Expected point mass at %v/%v, got %v", pos, action, outs)
			}
		}
	}
}

func TestWallBumpSelfLoops(t *testing.T) {
	g := mustParse(t, "SG")
	trans := NewTransitions(g, testConfig())

	start := g.Start()
	for _, action := range []Action{North, South, West} {
		outs := trans.Distribution(start, action)
		if len(outs) != 1 || outs[0].Pos != start {
			t.Errorf("%v from start should self-loop, got %v", action, outs)
		}
	}

	outs := trans.Distribution(start, East)
	if len(outs) != 1 || outs[0].Pos != (cave.Position{Col: 1, Row: 0}) {
		t.Errorf("EAST from start should reach the gold cell, got %v", outs)
	}
}

func TestBridgeSplit(t *testing.T) {
	g := mustParse(t, "SB")
	cfg := testConfig().WithSkill(4)
	trans := NewTransitions(g, cfg)

	p := dice.SuccessProbability(4)
	outs := trans.Distribution(g.Start(), East)
	if len(outs) != 2 {
		t.Fatalf("Expected two outcomes, got %v", outs)
	}
	bridge := cave.Position{Col: 1, Row: 0}
	if outs[0].Pos != bridge || math.Abs(outs[0].Prob-p) > 1e-12 {
		t.Errorf("Bridge branch = %v, want %v with p=%v", outs[0], bridge, p)
	}
	if outs[1].Pos != g.Start() || math.Abs(outs[1].Prob-(1-p)) > 1e-12 {
		t.Errorf("Stay branch = %v, want %v with p=%v", outs[1], g.Start(), 1-p)
	}
}

func TestBridgeZeroSkillNeverCrosses(t *testing.T) {
	g := mustParse(t, "SB")
	trans := NewTransitions(g, testConfig().WithSkill(0))

	outs := trans.Distribution(g.Start(), East)
	if len(outs) != 1 || outs[0].Pos != g.Start() {
		t.Errorf("Zero skill should make the bridge unreachable, got %v", outs)
	}
}

func TestExitSelfLoopsEverywhere(t *testing.T) {
	g := mustParse(t, "S G")
	trans := NewTransitions(g, testConfig())

	for _, pos := range g.WalkablePositions() {
		outs := trans.Distribution(pos, Exit)
		if len(outs) != 1 || outs[0].Pos != pos || outs[0].Prob != 1 {
			t.Errorf("EXIT at %v should self-loop, got %v", pos, outs)
		}
	}
}

// === Reward model ===

// The S G X scenario: step -0.1, wall -0.5, gold +10, exit 10 per gold.
func TestRewardScenario(t *testing.T) {
	g := mustParse(t, "SGX")
	cfg := testConfig()
	rew := NewRewards(g, cfg)

	start := g.Start()
	goldPos := cave.Position{Col: 1, Row: 0}

	// EAST from S onto G: step plus pickup.
	if got := rew.Reward(start, East, goldPos, 0); math.Abs(got-9.9) > 1e-9 {
		t.Errorf("Move onto gold = %v, want 9.9", got)
	}

	// EAST from G into the wall: step plus bump, no double pickup bonus
	// because the gold is already collected.
	if got := rew.Reward(goldPos, East, goldPos, GoldSet(1)); math.Abs(got-(-0.6)) > 1e-9 {
		t.Errorf("Wall bump = %v, want -0.6", got)
	}

	// EXIT from S with one gold banked: step plus 1x10.
	if got := rew.Reward(start, Exit, start, GoldSet(1)); math.Abs(got-9.9) > 1e-9 {
		t.Errorf("Exit with gold = %v, want 9.9", got)
	}

	// EXIT from S empty-handed: step cost only.
	if got := rew.Reward(start, Exit, start, 0); math.Abs(got-(-0.1)) > 1e-9 {
		t.Errorf("Exit without gold = %v, want -0.1", got)
	}
}

func TestRewardAllGoldBonus(t *testing.T) {
	g := mustParse(t, "SGG")
	cfg := DefaultConfig() // AllGoldBonus = 100
	rew := NewRewards(g, cfg)
	start := g.Start()

	partial := rew.Reward(start, Exit, start, GoldSet(0b01))
	full := rew.Reward(start, Exit, start, GoldSet(0b11))

	wantPartial := cfg.StepCost + cfg.ExitBonusPerGold
	wantFull := cfg.StepCost + 2*cfg.ExitBonusPerGold + cfg.AllGoldBonus
	if math.Abs(partial-wantPartial) > 1e-9 {
		t.Errorf("Partial exit = %v, want %v", partial, wantPartial)
	}
	if math.Abs(full-wantFull) > 1e-9 {
		t.Errorf("Full exit = %v, want %v", full, wantFull)
	}
}

func TestRewardFailedBridgeIsStepCostOnly(t *testing.T) {
	g := mustParse(t, "SB")
	cfg := testConfig().WithSkill(3)
	rew := NewRewards(g, cfg)
	start := g.Start()

	// A failed crossing self-loops, but the target cell is walkable so the
	// wall-bump penalty must not apply.
	if got := rew.Reward(start, East, start, 0); math.Abs(got-cfg.StepCost) > 1e-9 {
		t.Errorf("Failed crossing = %v, want bare step cost %v", got, cfg.StepCost)
	}
}

func TestRewardHazard(t *testing.T) {
	g := mustParse(t, "SP")
	cfg := testConfig()
	rew := NewRewards(g, cfg)

	pit := cave.Position{Col: 1, Row: 0}
	want := cfg.StepCost + cfg.HazardPenalty
	if got := rew.Reward(g.Start(), East, pit, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Entering pit = %v, want %v", got, want)
	}
}

func TestRewardExitOnlyAtStart(t *testing.T) {
	g := mustParse(t, "S G")
	cfg := testConfig()
	rew := NewRewards(g, cfg)

	// EXIT away from the start is a no-op: step cost, no bonus, no bump.
	floor := cave.Position{Col: 1, Row: 0}
	if got := rew.Reward(floor, Exit, floor, GoldSet(1)); math.Abs(got-cfg.StepCost) > 1e-9 {
		t.Errorf("EXIT off start = %v, want %v", got, cfg.StepCost)
	}
}

// === Model ===

func TestSuccessorCollectsGold(t *testing.T) {
	g := mustParse(t, "SGG")
	m := NewModel(g, testConfig())

	s := State{Pos: g.Start()}
	g1 := cave.Position{Col: 1, Row: 0}
	g2 := cave.Position{Col: 2, Row: 0}

	s = m.Successor(s, g1)
	if !s.Gold.Has(0) || s.Gold.Has(1) {
		t.Errorf("After first pickup: %v", s.Gold)
	}
	s = m.Successor(s, g2)
	if s.Gold != m.AllGold() {
		t.Errorf("After both pickups: %v, want %v", s.Gold, m.AllGold())
	}
	// Re-entering collected gold is a no-op.
	if m.Successor(s, g1).Gold != s.Gold {
		t.Error("Collected gold should not change the set")
	}
}

// === Config ===

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
	if err := ClassicConfig().Validate(); err != nil {
		t.Errorf("ClassicConfig should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.Gamma = 1.0
	if err := bad.Validate(); err == nil {
		t.Error("Gamma of 1 should fail validation")
	}

	bad = DefaultConfig()
	bad.Epsilon = 0
	if err := bad.Validate(); err == nil {
		t.Error("Zero epsilon should fail validation")
	}
}

func TestConfigWithSkill(t *testing.T) {
	cfg := DefaultConfig().WithSkill(-3)
	if cfg.BridgeSkill != 0 {
		t.Errorf("Negative skill should clamp to 0, got %d", cfg.BridgeSkill)
	}
}
