package agent

import (
	"fmt"

	"github.com/cavecrawl/go-cavecrawl/cave"
	"github.com/cavecrawl/go-cavecrawl/dice"
	"github.com/cavecrawl/go-cavecrawl/mdp"
)

// DefaultMaxTicks bounds an episode so a policy that never exits cannot
// loop forever.
const DefaultMaxTicks = 500

// StepRecord is one executed step of an episode.
type StepRecord struct {
	Tick   int               `json:"tick"`
	Pos    cave.Position     `json:"position"`
	Action mdp.Action        `json:"-"`
	Name   string            `json:"action"`
	Next   cave.Position     `json:"next"`
	Reward float64           `json:"reward"`
	Gold   int               `json:"gold"`
	Bridge *dice.CrossResult `json:"bridge,omitempty"`
}

// EpisodeResult summarizes one complete episode.
type EpisodeResult struct {
	Steps       []StepRecord `json:"steps"`
	TotalReward float64      `json:"total_reward"`
	Gold        int          `json:"gold"`
	Exited      bool         `json:"exited"`
	Died        bool         `json:"died"`
	Ticks       int          `json:"ticks"`
}

// Episode executes one episode against a simulated environment, one
// decision at a time, driving the agent through the same request/response
// boundary the session layer uses. The environment resolves bridge attempts
// with live dice rolls and kills the agent on hazard entry.
type Episode struct {
	mapText string
	grid    *cave.Grid
	model   *mdp.Model
	agent   *Agent
	roller  *dice.Roller
	skill   int

	pos     cave.Position
	gold    mdp.GoldSet
	history []HistoryEvent
	tick    int
	result  EpisodeResult
	done    bool
}

// NewEpisode starts an episode on one map. Seed 0 gives a randomly seeded
// roller; any other seed reproduces the same dice sequence.
func NewEpisode(mapText string, cfg mdp.Config, skill int, seed int64) (*Episode, error) {
	grid, err := cave.ParseMap(mapText)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithSkill(skill)
	return &Episode{
		mapText: mapText,
		grid:    grid,
		model:   mdp.NewModel(grid, cfg),
		agent:   New(cfg),
		roller:  dice.NewRoller(seed),
		skill:   cfg.BridgeSkill,
		pos:     grid.Start(),
	}, nil
}

// WithAgent substitutes a pre-built agent (e.g. one sharing a policy cache).
func (e *Episode) WithAgent(a *Agent) *Episode {
	e.agent = a
	return e
}

// Grid returns the parsed map.
func (e *Episode) Grid() *cave.Grid {
	return e.grid
}

// Pos returns the agent's current position.
func (e *Episode) Pos() cave.Position {
	return e.pos
}

// Done reports whether the episode has terminated (exit or death).
func (e *Episode) Done() bool {
	return e.done
}

// Result returns the episode summary so far.
func (e *Episode) Result() EpisodeResult {
	res := e.result
	res.Gold = e.gold.Count()
	return res
}

// Step asks the agent for one decision and applies it to the environment.
func (e *Episode) Step() (StepRecord, error) {
	if e.done {
		return StepRecord{}, fmt.Errorf("episode already terminated")
	}

	resp, err := e.agent.Decide(Request{
		Map:         e.mapText,
		SkillPoints: map[string]int{"agility": e.skill},
		History:     e.history,
	})
	if err != nil {
		return StepRecord{}, fmt.Errorf("tick %d: %w", e.tick, err)
	}
	action, ok := mdp.ActionFromString(resp.Action)
	if !ok {
		return StepRecord{}, fmt.Errorf("tick %d: unknown action %q", e.tick, resp.Action)
	}

	next, bridge := e.applyAction(action)
	reward := e.model.Rew.Reward(e.pos, action, next, e.gold)
	if idx, found := e.model.GoldAt(next); found {
		e.gold = e.gold.With(idx)
	}

	step := StepRecord{
		Tick:   e.tick,
		Pos:    e.pos,
		Action: action,
		Name:   action.String(),
		Next:   next,
		Reward: reward,
		Gold:   e.gold.Count(),
		Bridge: bridge,
	}
	e.tick++
	e.result.Steps = append(e.result.Steps, step)
	e.result.TotalReward += reward
	e.result.Ticks = e.tick

	if action == mdp.Exit && e.pos == e.grid.Start() {
		e.result.Exited = true
		e.done = true
		return step, nil
	}
	if next != e.pos {
		switch e.grid.At(next) {
		case cave.TilePit, cave.TileWumpus:
			e.result.Died = true
			e.done = true
			return step, nil
		}
	}

	e.history = append(e.history, HistoryEvent{
		Action:  action.String(),
		Outcome: Outcome{Position: [2]int{next.Col, next.Row}, CollectedGoldAt: e.collectedAt()},
	})
	e.pos = next
	return step, nil
}

// applyAction resolves one action in the live environment. Bridge attempts
// roll dice; everything else follows the deterministic movement rules.
func (e *Episode) applyAction(action mdp.Action) (cave.Position, *dice.CrossResult) {
	if !action.IsMove() {
		return e.pos, nil
	}
	target := action.Target(e.pos)
	if !e.grid.Walkable(target) {
		return e.pos, nil
	}
	if e.grid.At(target) == cave.TileBridge {
		roll := e.roller.CrossBridge(e.skill)
		if roll.Success {
			return target, &roll
		}
		return e.pos, &roll
	}
	return target, nil
}

func (e *Episode) collectedAt() [][2]int {
	var out [][2]int
	for i, g := range e.grid.Gold() {
		if e.gold.Has(i) {
			out = append(out, [2]int{g.Col, g.Row})
		}
	}
	return out
}

// Runner plays complete episodes to termination.
type Runner struct {
	mapText  string
	cfg      mdp.Config
	skill    int
	seed     int64
	agent    *Agent
	maxTicks int
}

// NewRunner builds a runner for one map. The map is parsed up front so a
// malformed map fails before any episode starts.
func NewRunner(mapText string, cfg mdp.Config, skill int, seed int64) (*Runner, error) {
	if _, err := cave.ParseMap(mapText); err != nil {
		return nil, err
	}
	return &Runner{
		mapText:  mapText,
		cfg:      cfg,
		skill:    skill,
		seed:     seed,
		maxTicks: DefaultMaxTicks,
	}, nil
}

// WithAgent substitutes a pre-built agent shared across episodes.
func (r *Runner) WithAgent(a *Agent) *Runner {
	r.agent = a
	return r
}

// WithMaxTicks sets the episode tick cap.
func (r *Runner) WithMaxTicks(n int) *Runner {
	r.maxTicks = n
	return r
}

// Run plays one episode to termination: exit, death, or the tick cap.
func (r *Runner) Run() (*EpisodeResult, error) {
	ep, err := NewEpisode(r.mapText, r.cfg, r.skill, r.seed)
	if err != nil {
		return nil, err
	}
	if r.agent != nil {
		ep.WithAgent(r.agent)
	}

	for tick := 0; tick < r.maxTicks && !ep.Done(); tick++ {
		if _, err := ep.Step(); err != nil {
			return nil, err
		}
	}

	res := ep.Result()
	return &res, nil
}
