// Package mdp models the cave crawl as a Markov decision process: the
// combinatorial state space over positions and collected gold, the mostly
// deterministic transition model with probabilistic bridge crossings, and
// the additive reward model.
package mdp

import "github.com/cavecrawl/go-cavecrawl/cave"

// Action is one of the moves available to the agent. Hold is a pseudo-action
// used only as the runtime safe fallback; the planner never assigns it.
type Action int

const (
	North Action = iota
	South
	East
	West
	Exit
	Hold
)

// PlanningActions is the canonical action order. Policy improvement iterates
// it in order and breaks ties toward the earlier action, which keeps
// converged policies reproducible.
var PlanningActions = [5]Action{North, South, East, West, Exit}

var actionNames = map[Action]string{
	North: "NORTH",
	South: "SOUTH",
	East:  "EAST",
	West:  "WEST",
	Exit:  "EXIT",
	Hold:  "HOLD",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// ActionFromString parses a wire-format action name.
func ActionFromString(s string) (Action, bool) {
	for a, name := range actionNames {
		if name == s {
			return a, true
		}
	}
	return Hold, false
}

// IsMove reports whether the action is a directional move.
func (a Action) IsMove() bool {
	switch a {
	case North, South, East, West:
		return true
	}
	return false
}

// Delta returns the (column, row) offset of a directional move. Exit and
// Hold have no geometric effect.
func (a Action) Delta() (dc, dr int) {
	switch a {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Target returns the cell the action aims at from pos.
func (a Action) Target(pos cave.Position) cave.Position {
	dc, dr := a.Delta()
	return pos.Offset(dc, dr)
}
