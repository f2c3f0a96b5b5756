package mdp

import (
	"fmt"
	"math/bits"

	"github.com/cavecrawl/go-cavecrawl/cave"
)

// MaxGold is the practical upper bound on gold cells per map. State count
// grows as 2^gold, so enumeration refuses maps beyond this rather than
// silently hanging.
const MaxGold = 20

// GoldSet is the set of collected gold, encoded as a bitmask with one bit
// per gold cell in the map parser's bit-index order. The zero value is the
// empty set, and integer equality is set equality.
type GoldSet uint32

// Has reports whether gold index i has been collected.
func (g GoldSet) Has(i int) bool {
	return g&(1<<uint(i)) != 0
}

// With returns the set with gold index i added.
func (g GoldSet) With(i int) GoldSet {
	return g | 1<<uint(i)
}

// Count returns the number of collected gold pieces.
func (g GoldSet) Count() int {
	return bits.OnesCount32(uint32(g))
}

func (g GoldSet) String() string {
	return fmt.Sprintf("gold{%b}", uint32(g))
}

// AllGold returns the full set over n gold cells.
func AllGold(n int) GoldSet {
	return GoldSet(1)<<uint(n) - 1
}

// State is one node of the MDP: the agent stands at Pos having collected
// exactly Gold. States are comparable and usable as map keys.
type State struct {
	Pos  cave.Position
	Gold GoldSet
}

func (s State) String() string {
	return fmt.Sprintf("%v/%v", s.Pos, s.Gold)
}

// EnumerateStates produces the full cross product of walkable positions and
// gold subsets in a fixed order: positions row-major, gold masks ascending.
// The result size is exactly |walkable| * 2^|gold|. Maps with more than
// MaxGold gold cells are rejected.
func EnumerateStates(grid *cave.Grid) ([]State, error) {
	n := len(grid.Gold())
	if n > MaxGold {
		return nil, fmt.Errorf("state space: %d gold cells exceeds the limit of %d (2^%d subsets)", n, MaxGold, n)
	}

	walkable := grid.WalkablePositions()
	subsets := GoldSet(1) << uint(n)

	states := make([]State, 0, len(walkable)*int(subsets))
	for _, pos := range walkable {
		for mask := GoldSet(0); mask < subsets; mask++ {
			states = append(states, State{Pos: pos, Gold: mask})
		}
	}
	return states, nil
}
