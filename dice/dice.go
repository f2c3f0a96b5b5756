// Package dice implements the agility check that gates bridge crossings.
// A crossing attempt rolls one six-sided die per point of agility, keeps
// the three highest, and succeeds when their sum reaches 12.
//
// The package keeps two distinct contracts: SuccessProbability is the exact
// planning-time probability (never sampled), while Roller performs the
// one-shot runtime draw when the agent actually steps onto a bridge.
package dice

import (
	"math"
	"math/rand"
	"sort"
)

const (
	// TargetScore is the minimum kept-dice sum for a successful crossing.
	TargetScore = 12

	// KeptDice is how many of the highest rolls count toward the score.
	KeptDice = 3

	// maxSkill bounds the exact enumeration. The success probability is
	// monotone in skill and indistinguishable from 1 well before this,
	// so higher skills are clamped rather than rejected.
	maxSkill = 40
)

// SuccessProbability returns the exact probability that rolling skill
// six-sided dice and summing the three highest yields at least TargetScore.
// Non-positive skill cannot attempt a crossing and gets probability 0;
// with fewer than three dice only the rolled dice are summed.
func SuccessProbability(skill int) float64 {
	if skill <= 0 {
		return 0
	}
	if skill > maxSkill {
		skill = maxSkill
	}

	var success float64
	for score, p := range ScoreDistribution(skill) {
		if score >= TargetScore {
			success += p
		}
	}
	return success
}

// ScoreDistribution returns the exact distribution of the kept-dice sum for
// the given number of dice. Probabilities sum to 1. It enumerates face-count
// multisets with multinomial weights, so the cost is polynomial in skill
// rather than 6^skill.
func ScoreDistribution(skill int) map[int]float64 {
	dist := make(map[int]float64)
	if skill <= 0 {
		dist[0] = 1
		return dist
	}
	if skill > maxSkill {
		skill = maxSkill
	}

	counts := make([]int, 7) // counts[f] = dice showing face f
	scale := math.Pow(6, float64(skill))

	// Walk faces 6 down to 2; the remainder lands on face 1.
	var walk func(face, remaining int, arrangements float64)
	walk = func(face, remaining int, arrangements float64) {
		if face == 1 {
			counts[1] = remaining
			dist[topSum(counts)] += arrangements / scale
			counts[1] = 0
			return
		}
		for c := 0; c <= remaining; c++ {
			counts[face] = c
			walk(face-1, remaining-c, arrangements*choose(remaining, c))
			counts[face] = 0
		}
	}
	walk(6, skill, 1)
	return dist
}

// topSum sums the KeptDice highest faces given per-face counts.
func topSum(counts []int) int {
	sum, kept := 0, 0
	for face := 6; face >= 1 && kept < KeptDice; face-- {
		take := counts[face]
		if take > KeptDice-kept {
			take = KeptDice - kept
		}
		sum += face * take
		kept += take
	}
	return sum
}

func choose(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 1; i <= k; i++ {
		result = result * float64(n-k+i) / float64(i)
	}
	return result
}

// Roller performs runtime dice rolls with a seeded random source. Planning
// must never use it; the transition model takes a fixed probability instead.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a roller. Seed 0 draws a random seed, any other value
// gives a reproducible roll sequence.
func NewRoller(seed int64) *Roller {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// CrossResult records one bridge crossing attempt.
type CrossResult struct {
	Rolls   []int `json:"rolls"` // raw rolls, sorted descending
	Kept    []int `json:"kept"`  // the highest three (fewer with low skill)
	Score   int   `json:"score"`
	Success bool  `json:"success"`
}

// CrossBridge rolls skill dice, keeps the three highest, and succeeds when
// their sum reaches TargetScore. Zero or negative skill always fails
// without rolling.
func (r *Roller) CrossBridge(skill int) CrossResult {
	if skill <= 0 {
		return CrossResult{}
	}

	rolls := make([]int, skill)
	for i := range rolls {
		rolls[i] = r.rng.Intn(6) + 1
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rolls)))

	kept := rolls
	if len(kept) > KeptDice {
		kept = kept[:KeptDice]
	}
	score := 0
	for _, v := range kept {
		score += v
	}

	return CrossResult{
		Rolls:   rolls,
		Kept:    kept,
		Score:   score,
		Success: score >= TargetScore,
	}
}
