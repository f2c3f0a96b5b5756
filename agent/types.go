package agent

// Request is one decision request from the session boundary. The map text
// and skill allocation arrive with the first request of an episode; every
// request carries the full move history so far.
type Request struct {
	Map             string         `json:"map"`
	FreeSkillPoints int            `json:"free-skill-points"`
	SkillPoints     map[string]int `json:"skill-points"`
	History         []HistoryEvent `json:"history"`
}

// HistoryEvent is one past action and its observed outcome.
type HistoryEvent struct {
	Action  string  `json:"action"`
	Outcome Outcome `json:"outcome"`
}

// Outcome reports where the agent ended up after an action and which gold
// cells it has collected so far.
type Outcome struct {
	Position        [2]int   `json:"position"` // (column, row)
	CollectedGoldAt [][2]int `json:"collected-gold-at"`
}

// SkillAllocation answers a free-skill-points request.
type SkillAllocation struct {
	Agility  int `json:"agility"`
	Fighting int `json:"fighting"`
}

// Response is the agent's answer to one Request: either a skill allocation
// (when free points are offered) or an action identifier.
type Response struct {
	Action      string           `json:"action,omitempty"`
	SkillPoints *SkillAllocation `json:"skill-points,omitempty"`
}
