// Package cave implements the grid map model for the cave crawl domain.
// A cave is a rectangular grid of terrain tiles loaded once per episode:
// walls, open floor, pits, bridges, gold, and the start cell where the
// agent enters and must exit.
package cave

import (
	"fmt"
	"strings"
)

// Tile is a single terrain symbol in the map alphabet.
type Tile byte

const (
	TileStart  Tile = 'S' // entry cell, the only place EXIT succeeds
	TileGold   Tile = 'G' // gold to collect
	TilePit    Tile = 'P' // hazard, enterable with consequences
	TileWumpus Tile = 'W' // hazard, enterable with consequences
	TileBridge Tile = 'B' // crossing requires an agility check
	TileWall   Tile = 'X' // blocks movement
	TileFloor  Tile = ' ' // open floor ('.' is accepted as an alias on parse)
)

// Position identifies a cell as (column, row). The (col, row) convention is
// used consistently across every component; it must never be swapped.
type Position struct {
	Col int
	Row int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Col, p.Row)
}

// Offset returns the position shifted by (dc, dr).
func (p Position) Offset(dc, dr int) Position {
	return Position{Col: p.Col + dc, Row: p.Row + dr}
}

// FormatError reports a malformed map input. Row is the zero-based row the
// problem was found on, or -1 when the problem is not tied to a single row.
type FormatError struct {
	Row int
	Msg string
}

func (e *FormatError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("map format: row %d: %s", e.Row, e.Msg)
	}
	return "map format: " + e.Msg
}

// Grid is an immutable parsed cave map. Construct one with ParseMap; the
// tile array, start position, and gold list never change afterwards.
type Grid struct {
	Width  int
	Height int

	tiles [][]Tile
	start Position
	gold  []Position
}

// ParseMap parses rows of terrain symbols into a Grid. Blank lines are
// skipped. It fails with a *FormatError when rows have inconsistent width,
// when no start cell is present, or when an unrecognized symbol appears.
func ParseMap(raw string) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return nil, &FormatError{Row: -1, Msg: "empty map"}
	}

	width := len(rows[0])
	g := &Grid{
		Width:  width,
		Height: len(rows),
		tiles:  make([][]Tile, len(rows)),
		start:  Position{Col: -1, Row: -1},
	}

	for r, line := range rows {
		if len(line) != width {
			return nil, &FormatError{Row: r, Msg: fmt.Sprintf("width %d, expected %d", len(line), width)}
		}
		g.tiles[r] = make([]Tile, width)
		for c := 0; c < width; c++ {
			tile, err := parseTile(line[c])
			if err != nil {
				return nil, &FormatError{Row: r, Msg: err.Error()}
			}
			g.tiles[r][c] = tile
			switch tile {
			case TileStart:
				if g.start.Col >= 0 {
					return nil, &FormatError{Row: r, Msg: "multiple start cells"}
				}
				g.start = Position{Col: c, Row: r}
			case TileGold:
				// Gold identifiers are assigned in parse order (row-major),
				// which fixes each gold cell's bit index for the planner.
				g.gold = append(g.gold, Position{Col: c, Row: r})
			}
		}
	}

	if g.start.Col < 0 {
		return nil, &FormatError{Row: -1, Msg: "no start cell"}
	}
	return g, nil
}

func parseTile(b byte) (Tile, error) {
	switch b {
	case 'S', 'G', 'P', 'W', 'B', 'X', ' ':
		return Tile(b), nil
	case '.':
		return TileFloor, nil
	default:
		return 0, fmt.Errorf("unrecognized symbol %q", b)
	}
}

// Start returns the start position.
func (g *Grid) Start() Position {
	return g.start
}

// Gold returns the gold positions in bit-index order.
func (g *Grid) Gold() []Position {
	out := make([]Position, len(g.gold))
	copy(out, g.gold)
	return out
}

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.Height && p.Col >= 0 && p.Col < g.Width
}

// At returns the tile at p. Out-of-bounds positions read as walls, so the
// boundary behaves like solid rock.
func (g *Grid) At(p Position) Tile {
	if !g.InBounds(p) {
		return TileWall
	}
	return g.tiles[p.Row][p.Col]
}

// Walkable reports whether the agent can occupy p. Every in-bounds cell
// except walls is walkable; pits and bridges are enterable and carry their
// consequences through the reward and transition models.
func (g *Grid) Walkable(p Position) bool {
	return g.InBounds(p) && g.At(p) != TileWall
}

// WalkablePositions returns every walkable position in row-major order.
func (g *Grid) WalkablePositions() []Position {
	var out []Position
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			p := Position{Col: c, Row: r}
			if g.Walkable(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// ToASCII renders the grid, optionally overlaying the agent position as 'A'.
func (g *Grid) ToASCII(agent *Position) string {
	var sb strings.Builder
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			if agent != nil && agent.Col == c && agent.Row == r {
				sb.WriteByte('A')
				continue
			}
			sb.WriteByte(byte(g.tiles[r][c]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
