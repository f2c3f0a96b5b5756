package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"

	"github.com/cavecrawl/go-cavecrawl/cave"
	"github.com/cavecrawl/go-cavecrawl/mdp"
	"github.com/cavecrawl/go-cavecrawl/plot"
	"github.com/cavecrawl/go-cavecrawl/policy"
)

func plan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	configFile := fs.String("config", "", "YAML config file")
	preset := fs.String("preset", "", "Constant preset: default or classic")
	skill := fs.Int("skill", 0, "Agility skill for bridge crossings")
	plotFile := fs.String("plot", "", "Write convergence charts to HTML file")
	showValues := fs.Bool("values", false, "Print state values for the empty gold set")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cavecrawl plan <map.txt> [options]

Solve a cave map and print the stationary policy.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Solve with defaults
  cavecrawl plan cave.txt

  # Classic reward constants, skill 4, convergence chart
  cavecrawl plan cave.txt --preset classic --skill 4 --plot convergence.html
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("map file required")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read map: %w", err)
	}

	cfg, err := loadConfig(*configFile, *preset)
	if err != nil {
		return err
	}
	if *skill > 0 {
		cfg = cfg.WithSkill(*skill)
	}

	grid, err := cave.ParseMap(string(raw))
	if err != nil {
		return fmt.Errorf("parse map: %w", err)
	}

	engine, err := policy.NewEngine(grid, cfg)
	if err != nil {
		return err
	}
	res := engine.Solve()

	fmt.Printf("States:      %d walkable x %d gold subsets\n",
		len(grid.WalkablePositions()), 1<<len(grid.Gold()))
	fmt.Printf("Iterations:  %d (%d sweeps)\n", res.Iterations, res.Sweeps)
	if res.Converged {
		fmt.Println(aurora.Green("Evaluation:  converged"))
	} else {
		fmt.Println(aurora.Yellow("Evaluation:  sweep cap reached, best-effort values"))
	}
	if res.Stable {
		fmt.Println(aurora.Green("Policy:      stable"))
	} else {
		fmt.Println(aurora.Yellow("Policy:      iteration cap reached before stability"))
	}

	fmt.Println()
	printPolicyOverlay(grid, res)

	if *showValues {
		fmt.Println()
		printValues(grid, res)
	}

	if *plotFile != "" {
		if err := plot.ConvergenceFile(*plotFile, res); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		fmt.Printf("\nConvergence charts written to %s\n", *plotFile)
	}
	return nil
}

// printPolicyOverlay prints the map with the empty-gold-set policy drawn
// over the walkable cells.
func printPolicyOverlay(grid *cave.Grid, res *policy.Result) {
	glyphs := map[mdp.Action]string{
		mdp.North: "^",
		mdp.South: "v",
		mdp.East:  ">",
		mdp.West:  "<",
		mdp.Exit:  "E",
		mdp.Hold:  ".",
	}

	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			pos := cave.Position{Col: col, Row: row}
			tile := grid.At(pos)
			if !grid.Walkable(pos) {
				fmt.Print(aurora.Gray(8, string(tile)))
				continue
			}
			action, ok := res.Policy.Lookup(mdp.State{Pos: pos})
			if !ok {
				fmt.Print("?")
				continue
			}
			glyph := glyphs[action]
			switch tile {
			case cave.TileGold:
				fmt.Print(aurora.Yellow(glyph))
			case cave.TilePit, cave.TileWumpus:
				fmt.Print(aurora.Red(glyph))
			case cave.TileBridge:
				fmt.Print(aurora.Cyan(glyph))
			case cave.TileStart:
				fmt.Print(aurora.Green(glyph))
			default:
				fmt.Print(glyph)
			}
		}
		fmt.Println()
	}
}

func printValues(grid *cave.Grid, res *policy.Result) {
	for _, pos := range grid.WalkablePositions() {
		s := mdp.State{Pos: pos}
		fmt.Printf("%-10s %8.3f\n", s.Pos, res.Values[s])
	}
}
