package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/schollz/progressbar/v3"

	"github.com/cavecrawl/go-cavecrawl/agent"
	"github.com/cavecrawl/go-cavecrawl/cache"
	"github.com/cavecrawl/go-cavecrawl/eventlog"
	"github.com/cavecrawl/go-cavecrawl/storage"
)

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	episodes := fs.Int("episodes", 100, "Number of episodes to run")
	skill := fs.Int("skill", 0, "Agility skill for bridge crossings")
	seed := fs.Int64("seed", 0, "Base dice seed (0 = random per episode)")
	configFile := fs.String("config", "", "YAML config file")
	preset := fs.String("preset", "", "Constant preset: default or classic")
	maxTicks := fs.Int("max-ticks", agent.DefaultMaxTicks, "Tick cap per episode")
	dbFile := fs.String("db", "", "SQLite file for session logging (optional)")
	traceFile := fs.String("trace", "", "JSONL file for decision traces (optional)")
	csvFile := fs.String("csv", "", "CSV export of decision traces (optional)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cavecrawl simulate <map.txt> [options]

Run batch episodes against a map and report aggregate outcomes.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # 100 episodes, skill 4
  cavecrawl simulate cave.txt --episodes 100 --skill 4

  # Reproducible run with SQLite and JSONL sinks
  cavecrawl simulate cave.txt --seed 7 --db runs.db --trace runs.jsonl
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
	mapText := string(raw)
	mapHash := fmt.Sprintf("%x", sha256.Sum256(raw))[:16]

	cfg, err := loadConfig(*configFile, *preset)
	if err != nil {
		return err
	}
	cfg = cfg.WithSkill(*skill)

	var store *storage.Store
	if *dbFile != "" {
		store, err = storage.New(*dbFile)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var trace *eventlog.Writer
	if *traceFile != "" {
		trace, err = eventlog.NewWriter(*traceFile)
		if err != nil {
			return err
		}
		defer trace.Close()
	}

	// One agent for the whole batch: the map is planned once, every
	// episode reuses the cached policy.
	shared := agent.New(cfg).WithCache(cache.NewPolicyCache(4))

	log := eventlog.NewLog()
	var exits, deaths, capped, totalGold int
	var totalReward float64

	bar := progressbar.Default(int64(*episodes), "Episodes")
	for i := 0; i < *episodes; i++ {
		epSeed := int64(0)
		if *seed != 0 {
			epSeed = *seed + int64(i)
		}

		runner, err := agent.NewRunner(mapText, cfg, cfg.BridgeSkill, epSeed)
		if err != nil {
			return err
		}
		res, err := runner.WithAgent(shared).WithMaxTicks(*maxTicks).Run()
		if err != nil {
			return fmt.Errorf("episode %d: %w", i, err)
		}

		sessionID := storage.NewSessionID()
		if err := recordEpisode(store, trace, log, sessionID, mapHash, cfg.BridgeSkill, epSeed, res); err != nil {
			return fmt.Errorf("episode %d: %w", i, err)
		}

		switch {
		case res.Exited:
			exits++
		case res.Died:
			deaths++
		default:
			capped++
		}
		totalGold += res.Gold
		totalReward += res.TotalReward
		bar.Add(1)
	}

	if *csvFile != "" {
		if err := eventlog.ExportCSV(*csvFile, log); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}

	n := float64(*episodes)
	fmt.Println()
	fmt.Printf("Episodes:    %d\n", *episodes)
	fmt.Printf("Exited:      %s\n", aurora.Green(fmt.Sprintf("%d (%.1f%%)", exits, 100*float64(exits)/n)))
	fmt.Printf("Died:        %s\n", aurora.Red(fmt.Sprintf("%d (%.1f%%)", deaths, 100*float64(deaths)/n)))
	if capped > 0 {
		fmt.Printf("Tick-capped: %s\n", aurora.Yellow(fmt.Sprintf("%d", capped)))
	}
	fmt.Printf("Avg gold:    %.2f\n", float64(totalGold)/n)
	fmt.Printf("Avg reward:  %.2f\n", totalReward/n)
	return nil
}

// recordEpisode feeds one episode result into the enabled sinks.
func recordEpisode(store *storage.Store, trace *eventlog.Writer, log *eventlog.Log,
	sessionID, mapHash string, skill int, seed int64, res *agent.EpisodeResult) error {

	if store != nil {
		if err := store.CreateSession(sessionID, mapHash, skill, seed); err != nil {
			return err
		}
	}

	for _, step := range res.Steps {
		e := eventlog.Event{
			Timestamp: time.Now().UTC(),
			Session:   sessionID,
			Tick:    step.Tick,
			Col:     step.Next.Col,
			Row:     step.Next.Row,
			Gold:    step.Gold,
			Action:  step.Name,
			Reward:  step.Reward,
		}
		if step.Bridge != nil {
			e.BridgeAttempt = true
			e.BridgeSuccess = step.Bridge.Success
		}
		log.Add(e)

		if trace != nil {
			if err := trace.Append(e); err != nil {
				return err
			}
		}
		if store != nil {
			d := &storage.Decision{
				SessionID: sessionID, Tick: step.Tick,
				Col: step.Next.Col, Row: step.Next.Row,
				Gold: step.Gold, Action: step.Name, Reward: step.Reward,
				BridgeAttempt: e.BridgeAttempt, BridgeSuccess: e.BridgeSuccess,
			}
			if err := store.LogDecision(d); err != nil {
				return err
			}
		}
	}

	if store != nil {
		return store.EndSession(sessionID, res.Ticks, res.Gold, res.TotalReward, res.Exited, res.Died)
	}
	return nil
}
