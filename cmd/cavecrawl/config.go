package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cavecrawl/go-cavecrawl/mdp"
)

// fileConfig is the YAML shape of a planning config file. All fields are
// optional; unset fields keep the preset's value.
type fileConfig struct {
	Preset           string   `yaml:"preset"`
	Gamma            *float64 `yaml:"gamma"`
	Epsilon          *float64 `yaml:"epsilon"`
	MaxSweeps        *int     `yaml:"max_sweeps"`
	MaxIterations    *int     `yaml:"max_iterations"`
	StepCost         *float64 `yaml:"step_cost"`
	WallPenalty      *float64 `yaml:"wall_penalty"`
	GoldBonus        *float64 `yaml:"gold_bonus"`
	ExitBonusPerGold *float64 `yaml:"exit_bonus_per_gold"`
	AllGoldBonus     *float64 `yaml:"all_gold_bonus"`
	HazardPenalty    *float64 `yaml:"hazard_penalty"`
	Skill            *int     `yaml:"skill"`
}

// presetConfig maps a preset name to its constant set.
func presetConfig(name string) (mdp.Config, error) {
	switch name {
	case "", "default":
		return mdp.DefaultConfig(), nil
	case "classic":
		return mdp.ClassicConfig(), nil
	default:
		return mdp.Config{}, fmt.Errorf("unknown preset %q (want default or classic)", name)
	}
}

// loadConfig resolves the planning config from a preset name and an
// optional YAML file. File values override the preset.
func loadConfig(path, preset string) (mdp.Config, error) {
	var fc fileConfig
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return mdp.Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
			return mdp.Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if preset == "" {
		preset = fc.Preset
	}
	cfg, err := presetConfig(preset)
	if err != nil {
		return mdp.Config{}, err
	}

	if fc.Gamma != nil {
		cfg.Gamma = *fc.Gamma
	}
	if fc.Epsilon != nil {
		cfg.Epsilon = *fc.Epsilon
	}
	if fc.MaxSweeps != nil {
		cfg.MaxSweeps = *fc.MaxSweeps
	}
	if fc.MaxIterations != nil {
		cfg.MaxIterations = *fc.MaxIterations
	}
	if fc.StepCost != nil {
		cfg.StepCost = *fc.StepCost
	}
	if fc.WallPenalty != nil {
		cfg.WallPenalty = *fc.WallPenalty
	}
	if fc.GoldBonus != nil {
		cfg.GoldBonus = *fc.GoldBonus
	}
	if fc.ExitBonusPerGold != nil {
		cfg.ExitBonusPerGold = *fc.ExitBonusPerGold
	}
	if fc.AllGoldBonus != nil {
		cfg.AllGoldBonus = *fc.AllGoldBonus
	}
	if fc.HazardPenalty != nil {
		cfg.HazardPenalty = *fc.HazardPenalty
	}
	if fc.Skill != nil {
		cfg = cfg.WithSkill(*fc.Skill)
	}

	if err := cfg.Validate(); err != nil {
		return mdp.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
