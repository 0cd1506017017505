// Package config provides configuration loading and access for the simulation.
// Defaults are embedded; an optional YAML file overrides them field by field.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation tuning parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Tick       TickConfig       `yaml:"tick"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Needs      NeedsConfig      `yaml:"needs"`
	Gather     GatherConfig     `yaml:"gather"`
	Farm       FarmConfig       `yaml:"farm"`
	Combat     CombatConfig     `yaml:"combat"`
	Population PopulationConfig `yaml:"population"`
	Threats    ThreatConfig     `yaml:"threats"`
	Faith      FaithConfig      `yaml:"faith"`
}

// WorldConfig selects world generation inputs.
type WorldConfig struct {
	Size       int    `yaml:"size"`
	Seed       int64  `yaml:"seed"`
	Difficulty string `yaml:"difficulty"` // easy | normal | hard
}

// TickConfig controls the real-time tick loop (cmd layer only; the core takes
// tickHours as an argument).
type TickConfig struct {
	Hours      float64 `yaml:"hours"`
	IntervalMS int     `yaml:"interval_ms"`
}

// TerrainConfig holds generation thresholds.
type TerrainConfig struct {
	SeaLevel          float64 `yaml:"sea_level"`
	MountainLevel     float64 `yaml:"mountain_level"`
	SnowLevel         float64 `yaml:"snow_level"`
	SmoothingPasses   int     `yaml:"smoothing_passes"`
	MinMountainRegion int     `yaml:"min_mountain_region"`
}

// NeedsConfig holds per-hour need evolution rates (0–100 scales).
type NeedsConfig struct {
	HungerRate        float64 `yaml:"hunger_rate"`
	FatigueActiveRate float64 `yaml:"fatigue_active_rate"`
	FatigueRestRate   float64 `yaml:"fatigue_rest_rate"`
	MoraleBaseline    float64 `yaml:"morale_baseline"`
	MoraleDriftRate   float64 `yaml:"morale_drift_rate"`
	HealthRegenRate   float64 `yaml:"health_regen_rate"`
	HealthDecayRate   float64 `yaml:"health_decay_rate"`
	HungerCritical    float64 `yaml:"hunger_critical"`
	FatigueCritical   float64 `yaml:"fatigue_critical"`
	ElderDecayBonus   float64 `yaml:"elder_decay_bonus"`
	MaturityAge       float64 `yaml:"maturity_age"`
	ElderAge          float64 `yaml:"elder_age"`
	HoursPerYear      float64 `yaml:"hours_per_year"`
}

// GatherConfig tunes the resource collection phase machine.
type GatherConfig struct {
	BaseRate      float64 `yaml:"base_rate"`
	CarryCapacity float64 `yaml:"carry_capacity"`
	SkillBonus    float64 `yaml:"skill_bonus"` // extra rate per XP point
}

// FarmConfig tunes farm-task stage progression.
type FarmConfig struct {
	GrowthRate   float64 `yaml:"growth_rate"`
	TendBonus    float64 `yaml:"tend_bonus"`
	HarvestYield float64 `yaml:"harvest_yield"`
}

// CombatConfig tunes threat detection and attack exchanges.
type CombatConfig struct {
	CitizenDamage      float64 `yaml:"citizen_damage"`
	WarriorDamage      float64 `yaml:"warrior_damage"`
	ThreatDetectRadius int     `yaml:"threat_detect_radius"`
	FleeRadius         int     `yaml:"flee_radius"`
}

// PopulationConfig controls starting population and births.
type PopulationConfig struct {
	Starting         map[string]int `yaml:"starting"`
	BirthFoodReserve float64        `yaml:"birth_food_reserve"`
	BirthChance      float64        `yaml:"birth_chance"`
	MaxPerGranary    int            `yaml:"max_per_granary"`
	BaseCap          int            `yaml:"base_cap"`
	PruneAfterTicks  uint64         `yaml:"prune_after_ticks"`
}

// ThreatConfig controls hostile creature spawning.
type ThreatConfig struct {
	SpawnIntervalTicks uint64  `yaml:"spawn_interval_ticks"`
	Health             float64 `yaml:"health"`
	Damage             float64 `yaml:"damage"`
}

// FaithConfig controls shrine faith generation and blessings.
type FaithConfig struct {
	ShrineRate    float64 `yaml:"shrine_rate"`
	BlessingCost  float64 `yaml:"blessing_cost"`
	BlessingYears float64 `yaml:"blessing_years"`
	MoraleBonus   float64 `yaml:"morale_bonus"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		// The embedded defaults are part of the build; failing to parse them
		// is a programming error.
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load returns the defaults overlaid with values from the given YAML file.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DifficultyParams holds multipliers derived from the difficulty name.
type DifficultyParams struct {
	StartingFood  float64
	StartingWood  float64
	StartingStone float64
	RegrowthMul   float64
	ThreatRateMul float64
	HungerRateMul float64
}

// Difficulty resolves the named difficulty into concrete multipliers.
// Unknown names fall back to normal.
func (c *Config) Difficulty() DifficultyParams {
	switch c.World.Difficulty {
	case "easy":
		return DifficultyParams{
			StartingFood: 80, StartingWood: 50, StartingStone: 40,
			RegrowthMul: 1.3, ThreatRateMul: 0.5, HungerRateMul: 0.8,
		}
	case "hard":
		return DifficultyParams{
			StartingFood: 35, StartingWood: 20, StartingStone: 15,
			RegrowthMul: 0.8, ThreatRateMul: 1.6, HungerRateMul: 1.2,
		}
	default:
		return DifficultyParams{
			StartingFood: 55, StartingWood: 35, StartingStone: 25,
			RegrowthMul: 1.0, ThreatRateMul: 1.0, HungerRateMul: 1.0,
		}
	}
}
