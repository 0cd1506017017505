package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsParse(t *testing.T) {
	cfg := Default()
	if cfg.World.Size != 48 {
		t.Errorf("world size = %d, want 48", cfg.World.Size)
	}
	if cfg.Tick.Hours != 1.0 {
		t.Errorf("tick hours = %f, want 1.0", cfg.Tick.Hours)
	}
	if cfg.Terrain.SeaLevel <= 0 || cfg.Terrain.SeaLevel >= cfg.Terrain.MountainLevel {
		t.Errorf("terrain thresholds out of order: sea %f, mountain %f",
			cfg.Terrain.SeaLevel, cfg.Terrain.MountainLevel)
	}
	total := 0
	for _, n := range cfg.Population.Starting {
		total += n
	}
	if total == 0 {
		t.Error("no starting population configured")
	}
	if cfg.Faith.BlessingCost <= 0 {
		t.Error("blessing cost not positive")
	}
	if cfg.Faith.ShrineRate <= 0 {
		t.Error("shrine faith rate not positive")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	err := os.WriteFile(path, []byte("world:\n  size: 12\n  difficulty: hard\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.World.Size != 12 {
		t.Errorf("size = %d, want 12 from override", cfg.World.Size)
	}
	if cfg.World.Difficulty != "hard" {
		t.Errorf("difficulty = %q, want hard", cfg.World.Difficulty)
	}
	// Untouched sections keep defaults.
	if cfg.Gather.CarryCapacity != 10 {
		t.Errorf("carry capacity = %f, want default 10", cfg.Gather.CarryCapacity)
	}
}

func TestLoadMissingAndInvalid(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("loading a missing file succeeded")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("world: ["), 0644)
	if _, err := Load(path); err == nil {
		t.Error("loading invalid yaml succeeded")
	}

	cfg, err := Load("")
	if err != nil || cfg == nil {
		t.Fatalf("empty path = (%v, %v), want defaults", cfg, err)
	}
}

func TestDifficultyFallback(t *testing.T) {
	cfg := Default()
	cfg.World.Difficulty = "nightmare"
	if d := cfg.Difficulty(); d.RegrowthMul != 1.0 || d.ThreatRateMul != 1.0 {
		t.Errorf("unknown difficulty = %+v, want normal multipliers", d)
	}

	cfg.World.Difficulty = "easy"
	easy := cfg.Difficulty()
	cfg.World.Difficulty = "hard"
	hard := cfg.Difficulty()
	if easy.StartingFood <= hard.StartingFood {
		t.Error("easy should start with more food than hard")
	}
	if easy.ThreatRateMul >= hard.ThreatRateMul {
		t.Error("easy should spawn threats slower than hard")
	}
}
