// Command tribesim runs the Tribelands colony simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tribelands/internal/api"
	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/persistence"
	"github.com/talgya/tribelands/internal/sim"
	"github.com/talgya/tribelands/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config overriding the embedded defaults")
		dbPath     = flag.String("db", "data/tribelands.db", "path to the save database")
		apiPort    = flag.Int("port", 8080, "HTTP API port")
		saveID     = flag.String("save", "", "save slot to resume (default: newest)")
		fresh      = flag.Bool("fresh", false, "ignore existing saves and start a new world")
		seed       = flag.Int64("seed", 0, "world seed override (0 = config value)")
		size       = flag.Int("size", 0, "world size override (0 = config value)")
		difficulty = flag.String("difficulty", "", "difficulty override: easy | normal | hard")
		csvPath    = flag.String("telemetry", "", "write per-tick telemetry CSV here on shutdown")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *size != 0 {
		cfg.World.Size = *size
	}
	if *difficulty != "" {
		cfg.World.Difficulty = *difficulty
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	// ── Load or Generate World State ─────────────────────────────────
	slot := *saveID
	if slot == "" && !*fresh {
		if saves, err := db.ListSaves(); err == nil && len(saves) > 0 {
			slot = saves[0].ID
		}
	}

	var session *sim.Session
	if slot != "" {
		st, err := db.Load(slot)
		if err != nil {
			slog.Error("failed to load save", "save_id", slot, "error", err)
			os.Exit(1)
		}
		session = sim.RestoreSession(cfg, logger, st)
	} else {
		slog.Info("generating new world...",
			"size", cfg.World.Size,
			"seed", cfg.World.Seed,
			"difficulty", cfg.World.Difficulty)
		session = sim.NewSession(cfg, logger)

		st := session.CaptureState()
		if slot, err = db.Save(st); err != nil {
			slog.Error("initial save failed", "error", err)
			os.Exit(1)
		}
	}

	terrain := make(map[string]int)
	for i := range session.World().Cells {
		terrain[world.TerrainName(session.World().Cells[i].Terrain)]++
	}
	for name, n := range terrain {
		slog.Info("terrain", "type", name, "count", n)
	}
	slog.Info("world ready",
		"cells", humanize.Comma(int64(len(session.World().Cells))),
		"population", session.CitizenSystem().AliveCount(),
		"tick", session.Tick())

	// ── Simulation loop ──────────────────────────────────────────────
	interval := time.Duration(cfg.Tick.IntervalMS) * time.Millisecond
	runner := sim.NewRunner(session, logger, cfg.Tick.Hours, interval)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	save := func(reason string) {
		runner.Do(func(s *sim.Session) {
			st := s.CaptureState()
			st.SaveID = slot
			if _, err := db.Save(st); err != nil {
				slog.Error("save failed", "reason", reason, "error", err)
			}
		})
	}

	// Auto-save once a real-time minute.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				save("autosave")
			}
		}
	}()

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("TRIBELANDS_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("TRIBELANDS_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Runner:   runner,
		DB:       db,
		Port:     *apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	fmt.Printf("\nTribelands is alive: %d citizens on a %dx%d world.\n",
		session.CitizenSystem().AliveCount(), cfg.World.Size, cfg.World.Size)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", *apiPort)
	if session.Tick() > 0 {
		fmt.Printf("Resuming save %s from tick %s\n", slot, humanize.Comma(int64(session.Tick())))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	runner.Run(ctx)

	// Final save on shutdown.
	slog.Info("final save...")
	save("shutdown")

	if *csvPath != "" {
		runner.Do(func(s *sim.Session) {
			if err := s.Stats().WriteFile(*csvPath); err != nil {
				slog.Error("telemetry export failed", "path", *csvPath, "error", err)
			} else {
				slog.Info("telemetry exported", "path", *csvPath)
			}
		})
	}

	fmt.Printf("Simulation stopped at tick %s. World state saved.\n",
		humanize.Comma(int64(runner.CurrentTick())))
}
