package sim

import (
	"log/slog"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/persistence"
	"github.com/talgya/tribelands/internal/telemetry"
	"github.com/talgya/tribelands/internal/world"
)

// CaptureState snapshots the session into a persistable state. The returned
// state shares the engine's cell and site storage, so it must be written out
// before the next RunTick.
func (s *Session) CaptureState() *persistence.State {
	return &persistence.State{
		Tick:          s.tick,
		Seed:          s.cfg.World.Seed,
		Size:          s.engine.Size,
		Difficulty:    s.cfg.World.Difficulty,
		Climate:       s.climate.Current(),
		Faith:         s.engine.Faith,
		VillageX:      s.engine.VillageX,
		VillageY:      s.engine.VillageY,
		Stockpile:     *s.engine.Stockpile,
		Cells:         s.engine.Cells,
		Sites:         s.engine.Sites(),
		Citizens:      s.citizens.Citizens(),
		NextCitizenID: s.citizens.NextID(),
	}
}

// RestoreSession rebuilds a session from a saved state. The config's world
// seed, size, and difficulty are overridden by the save so derived rng
// streams and tuning match the original run.
func RestoreSession(cfg *config.Config, logger *slog.Logger, st *persistence.State) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.World.Seed = st.Seed
	cfg.World.Size = st.Size
	cfg.World.Difficulty = st.Difficulty
	diff := cfg.Difficulty()

	stock := st.Stockpile
	engine := world.RestoreEngine(st.Size, st.Cells, &stock, st.Faith,
		st.VillageX, st.VillageY, st.Sites, world.EnvConfig{
			FarmGrowthRate:  cfg.Farm.GrowthRate,
			RegrowthMul:     diff.RegrowthMul,
			RainWaterRate:   2.0,
			ShrineFaithRate: cfg.Faith.ShrineRate,
		})

	queue := events.NewQueue()
	threats := NewThreatSystem(engine, cfg.Threats, diff.ThreatRateMul, st.Seed, queue)
	citizens := citizen.NewCitizenSystem(cfg, engine, threats, queue)
	citizens.Restore(st.Citizens, st.NextCitizenID)

	s := &Session{
		cfg:      cfg,
		log:      logger,
		engine:   engine,
		citizens: citizens,
		threats:  threats,
		climate:  RestoreClimateModel(st.Seed, st.Climate),
		queue:    queue,
		stats:    telemetry.NewCollector(statsWindow),
		tick:     st.Tick,
	}
	s.log.Info("session restored",
		"save_id", st.SaveID,
		"tick", st.Tick,
		"size", st.Size,
		"seed", st.Seed,
		"population", citizens.AliveCount())
	return s
}
