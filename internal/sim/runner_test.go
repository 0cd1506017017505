package sim

import (
	"testing"
	"time"

	"github.com/talgya/tribelands/internal/world"
)

func testRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(NewSession(scenarioConfig(), quietLogger()), quietLogger(), 1, 50*time.Millisecond)
}

func TestRunnerStepAppliesPendingIntent(t *testing.T) {
	r := testRunner(t)

	var gx, gy int
	found := false
	r.Do(func(s *Session) {
		for i := range s.World().Cells {
			c := &s.World().Cells[i]
			if c.Terrain == world.TerrainGrassland && c.Structure == world.StructureNone && c.Node == nil {
				gx, gy = c.X, c.Y
				found = true
				return
			}
		}
	})
	if !found {
		t.Skip("no free grassland at this seed")
	}

	r.SubmitPaints([]PaintCommand{{X: gx, Y: gy, Mark: world.MarkGather}})
	r.SubmitPriority(world.MarkGather)
	r.Step()

	r.Do(func(s *Session) {
		if got := s.World().GetCell(gx, gy).Priority; got != world.MarkGather {
			t.Errorf("painted mark = %s, want gather", world.MarkName(got))
		}
		if got := s.Snapshot().ActivePriority; got != "gather" {
			t.Errorf("active priority = %q, want gather", got)
		}
	})
	if r.CurrentTick() != 1 {
		t.Errorf("tick = %d, want 1", r.CurrentTick())
	}

	// Intent is consumed by the tick it was queued for.
	r.Step()
	r.Do(func(s *Session) {
		if s.World().GetCell(gx, gy).Priority != world.MarkGather {
			t.Error("painted mark did not persist")
		}
	})
}

func TestRunnerRecentEventsBounded(t *testing.T) {
	r := testRunner(t)
	for i := 0; i < 400; i++ {
		r.Step()
	}
	all := r.RecentEvents(0)
	if len(all) > recentEventCap {
		t.Errorf("recent events = %d, want <= %d", len(all), recentEventCap)
	}
	if got := r.RecentEvents(5); len(got) > 5 {
		t.Errorf("limited events = %d, want <= 5", len(got))
	}
}

func TestRunnerSpeedControl(t *testing.T) {
	r := testRunner(t)
	if r.Speed() != 1.0 {
		t.Errorf("initial speed = %f, want 1.0", r.Speed())
	}
	r.SetSpeed(0)
	if r.Speed() != 0 {
		t.Errorf("speed = %f, want 0 after pause", r.Speed())
	}
	r.SetSpeed(4)
	if r.Speed() != 4 {
		t.Errorf("speed = %f, want 4", r.Speed())
	}
}
