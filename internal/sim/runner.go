package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/world"
)

// recentEventCap bounds the replayable event buffer served to the API.
const recentEventCap = 256

// Runner drives a session in real time. It serializes tick execution against
// concurrent API reads and buffers player input for the next tick.
type Runner struct {
	mu      sync.Mutex
	session *Session
	log     *slog.Logger

	tickHours float64
	interval  time.Duration
	speed     float64
	acc       float64

	pending Intent
	recent  []events.Event
}

// NewRunner wraps a session with a real-time loop ticking every interval at
// speed 1.0.
func NewRunner(s *Session, logger *slog.Logger, tickHours float64, interval time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		session:   s,
		log:       logger,
		tickHours: tickHours,
		interval:  interval,
		speed:     1.0,
	}
}

// Run blocks, ticking the session until the context is canceled. Speed is a
// tick-rate multiplier; fractional speeds accumulate across intervals and
// zero pauses the loop.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped", "tick", r.CurrentTick())
			return
		case <-ticker.C:
			r.mu.Lock()
			r.acc += r.speed
			for r.acc >= 1 {
				r.acc--
				r.step()
			}
			r.mu.Unlock()
		}
	}
}

// step runs one tick under the held lock.
func (r *Runner) step() {
	intent := r.pending
	r.pending = Intent{}
	r.session.RunTick(r.tickHours, intent)
	r.recent = append(r.recent, r.session.ConsumeVisualEvents()...)
	if over := len(r.recent) - recentEventCap; over > 0 {
		r.recent = append(r.recent[:0], r.recent[over:]...)
	}
}

// Step runs exactly one tick immediately, pending intent included.
func (r *Runner) Step() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step()
}

// SetSpeed changes the tick-rate multiplier. Zero pauses.
func (r *Runner) SetSpeed(speed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speed = speed
}

// Speed returns the current tick-rate multiplier.
func (r *Runner) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// CurrentTick returns the session's completed tick count.
func (r *Runner) CurrentTick() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Tick()
}

// SubmitPaints queues priority paint commands for the next tick.
func (r *Runner) SubmitPaints(paints []PaintCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.Paints = append(r.pending.Paints, paints...)
}

// SubmitConstruction queues construction commands for the next tick.
func (r *Runner) SubmitConstruction(cmds []ConstructionCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.Construction = append(r.pending.Construction, cmds...)
}

// SubmitPriority sets the active designation brush for the next tick.
func (r *Runner) SubmitPriority(mark world.PriorityMark) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.Priority = mark
}

// SubmitRoleTargets queues a role rebalance for the next tick, replacing any
// earlier unapplied targets.
func (r *Runner) SubmitRoleTargets(targets map[citizen.Role]int, tribeID uint8, priority citizen.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.RoleTargets = targets
	r.pending.TribeID = tribeID
	r.pending.PriorityRole = priority
}

// RecentEvents returns up to limit of the most recent visual events, oldest
// first.
func (r *Runner) RecentEvents(limit int) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if limit > 0 && len(r.recent) > limit {
		start = len(r.recent) - limit
	}
	out := make([]events.Event, len(r.recent)-start)
	copy(out, r.recent[start:])
	return out
}

// Do runs fn with exclusive access to the session. Used for snapshots, saves,
// and any read that must not race a tick.
func (r *Runner) Do(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.session)
}
