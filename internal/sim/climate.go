// Package sim hosts the top-level simulation session: the tick orchestrator
// over the world engine and citizen system, plus climate and threat
// subsystems.
package sim

import (
	"math/rand"

	"github.com/talgya/tribelands/internal/world"
)

// climateSeedOffset keeps the climate rng stream independent of the terrain,
// resource, and spawner streams derived from the same world seed.
const climateSeedOffset = 400

// ClimateModel advances the world climate as a seeded Markov chain: each
// spell of weather lasts a rolled number of ticks, then transitions with
// probabilities conditioned on the current state.
type ClimateModel struct {
	rng       *rand.Rand
	current   world.Climate
	ticksLeft int
}

// NewClimateModel creates the model for a world seed, starting in normal
// weather.
func NewClimateModel(seed int64) *ClimateModel {
	m := &ClimateModel{
		rng:     rand.New(rand.NewSource(seed + climateSeedOffset)),
		current: world.ClimateNormal,
	}
	m.ticksLeft = m.rollDuration()
	return m
}

// RestoreClimateModel rebuilds a model from a saved climate. The rng stream
// restarts from the seed, so post-load weather rolls fresh from the saved
// state rather than replaying the original sequence.
func RestoreClimateModel(seed int64, current world.Climate) *ClimateModel {
	m := NewClimateModel(seed)
	m.current = current
	return m
}

// Current returns the active climate.
func (m *ClimateModel) Current() world.Climate { return m.current }

// Advance ticks the model once and reports whether the climate changed.
func (m *ClimateModel) Advance() (world.Climate, bool) {
	m.ticksLeft--
	if m.ticksLeft > 0 {
		return m.current, false
	}
	next := m.transition()
	changed := next != m.current
	m.current = next
	m.ticksLeft = m.rollDuration()
	return m.current, changed
}

// rollDuration picks how long the next spell lasts, in ticks.
func (m *ClimateModel) rollDuration() int {
	return 12 + m.rng.Intn(25)
}

func (m *ClimateModel) transition() world.Climate {
	roll := m.rng.Float64()
	switch m.current {
	case world.ClimateRain:
		switch {
		case roll < 0.55:
			return world.ClimateNormal
		case roll < 0.90:
			return world.ClimateRain
		default:
			return world.ClimateDrought
		}
	case world.ClimateDrought:
		switch {
		case roll < 0.60:
			return world.ClimateNormal
		case roll < 0.70:
			return world.ClimateRain
		default:
			return world.ClimateDrought
		}
	default:
		switch {
		case roll < 0.70:
			return world.ClimateNormal
		case roll < 0.90:
			return world.ClimateRain
		default:
			return world.ClimateDrought
		}
	}
}
