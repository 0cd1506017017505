// Package events provides the typed event queue the simulation core appends
// to each tick. The caller (renderer, logger, API) drains it; the core never
// holds UI callbacks.
package events

// Kind categorizes an event for consumers.
type Kind string

const (
	KindBirth      Kind = "birth"
	KindDeath      Kind = "death"
	KindStructure  Kind = "structure"
	KindThreat     Kind = "threat"
	KindCombat     Kind = "combat"
	KindHarvest    Kind = "harvest"
	KindBlessing   Kind = "blessing"
	KindClimate    Kind = "climate"
	KindExtinction Kind = "extinction"
)

// Event is a single notable occurrence in the world.
type Event struct {
	Tick      uint64 `json:"tick"`
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	CitizenID uint64 `json:"citizen_id,omitempty"`
}

// Queue is an append-only event buffer drained by the consumer.
// Append-only during a tick; Drain returns everything accumulated since the
// last drain and leaves the queue empty (idempotent empty-read after drain).
type Queue struct {
	buf []Event
}

// NewQueue creates an empty event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Append adds an event to the queue.
func (q *Queue) Append(e Event) {
	q.buf = append(q.buf, e)
}

// Drain returns all buffered events and empties the queue.
func (q *Queue) Drain() []Event {
	out := q.buf
	q.buf = nil
	return out
}

// Len returns the number of undrained events.
func (q *Queue) Len() int {
	return len(q.buf)
}
