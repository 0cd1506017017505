package events

import "testing"

func TestQueueDrainEmptiesBuffer(t *testing.T) {
	q := NewQueue()
	q.Append(Event{Tick: 1, Kind: KindBirth, Message: "a"})
	q.Append(Event{Tick: 1, Kind: KindDeath, Message: "b"})
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}

	got := q.Drain()
	if len(got) != 2 || got[0].Kind != KindBirth || got[1].Kind != KindDeath {
		t.Fatalf("drain = %+v, want birth then death", got)
	}
	if q.Len() != 0 {
		t.Errorf("len after drain = %d, want 0", q.Len())
	}
	if again := q.Drain(); len(again) != 0 {
		t.Errorf("second drain = %d events, want 0", len(again))
	}

	q.Append(Event{Tick: 2, Kind: KindHarvest})
	if got := q.Drain(); len(got) != 1 || got[0].Tick != 2 {
		t.Errorf("post-drain append lost: %+v", got)
	}
}
