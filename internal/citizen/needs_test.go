package citizen

import "testing"

func testNeeds() *NeedsSimulator {
	return NewNeedsSimulator(testConfig().Needs, 1.0)
}

func TestHungerAccumulatesAndClamps(t *testing.T) {
	n := testNeeds()
	c := &Citizen{State: StateAlive, Health: 100}

	n.Tick(c, 1)
	if c.Hunger <= 0 {
		t.Fatalf("hunger = %f after one hour, want > 0", c.Hunger)
	}
	for i := 0; i < 200; i++ {
		n.Tick(c, 1)
	}
	if c.Hunger != 100 {
		t.Errorf("hunger = %f, want clamped at 100", c.Hunger)
	}
}

func TestRestRecoversFatigue(t *testing.T) {
	n := testNeeds()
	c := &Citizen{State: StateAlive, Health: 100, Fatigue: 50, Goal: Goal{Kind: GoalRest}}

	n.Tick(c, 1)
	if c.Fatigue >= 50 {
		t.Errorf("fatigue = %f after resting, want < 50", c.Fatigue)
	}

	c.Goal.Kind = GoalGather
	before := c.Fatigue
	n.Tick(c, 1)
	if c.Fatigue <= before {
		t.Errorf("fatigue = %f after active hour, want > %f", c.Fatigue, before)
	}
}

func TestEldersTireFaster(t *testing.T) {
	n := testNeeds()
	adult := &Citizen{State: StateAlive, Health: 100, Role: RoleWorker, Goal: Goal{Kind: GoalIdle}}
	elder := &Citizen{State: StateAlive, Health: 100, Role: RoleElder, Goal: Goal{Kind: GoalIdle}}

	n.Tick(adult, 1)
	n.Tick(elder, 1)
	if elder.Fatigue <= adult.Fatigue {
		t.Errorf("elder fatigue %f <= adult fatigue %f", elder.Fatigue, adult.Fatigue)
	}
}

func TestMoraleDriftsTowardBaseline(t *testing.T) {
	n := testNeeds()
	cfg := testConfig().Needs

	low := &Citizen{State: StateAlive, Health: 100, Morale: 10}
	for i := 0; i < 500; i++ {
		n.Tick(low, 1)
		low.Hunger = 0 // keep needs satisfied so the baseline stays put
		low.Fatigue = 0
	}
	if low.Morale != cfg.MoraleBaseline {
		t.Errorf("morale = %f, want baseline %f", low.Morale, cfg.MoraleBaseline)
	}
}

func TestStarvationKills(t *testing.T) {
	n := testNeeds()
	c := &Citizen{State: StateAlive, Health: 100, Hunger: 100, Fatigue: 100}

	died := false
	for i := 0; i < 500 && !died; i++ {
		died = n.Tick(c, 1)
		c.Hunger = 100
		c.Fatigue = 100
	}
	if !died {
		t.Fatal("citizen survived 500 hours of critical hunger and fatigue")
	}
	if c.Alive() {
		t.Error("died returned true but state is still alive")
	}

	// Dead citizens are inert.
	age := c.Age
	if n.Tick(c, 1) {
		t.Error("dead citizen died again")
	}
	if c.Age != age {
		t.Error("dead citizen kept aging")
	}
}

func TestHealthRegeneratesWhenSatisfied(t *testing.T) {
	n := testNeeds()
	c := &Citizen{State: StateAlive, Health: 50}

	n.Tick(c, 1)
	if c.Health <= 50 {
		t.Errorf("health = %f with needs satisfied, want > 50", c.Health)
	}
}

func TestZeroHealthDiesBeforeRegen(t *testing.T) {
	n := testNeeds()
	// A fed, rested citizen at zero health (a lethal attack) must die on the
	// next needs pass, not regenerate back over the line.
	c := &Citizen{State: StateAlive, Health: 0, Hunger: 0, Fatigue: 0}

	if !n.Tick(c, 1) {
		t.Fatalf("citizen at zero health survived the needs pass (health = %f)", c.Health)
	}
	if c.Alive() {
		t.Error("died returned true but state is still alive")
	}
}
