package citizen

import (
	"testing"

	"github.com/talgya/tribelands/internal/world"
)

func testGatherEngine(e *world.Engine) *CollectionEngine {
	return NewCollectionEngine(e, testConfig().Gather, NewSkillProgression())
}

func TestGatherNoTarget(t *testing.T) {
	e := testWorld(8)
	ce := testGatherEngine(e)
	c := testCitizen(e, 1, RoleWorker, 4, 4)

	res := ce.Step(c, world.ResourceWood, 1, e.IsWalkable)
	if !res.NoTarget {
		t.Error("expected NoTarget with no wood nodes in the world")
	}
}

func TestGatherFullCycle(t *testing.T) {
	e := testWorld(8)
	placeNode(e, 2, 2, world.ResourceWood, 30)
	ce := testGatherEngine(e)
	nav := NewNavigator(e)
	c := testCitizen(e, 1, RoleWorker, 4, 4)

	before := e.Stockpile.Amount(world.ResourceWood)
	deposited := 0.0
	for i := 0; i < 60 && deposited == 0; i++ {
		res := ce.Step(c, world.ResourceWood, 1, e.IsWalkable)
		if res.NoTarget {
			t.Fatal("lost the wood target mid-cycle")
		}
		deposited += res.Deposited
		nav.Step(c)
	}
	if deposited <= 0 {
		t.Fatal("no wood deposited after 60 ticks")
	}
	if got := e.Stockpile.Amount(world.ResourceWood); got != before+deposited {
		t.Errorf("stockpile wood = %f, want %f", got, before+deposited)
	}
	if c.Gather.Phase != PhaseSeekResource {
		t.Errorf("phase = %d after deposit, want PhaseSeekResource", c.Gather.Phase)
	}
	if c.CarryingAny() {
		t.Error("citizen still carrying after full deposit")
	}
}

// Two citizens draining one small node the same tick: the earlier id takes
// what remains, the later gets nothing, and the node never goes negative.
func TestSameNodeContention(t *testing.T) {
	e := testWorld(8)
	placeNode(e, 4, 3, world.ResourceStone, 3)
	ce := testGatherEngine(e)

	c1 := testCitizen(e, 1, RoleWorker, 3, 3)
	c2 := testCitizen(e, 2, RoleWorker, 5, 3)
	for _, c := range []*Citizen{c1, c2} {
		c.Gather.Phase = PhaseGather
		c.Gather.TargetX, c.Gather.TargetY = 4, 3
	}

	// One hour at base rate 2.0 yields 2 units for c1, leaving 1 for c2.
	ce.Step(c1, world.ResourceStone, 1, e.IsWalkable)
	ce.Step(c2, world.ResourceStone, 1, e.IsWalkable)

	if got := c1.Carrying[world.ResourceStone]; got != 2 {
		t.Errorf("c1 carries %f stone, want 2", got)
	}
	if got := c2.Carrying[world.ResourceStone]; got != 1 {
		t.Errorf("c2 carries %f stone, want 1", got)
	}
	node := e.GetCell(4, 3).Node
	if node.Quantity != 0 {
		t.Errorf("node quantity = %f, want 0", node.Quantity)
	}

	// The node is dry: the next gatherer turns for storage instead.
	ce.Step(c1, world.ResourceStone, 1, e.IsWalkable)
	if c1.Gather.Phase != PhaseSeekStorage {
		t.Errorf("phase = %d at depleted node, want PhaseSeekStorage", c1.Gather.Phase)
	}
}

func TestDepositRetriesWhenStockpileFull(t *testing.T) {
	e := testWorld(8)
	ce := testGatherEngine(e)
	c := testCitizen(e, 1, RoleWorker, 4, 4)
	c.Gather.Phase = PhaseDeposit
	c.Carrying[world.ResourceWood] = 8

	e.Stockpile.SetCapacity(world.ResourceWood, 5)
	res := ce.Step(c, world.ResourceWood, 1, e.IsWalkable)
	if res.Deposited != 5 {
		t.Errorf("deposited %f, want 5", res.Deposited)
	}
	if c.Carrying[world.ResourceWood] != 3 {
		t.Errorf("carrying %f wood, want leftover 3", c.Carrying[world.ResourceWood])
	}
	if c.Gather.Phase != PhaseDeposit {
		t.Error("phase left PhaseDeposit with goods still in hand")
	}

	// Capacity restored: the leftover drains and the cycle restarts.
	e.Stockpile.SetCapacity(world.ResourceWood, 100)
	ce.Step(c, world.ResourceWood, 1, e.IsWalkable)
	if c.CarryingAny() {
		t.Error("leftover wood not deposited after capacity returned")
	}
	if c.Gather.Phase != PhaseSeekResource {
		t.Errorf("phase = %d, want PhaseSeekResource", c.Gather.Phase)
	}
}

func TestFindNearestPrefersLexicalTie(t *testing.T) {
	e := testWorld(9)
	// Two wood nodes equidistant from the center.
	placeNode(e, 2, 4, world.ResourceWood, 10)
	placeNode(e, 6, 4, world.ResourceWood, 10)
	ce := testGatherEngine(e)
	c := testCitizen(e, 1, RoleWorker, 4, 4)

	ce.Step(c, world.ResourceWood, 1, e.IsWalkable)
	if c.Gather.TargetX != 2 || c.Gather.TargetY != 4 {
		t.Errorf("target = (%d,%d), want lexically lower (2,4)", c.Gather.TargetX, c.Gather.TargetY)
	}
}
