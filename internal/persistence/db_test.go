package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleState() *State {
	const size = 4
	cells := make([]world.Cell, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cells[y*size+x] = world.Cell{
				X:         x,
				Y:         y,
				Terrain:   world.TerrainGrassland,
				Fertility: 0.5,
				Moisture:  0.4,
			}
		}
	}
	cells[0].Node = &world.ResourceNode{
		Type:      world.ResourceWood,
		Quantity:  12,
		Max:       40,
		Renewable: true,
		Regrowth:  0.05,
	}
	cells[1].Priority = world.MarkFarm
	cells[1].Farm = &world.FarmTask{Stage: world.FarmGrow, Progress: 0.6}
	cells[5].Structure = world.StructureVillage
	cells[6].SiteID = 3
	cells[6].Explored = true

	var stock world.Stockpile
	stock.Capacity = [world.NumResources]float64{100, 100, 100, 50}
	stock.Amounts = [world.NumResources]float64{42, 10, 5, 20}
	stock.Reserved[world.ResourceStone] = 2

	c := &citizen.Citizen{
		ID:      7,
		Name:    "Belan",
		X:       1,
		Y:       1,
		Role:    citizen.RoleFarmer,
		State:   citizen.StateAlive,
		Age:     31.5,
		Health:  88,
		Hunger:  12,
		Fatigue: 40,
		Morale:  55,
		Goal:    citizen.Goal{Kind: citizen.GoalFarm, TargetX: 1, TargetY: 0},
		Gather:  citizen.GatherState{Phase: citizen.PhaseSeekResource, TargetX: -1, TargetY: -1},
	}
	c.Skills[citizen.SkillFarming] = 30
	c.Carrying[world.ResourceFood] = 3

	return &State{
		Tick:       120,
		Seed:       99,
		Size:       size,
		Difficulty: "normal",
		Climate:    world.ClimateRain,
		Faith:      4.5,
		VillageX:   1,
		VillageY:   1,
		Stockpile:  stock,
		Cells:      cells,
		Sites: []*world.ConstructionSite{{
			ID:             3,
			Type:           world.StructureGranary,
			X:              2,
			Y:              1,
			RequiredStone:  10,
			RequiredWood:   20,
			DeliveredStone: 4,
			DeliveredWood:  6,
			ReservedStone:  6,
			ReservedWood:   14,
			Labor:          1.5,
			LaborRequired:  24,
			State:          world.SiteInProgress,
		}},
		Citizens:      []*citizen.Citizen{c},
		NextCitizenID: 8,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	st := sampleState()

	id, err := db.Save(st)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatal("empty save id")
	}

	got, err := db.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Tick != st.Tick || got.Seed != st.Seed || got.Size != st.Size {
		t.Errorf("meta = tick %d seed %d size %d, want tick %d seed %d size %d",
			got.Tick, got.Seed, got.Size, st.Tick, st.Seed, st.Size)
	}
	if got.Climate != world.ClimateRain || got.Difficulty != "normal" {
		t.Errorf("climate/difficulty = %d/%q", got.Climate, got.Difficulty)
	}
	if got.Faith != st.Faith || got.VillageX != st.VillageX || got.VillageY != st.VillageY {
		t.Errorf("faith/village mismatch: %+v", got)
	}
	if got.Stockpile.Amounts != st.Stockpile.Amounts ||
		got.Stockpile.Capacity != st.Stockpile.Capacity ||
		got.Stockpile.Reserved != st.Stockpile.Reserved {
		t.Errorf("stockpile mismatch: %+v vs %+v", got.Stockpile, st.Stockpile)
	}
	if got.NextCitizenID != 8 {
		t.Errorf("next citizen id = %d, want 8", got.NextCitizenID)
	}

	if len(got.Cells) != st.Size*st.Size {
		t.Fatalf("cells = %d, want %d", len(got.Cells), st.Size*st.Size)
	}
	if n := got.Cells[0].Node; n == nil || n.Type != world.ResourceWood || n.Quantity != 12 || !n.Renewable {
		t.Errorf("node cell mismatch: %+v", got.Cells[0].Node)
	}
	if f := got.Cells[1].Farm; f == nil || f.Stage != world.FarmGrow || f.Progress != 0.6 {
		t.Errorf("farm cell mismatch: %+v", got.Cells[1].Farm)
	}
	if got.Cells[1].Priority != world.MarkFarm {
		t.Errorf("priority = %d, want farm mark", got.Cells[1].Priority)
	}
	if got.Cells[5].Structure != world.StructureVillage {
		t.Errorf("structure = %d, want village", got.Cells[5].Structure)
	}
	if !got.Cells[6].Explored || got.Cells[6].SiteID != 3 {
		t.Errorf("explored/site cell mismatch: %+v", got.Cells[6])
	}
	if got.Cells[2].Node != nil || got.Cells[2].Farm != nil {
		t.Error("empty cell grew a node or farm on reload")
	}

	if len(got.Sites) != 1 {
		t.Fatalf("sites = %d, want 1", len(got.Sites))
	}
	if *got.Sites[0] != *st.Sites[0] {
		t.Errorf("site mismatch: %+v vs %+v", got.Sites[0], st.Sites[0])
	}

	if len(got.Citizens) != 1 {
		t.Fatalf("citizens = %d, want 1", len(got.Citizens))
	}
	gc, wc := got.Citizens[0], st.Citizens[0]
	if gc.ID != wc.ID || gc.Name != wc.Name || gc.Role != wc.Role || gc.State != wc.State {
		t.Errorf("citizen identity mismatch: %+v", gc)
	}
	if gc.Age != wc.Age || gc.Health != wc.Health || gc.Hunger != wc.Hunger ||
		gc.Fatigue != wc.Fatigue || gc.Morale != wc.Morale {
		t.Errorf("citizen needs mismatch: %+v", gc)
	}
	if gc.Goal != wc.Goal {
		t.Errorf("goal = %+v, want %+v", gc.Goal, wc.Goal)
	}
	if gc.Gather != wc.Gather {
		t.Errorf("gather state = %+v, want %+v", gc.Gather, wc.Gather)
	}
	if gc.Skills != wc.Skills {
		t.Errorf("skills = %+v, want %+v", gc.Skills, wc.Skills)
	}
	if gc.Carrying != wc.Carrying {
		t.Errorf("carrying = %+v, want %+v", gc.Carrying, wc.Carrying)
	}
}

func TestSaveReplacesExistingSlot(t *testing.T) {
	db := openTestDB(t)
	st := sampleState()

	id, err := db.Save(st)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	st.Tick = 500
	st.Citizens = nil
	if _, err := db.Save(st); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := db.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Tick != 500 {
		t.Errorf("tick = %d, want 500 after resave", got.Tick)
	}
	if len(got.Citizens) != 0 {
		t.Errorf("citizens = %d, want 0 after resave", len(got.Citizens))
	}

	saves, err := db.ListSaves()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(saves) != 1 {
		t.Errorf("saves = %d, want 1", len(saves))
	}
}

func TestListAndDelete(t *testing.T) {
	db := openTestDB(t)
	a := sampleState()
	b := sampleState()
	b.SaveID = ""

	idA, err := db.Save(a)
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	idB, err := db.Save(b)
	if err != nil {
		t.Fatalf("save b: %v", err)
	}
	if idA == idB {
		t.Fatal("two slots share an id")
	}

	saves, err := db.ListSaves()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(saves) != 2 {
		t.Fatalf("saves = %d, want 2", len(saves))
	}

	if err := db.DeleteSave(idA); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Load(idA); err == nil {
		t.Error("loading a deleted slot succeeded")
	}
	saves, _ = db.ListSaves()
	if len(saves) != 1 || saves[0].ID != idB {
		t.Errorf("remaining saves = %+v, want only %s", saves, idB)
	}
}

func TestLoadMissingSlot(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Load("no-such-slot"); err == nil {
		t.Error("loading a missing slot succeeded")
	}
}
