// Package persistence provides SQLite-based save slots for the simulation.
// Each slot is keyed by a uuid and holds the full world, site, and citizen
// state needed to resume a session.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/world"
)

// DB wraps a SQLite connection for save-slot persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		tick INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		size INTEGER NOT NULL,
		difficulty TEXT NOT NULL,
		climate INTEGER NOT NULL,
		faith REAL NOT NULL,
		village_x INTEGER NOT NULL,
		village_y INTEGER NOT NULL,
		next_citizen_id INTEGER NOT NULL,
		stockpile_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cells (
		save_id TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		terrain INTEGER NOT NULL,
		fertility REAL NOT NULL,
		moisture REAL NOT NULL,
		priority INTEGER NOT NULL,
		structure INTEGER NOT NULL,
		site_id INTEGER NOT NULL,
		explored INTEGER NOT NULL,
		node_json TEXT,
		farm_json TEXT,
		PRIMARY KEY (save_id, x, y)
	);

	CREATE TABLE IF NOT EXISTS sites (
		save_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		type INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		required_stone REAL NOT NULL,
		required_wood REAL NOT NULL,
		delivered_stone REAL NOT NULL,
		delivered_wood REAL NOT NULL,
		reserved_stone REAL NOT NULL,
		reserved_wood REAL NOT NULL,
		labor REAL NOT NULL,
		labor_required REAL NOT NULL,
		state INTEGER NOT NULL,
		PRIMARY KEY (save_id, id)
	);

	CREATE TABLE IF NOT EXISTS citizens (
		save_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		tribe_id INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		role INTEGER NOT NULL,
		state INTEGER NOT NULL,
		age REAL NOT NULL,
		health REAL NOT NULL,
		hunger REAL NOT NULL,
		fatigue REAL NOT NULL,
		morale REAL NOT NULL,
		carry_cap REAL NOT NULL,
		blessed_until_age REAL NOT NULL,
		died_tick INTEGER NOT NULL,
		skills_json TEXT NOT NULL,
		carrying_json TEXT NOT NULL,
		goal_json TEXT NOT NULL,
		gather_json TEXT NOT NULL,
		PRIMARY KEY (save_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_cells_save ON cells(save_id);
	CREATE INDEX IF NOT EXISTS idx_citizens_save ON citizens(save_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// State is one complete save slot.
type State struct {
	SaveID     string
	CreatedAt  time.Time
	Tick       uint64
	Seed       int64
	Size       int
	Difficulty string
	Climate    world.Climate
	Faith      float64
	VillageX   int
	VillageY   int

	Stockpile     world.Stockpile
	Cells         []world.Cell
	Sites         []*world.ConstructionSite
	Citizens      []*citizen.Citizen
	NextCitizenID uint64
}

// Save writes the state as a new or replaced slot. A missing SaveID is
// assigned a fresh uuid. Returns the slot id.
func (db *DB) Save(st *State) (string, error) {
	if st.SaveID == "" {
		st.SaveID = uuid.NewString()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, table := range []string{"saves", "cells", "sites", "citizens"} {
		q := fmt.Sprintf("DELETE FROM %s WHERE ", table)
		if table == "saves" {
			q += "id = ?"
		} else {
			q += "save_id = ?"
		}
		if _, err := tx.Exec(q, st.SaveID); err != nil {
			return "", fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stockJSON, _ := json.Marshal(st.Stockpile)
	_, err = tx.Exec(`INSERT INTO saves
		(id, created_at, tick, seed, size, difficulty, climate, faith,
		 village_x, village_y, next_citizen_id, stockpile_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.SaveID, st.CreatedAt.Format(time.RFC3339), st.Tick, st.Seed, st.Size,
		st.Difficulty, st.Climate, st.Faith, st.VillageX, st.VillageY,
		st.NextCitizenID, string(stockJSON))
	if err != nil {
		return "", fmt.Errorf("insert save: %w", err)
	}

	if err := saveCells(tx, st); err != nil {
		return "", err
	}
	if err := saveSites(tx, st); err != nil {
		return "", err
	}
	if err := saveCitizens(tx, st); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("game saved",
		"save_id", st.SaveID,
		"tick", st.Tick,
		"citizens", len(st.Citizens),
		"sites", len(st.Sites))
	return st.SaveID, nil
}

func saveCells(tx *sqlx.Tx, st *State) error {
	stmt, err := tx.Preparex(`INSERT INTO cells
		(save_id, x, y, terrain, fertility, moisture, priority, structure,
		 site_id, explored, node_json, farm_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range st.Cells {
		c := &st.Cells[i]
		var nodeJSON, farmJSON any
		if c.Node != nil {
			b, _ := json.Marshal(c.Node)
			nodeJSON = string(b)
		}
		if c.Farm != nil {
			b, _ := json.Marshal(c.Farm)
			farmJSON = string(b)
		}
		explored := 0
		if c.Explored {
			explored = 1
		}
		if _, err := stmt.Exec(st.SaveID, c.X, c.Y, c.Terrain, c.Fertility,
			c.Moisture, c.Priority, c.Structure, c.SiteID, explored,
			nodeJSON, farmJSON); err != nil {
			return fmt.Errorf("insert cell (%d,%d): %w", c.X, c.Y, err)
		}
	}
	return nil
}

func saveSites(tx *sqlx.Tx, st *State) error {
	for _, s := range st.Sites {
		_, err := tx.Exec(`INSERT INTO sites
			(save_id, id, type, x, y, required_stone, required_wood,
			 delivered_stone, delivered_wood, reserved_stone, reserved_wood,
			 labor, labor_required, state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.SaveID, s.ID, s.Type, s.X, s.Y, s.RequiredStone, s.RequiredWood,
			s.DeliveredStone, s.DeliveredWood, s.ReservedStone, s.ReservedWood,
			s.Labor, s.LaborRequired, s.State)
		if err != nil {
			return fmt.Errorf("insert site %d: %w", s.ID, err)
		}
	}
	return nil
}

func saveCitizens(tx *sqlx.Tx, st *State) error {
	stmt, err := tx.Preparex(`INSERT INTO citizens
		(save_id, id, name, tribe_id, x, y, role, state, age, health, hunger,
		 fatigue, morale, carry_cap, blessed_until_age, died_tick,
		 skills_json, carrying_json, goal_json, gather_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range st.Citizens {
		skillsJSON, _ := json.Marshal(c.Skills)
		carryingJSON, _ := json.Marshal(c.Carrying)
		goalJSON, _ := json.Marshal(c.Goal)
		gatherJSON, _ := json.Marshal(c.Gather)
		_, err := stmt.Exec(st.SaveID, c.ID, c.Name, c.TribeID, c.X, c.Y,
			c.Role, c.State, c.Age, c.Health, c.Hunger, c.Fatigue, c.Morale,
			c.CarryCap, c.BlessedUntilAge, c.DiedTick,
			string(skillsJSON), string(carryingJSON), string(goalJSON), string(gatherJSON))
		if err != nil {
			return fmt.Errorf("insert citizen %d: %w", c.ID, err)
		}
	}
	return nil
}

type saveRow struct {
	ID            string  `db:"id"`
	CreatedAt     string  `db:"created_at"`
	Tick          uint64  `db:"tick"`
	Seed          int64   `db:"seed"`
	Size          int     `db:"size"`
	Difficulty    string  `db:"difficulty"`
	Climate       uint8   `db:"climate"`
	Faith         float64 `db:"faith"`
	VillageX      int     `db:"village_x"`
	VillageY      int     `db:"village_y"`
	NextCitizenID uint64  `db:"next_citizen_id"`
	StockpileJSON string  `db:"stockpile_json"`
}

type cellRow struct {
	X         int     `db:"x"`
	Y         int     `db:"y"`
	Terrain   uint8   `db:"terrain"`
	Fertility float64 `db:"fertility"`
	Moisture  float64 `db:"moisture"`
	Priority  uint8   `db:"priority"`
	Structure uint8   `db:"structure"`
	SiteID    uint64  `db:"site_id"`
	Explored  int     `db:"explored"`
	NodeJSON  *string `db:"node_json"`
	FarmJSON  *string `db:"farm_json"`
}

type siteRow struct {
	ID             uint64  `db:"id"`
	Type           uint8   `db:"type"`
	X              int     `db:"x"`
	Y              int     `db:"y"`
	RequiredStone  float64 `db:"required_stone"`
	RequiredWood   float64 `db:"required_wood"`
	DeliveredStone float64 `db:"delivered_stone"`
	DeliveredWood  float64 `db:"delivered_wood"`
	ReservedStone  float64 `db:"reserved_stone"`
	ReservedWood   float64 `db:"reserved_wood"`
	Labor          float64 `db:"labor"`
	LaborRequired  float64 `db:"labor_required"`
	State          uint8   `db:"state"`
}

type citizenRow struct {
	ID              uint64  `db:"id"`
	Name            string  `db:"name"`
	TribeID         uint8   `db:"tribe_id"`
	X               int     `db:"x"`
	Y               int     `db:"y"`
	Role            uint8   `db:"role"`
	State           uint8   `db:"state"`
	Age             float64 `db:"age"`
	Health          float64 `db:"health"`
	Hunger          float64 `db:"hunger"`
	Fatigue         float64 `db:"fatigue"`
	Morale          float64 `db:"morale"`
	CarryCap        float64 `db:"carry_cap"`
	BlessedUntilAge float64 `db:"blessed_until_age"`
	DiedTick        uint64  `db:"died_tick"`
	SkillsJSON      string  `db:"skills_json"`
	CarryingJSON    string  `db:"carrying_json"`
	GoalJSON        string  `db:"goal_json"`
	GatherJSON      string  `db:"gather_json"`
}

// Load reads one slot back into a State.
func (db *DB) Load(saveID string) (*State, error) {
	var meta saveRow
	if err := db.conn.Get(&meta, "SELECT * FROM saves WHERE id = ?", saveID); err != nil {
		return nil, fmt.Errorf("load save %s: %w", saveID, err)
	}

	st := &State{
		SaveID:        meta.ID,
		Tick:          meta.Tick,
		Seed:          meta.Seed,
		Size:          meta.Size,
		Difficulty:    meta.Difficulty,
		Climate:       world.Climate(meta.Climate),
		Faith:         meta.Faith,
		VillageX:      meta.VillageX,
		VillageY:      meta.VillageY,
		NextCitizenID: meta.NextCitizenID,
	}
	if t, err := time.Parse(time.RFC3339, meta.CreatedAt); err == nil {
		st.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(meta.StockpileJSON), &st.Stockpile); err != nil {
		return nil, fmt.Errorf("decode stockpile: %w", err)
	}

	if err := db.loadCells(st); err != nil {
		return nil, err
	}
	if err := db.loadSites(st); err != nil {
		return nil, err
	}
	if err := db.loadCitizens(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (db *DB) loadCells(st *State) error {
	var rows []cellRow
	err := db.conn.Select(&rows,
		"SELECT x, y, terrain, fertility, moisture, priority, structure, site_id, explored, node_json, farm_json FROM cells WHERE save_id = ? ORDER BY y, x",
		st.SaveID)
	if err != nil {
		return fmt.Errorf("load cells: %w", err)
	}
	if len(rows) != st.Size*st.Size {
		return fmt.Errorf("save %s holds %d cells, want %d", st.SaveID, len(rows), st.Size*st.Size)
	}
	st.Cells = make([]world.Cell, len(rows))
	for i, r := range rows {
		c := world.Cell{
			X:         r.X,
			Y:         r.Y,
			Terrain:   world.Terrain(r.Terrain),
			Fertility: r.Fertility,
			Moisture:  r.Moisture,
			Priority:  world.PriorityMark(r.Priority),
			Structure: world.StructureType(r.Structure),
			SiteID:    r.SiteID,
			Explored:  r.Explored != 0,
			Occupants: make(map[uint64]struct{}),
		}
		if r.NodeJSON != nil {
			c.Node = &world.ResourceNode{}
			if err := json.Unmarshal([]byte(*r.NodeJSON), c.Node); err != nil {
				return fmt.Errorf("decode node (%d,%d): %w", r.X, r.Y, err)
			}
		}
		if r.FarmJSON != nil {
			c.Farm = &world.FarmTask{}
			if err := json.Unmarshal([]byte(*r.FarmJSON), c.Farm); err != nil {
				return fmt.Errorf("decode farm (%d,%d): %w", r.X, r.Y, err)
			}
		}
		st.Cells[i] = c
	}
	return nil
}

func (db *DB) loadSites(st *State) error {
	var rows []siteRow
	err := db.conn.Select(&rows,
		"SELECT id, type, x, y, required_stone, required_wood, delivered_stone, delivered_wood, reserved_stone, reserved_wood, labor, labor_required, state FROM sites WHERE save_id = ? ORDER BY id",
		st.SaveID)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}
	for _, r := range rows {
		st.Sites = append(st.Sites, &world.ConstructionSite{
			ID:             r.ID,
			Type:           world.StructureType(r.Type),
			X:              r.X,
			Y:              r.Y,
			RequiredStone:  r.RequiredStone,
			RequiredWood:   r.RequiredWood,
			DeliveredStone: r.DeliveredStone,
			DeliveredWood:  r.DeliveredWood,
			ReservedStone:  r.ReservedStone,
			ReservedWood:   r.ReservedWood,
			Labor:          r.Labor,
			LaborRequired:  r.LaborRequired,
			State:          world.SiteState(r.State),
		})
	}
	return nil
}

func (db *DB) loadCitizens(st *State) error {
	var rows []citizenRow
	err := db.conn.Select(&rows,
		"SELECT id, name, tribe_id, x, y, role, state, age, health, hunger, fatigue, morale, carry_cap, blessed_until_age, died_tick, skills_json, carrying_json, goal_json, gather_json FROM citizens WHERE save_id = ? ORDER BY id",
		st.SaveID)
	if err != nil {
		return fmt.Errorf("load citizens: %w", err)
	}
	for _, r := range rows {
		c := &citizen.Citizen{
			ID:              r.ID,
			Name:            r.Name,
			TribeID:         r.TribeID,
			X:               r.X,
			Y:               r.Y,
			Role:            citizen.Role(r.Role),
			State:           citizen.State(r.State),
			Age:             r.Age,
			Health:          r.Health,
			Hunger:          r.Hunger,
			Fatigue:         r.Fatigue,
			Morale:          r.Morale,
			CarryCap:        r.CarryCap,
			BlessedUntilAge: r.BlessedUntilAge,
			DiedTick:        r.DiedTick,
		}
		if err := json.Unmarshal([]byte(r.SkillsJSON), &c.Skills); err != nil {
			return fmt.Errorf("decode skills for citizen %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.CarryingJSON), &c.Carrying); err != nil {
			return fmt.Errorf("decode carrying for citizen %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.GoalJSON), &c.Goal); err != nil {
			return fmt.Errorf("decode goal for citizen %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.GatherJSON), &c.Gather); err != nil {
			return fmt.Errorf("decode gather state for citizen %d: %w", r.ID, err)
		}
		st.Citizens = append(st.Citizens, c)
	}
	return nil
}

// SaveInfo summarizes one stored slot.
type SaveInfo struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	Tick      uint64 `db:"tick"`
	Size      int    `db:"size"`
}

// ListSaves returns stored slots, newest first.
func (db *DB) ListSaves() ([]SaveInfo, error) {
	var out []SaveInfo
	err := db.conn.Select(&out,
		"SELECT id, created_at, tick, size FROM saves ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return out, nil
}

// DeleteSave removes a slot and all its rows.
func (db *DB) DeleteSave(saveID string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		"DELETE FROM cells WHERE save_id = ?",
		"DELETE FROM sites WHERE save_id = ?",
		"DELETE FROM citizens WHERE save_id = ?",
		"DELETE FROM saves WHERE id = ?",
	} {
		if _, err := tx.Exec(q, saveID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
