// Package api provides the HTTP API over a running simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/tribelands/internal/citizen"
	"github.com/talgya/tribelands/internal/events"
	"github.com/talgya/tribelands/internal/persistence"
	"github.com/talgya/tribelands/internal/sim"
	"github.com/talgya/tribelands/internal/world"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Runner   *sim.Runner
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The bulk map payload grows with the square of world size; cap how often
	// one client can pull it. Two per second sustained, bursts of 30.
	mapLimiter := NewRateLimiter(2, 30)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the tribe).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", mapLimiter.Middleware(s.handleMap))
	mux.HandleFunc("/api/v1/citizens", s.handleCitizens)
	mux.HandleFunc("/api/v1/citizen/", s.handleCitizenDetail)
	mux.HandleFunc("/api/v1/sites", s.handleSites)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/saves", s.handleSaves)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/paint", s.adminOnly(s.handlePaint))
	mux.HandleFunc("/api/v1/construction", s.adminOnly(s.handleConstruction))
	mux.HandleFunc("/api/v1/roles", s.adminOnly(s.handleRoles))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no TRIBELANDS_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var snap sim.Snapshot
	s.Runner.Do(func(sess *sim.Session) { snap = sess.Snapshot() })

	writeJSON(w, map[string]any{
		"name":            "Tribelands",
		"tick":            snap.Tick,
		"climate":         snap.Climate,
		"speed":           s.Runner.Speed(),
		"population":      snap.Population,
		"population_cap":  snap.PopulationCap,
		"faith":           snap.Faith,
		"stockpile":       snap.Stockpile,
		"capacity":        snap.Capacity,
		"explored":        snap.Explored,
		"active_priority": snap.ActivePriority,
		"food_trend":      snap.FoodTrend,
		"pop_trend":       snap.PopTrend,
	})
}

// handleMap returns the full grid for the tile renderer.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	type nodeEntry struct {
		Type     string  `json:"type"`
		Quantity float64 `json:"quantity"`
		Max      float64 `json:"max"`
	}
	type cellEntry struct {
		X         int        `json:"x"`
		Y         int        `json:"y"`
		Terrain   string     `json:"terrain"`
		Fertility float64    `json:"fertility"`
		Structure string     `json:"structure,omitempty"`
		Priority  string     `json:"priority,omitempty"`
		Explored  bool       `json:"explored"`
		SiteID    uint64     `json:"site_id,omitempty"`
		Node      *nodeEntry `json:"node,omitempty"`
	}

	var size, vx, vy int
	var cells []cellEntry
	s.Runner.Do(func(sess *sim.Session) {
		e := sess.World()
		size, vx, vy = e.Size, e.VillageX, e.VillageY
		cells = make([]cellEntry, 0, len(e.Cells))
		for i := range e.Cells {
			c := &e.Cells[i]
			entry := cellEntry{
				X:         c.X,
				Y:         c.Y,
				Terrain:   world.TerrainName(c.Terrain),
				Fertility: c.Fertility,
				Explored:  c.Explored,
				SiteID:    c.SiteID,
			}
			if c.Structure != world.StructureNone {
				entry.Structure = world.StructureName(c.Structure)
			}
			if c.Priority != world.MarkNone {
				entry.Priority = world.MarkName(c.Priority)
			}
			if c.Node != nil {
				entry.Node = &nodeEntry{
					Type:     world.ResourceName(c.Node.Type),
					Quantity: c.Node.Quantity,
					Max:      c.Node.Max,
				}
			}
			cells = append(cells, entry)
		}
	})

	writeJSON(w, map[string]any{
		"size":      size,
		"village_x": vx,
		"village_y": vy,
		"cells":     cells,
	})
}

type citizenSummary struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Role    string  `json:"role"`
	Age     float64 `json:"age"`
	Health  float64 `json:"health"`
	Hunger  float64 `json:"hunger"`
	Fatigue float64 `json:"fatigue"`
	Morale  float64 `json:"morale"`
	Goal    string  `json:"goal"`
	Blessed bool    `json:"blessed,omitempty"`
}

func summarize(c *citizen.Citizen) citizenSummary {
	return citizenSummary{
		ID:      c.ID,
		Name:    c.Name,
		X:       c.X,
		Y:       c.Y,
		Role:    citizen.RoleName(c.Role),
		Age:     c.Age,
		Health:  c.Health,
		Hunger:  c.Hunger,
		Fatigue: c.Fatigue,
		Morale:  c.Morale,
		Goal:    citizen.GoalName(c.Goal.Kind),
		Blessed: c.Blessed(),
	}
}

func (s *Server) handleCitizens(w http.ResponseWriter, r *http.Request) {
	var result []citizenSummary
	s.Runner.Do(func(sess *sim.Session) {
		for _, c := range sess.CitizenSystem().Citizens() {
			if c.Alive() {
				result = append(result, summarize(c))
			}
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleCitizenDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/citizen/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid citizen id", http.StatusBadRequest)
		return
	}

	var found *citizen.Citizen
	s.Runner.Do(func(sess *sim.Session) {
		found = sess.CitizenSystem().Get(id)
	})
	if found == nil {
		http.Error(w, "citizen not found", http.StatusNotFound)
		return
	}

	skills := make(map[string]float64, citizen.NumSkills)
	for sk := citizen.Skill(0); sk < citizen.NumSkills; sk++ {
		skills[citizen.SkillName(sk)] = found.Skills[sk]
	}
	carrying := make(map[string]float64)
	for t := world.ResourceType(0); t < world.NumResources; t++ {
		if found.Carrying[t] > 0 {
			carrying[world.ResourceName(t)] = found.Carrying[t]
		}
	}

	detail := map[string]any{
		"summary":  summarize(found),
		"skills":   skills,
		"carrying": carrying,
		"target_x": found.Goal.TargetX,
		"target_y": found.Goal.TargetY,
		"alive":    found.Alive(),
	}
	writeJSON(w, detail)
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	type siteEntry struct {
		ID             uint64  `json:"id"`
		Type           string  `json:"type"`
		X              int     `json:"x"`
		Y              int     `json:"y"`
		RequiredStone  float64 `json:"required_stone"`
		RequiredWood   float64 `json:"required_wood"`
		DeliveredStone float64 `json:"delivered_stone"`
		DeliveredWood  float64 `json:"delivered_wood"`
		Labor          float64 `json:"labor"`
		LaborRequired  float64 `json:"labor_required"`
		Complete       bool    `json:"materials_complete"`
	}

	var result []siteEntry
	s.Runner.Do(func(sess *sim.Session) {
		for _, site := range sess.World().Sites() {
			result = append(result, siteEntry{
				ID:             site.ID,
				Type:           world.StructureName(site.Type),
				X:              site.X,
				Y:              site.Y,
				RequiredStone:  site.RequiredStone,
				RequiredWood:   site.RequiredWood,
				DeliveredStone: site.DeliveredStone,
				DeliveredWood:  site.DeliveredWood,
				Labor:          site.Labor,
				LaborRequired:  site.LaborRequired,
				Complete:       site.MaterialsComplete(),
			})
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	recent := s.Runner.RecentEvents(0)

	// Optional kind filter.
	if kind := r.URL.Query().Get("kind"); kind != "" {
		var filtered []events.Event
		for _, e := range recent {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		recent = filtered
	}

	start := 0
	if len(recent) > limit {
		start = len(recent) - limit
	}
	writeJSON(w, recent[start:])
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var out map[string]any
	s.Runner.Do(func(sess *sim.Session) {
		out = map[string]any{
			"latest":           sess.Stats().Latest(),
			"food_trend":       sess.Stats().FoodTrend(),
			"population_trend": sess.Stats().PopulationTrend(),
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	var history any
	s.Runner.Do(func(sess *sim.Session) {
		history = sess.Stats().History()
	})
	writeJSON(w, history)
}

func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	saves, err := s.DB.ListSaves()
	if err != nil {
		slog.Error("list saves failed", "error", err)
		http.Error(w, "list saves failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saves)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Runner.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Runner.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var id string
	var tick uint64
	var saveErr error
	s.Runner.Do(func(sess *sim.Session) {
		tick = sess.Tick()
		id, saveErr = s.DB.Save(sess.CaptureState())
	})
	if saveErr != nil {
		slog.Error("snapshot save failed", "error", saveErr)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"save_id": id,
		"tick":    tick,
		"message": "snapshot saved",
	})
}

func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Brush  string `json:"brush,omitempty"`
		Paints []struct {
			X     int    `json:"x"`
			Y     int    `json:"y"`
			Mark  string `json:"mark"`
			Clear bool   `json:"clear,omitempty"`
		} `json:"paints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if req.Brush != "" {
		mark := world.ParseMark(req.Brush)
		if world.MarkName(mark) != req.Brush || mark == world.MarkNone {
			http.Error(w, "unknown brush "+req.Brush, http.StatusBadRequest)
			return
		}
		s.Runner.SubmitPriority(mark)
	}

	cmds := make([]sim.PaintCommand, 0, len(req.Paints))
	for _, p := range req.Paints {
		cmd := sim.PaintCommand{X: p.X, Y: p.Y, Clear: p.Clear}
		if !p.Clear {
			mark := world.ParseMark(p.Mark)
			if world.MarkName(mark) != p.Mark || mark == world.MarkNone {
				http.Error(w, "unknown mark "+p.Mark, http.StatusBadRequest)
				return
			}
			cmd.Mark = mark
		}
		cmds = append(cmds, cmd)
	}
	s.Runner.SubmitPaints(cmds)
	writeJSON(w, map[string]any{"queued": len(cmds)})
}

func (s *Server) handleConstruction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Cancel  bool   `json:"cancel,omitempty"`
		Type    string `json:"type,omitempty"`
		X       int    `json:"x,omitempty"`
		Y       int    `json:"y,omitempty"`
		SiteID  uint64 `json:"site_id,omitempty"`
		Reclaim bool   `json:"reclaim,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cmd := sim.ConstructionCommand{
		Cancel:  req.Cancel,
		SiteID:  req.SiteID,
		Reclaim: req.Reclaim,
		X:       req.X,
		Y:       req.Y,
	}
	if !req.Cancel {
		st := world.ParseStructure(req.Type)
		if st == world.StructureNone || world.StructureName(st) != req.Type {
			http.Error(w, "unknown structure type "+req.Type, http.StatusBadRequest)
			return
		}
		cmd.Type = st
	}
	s.Runner.SubmitConstruction([]sim.ConstructionCommand{cmd})
	writeJSON(w, map[string]any{"queued": true})
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Targets  map[string]int `json:"targets"`
		TribeID  uint8          `json:"tribe_id,omitempty"`
		Priority string         `json:"priority,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	targets := make(map[citizen.Role]int, len(req.Targets))
	for name, n := range req.Targets {
		role := citizen.ParseRole(name)
		if citizen.RoleName(role) != name || !role.Assignable() {
			http.Error(w, "unknown or unassignable role "+name, http.StatusBadRequest)
			return
		}
		targets[role] = n
	}
	priority := citizen.RoleWorker
	if req.Priority != "" {
		priority = citizen.ParseRole(req.Priority)
		if citizen.RoleName(priority) != req.Priority {
			http.Error(w, "unknown priority role "+req.Priority, http.StatusBadRequest)
			return
		}
	}
	s.Runner.SubmitRoleTargets(targets, req.TribeID, priority)
	writeJSON(w, map[string]any{"queued": true})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
