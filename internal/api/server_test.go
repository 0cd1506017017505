package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/talgya/tribelands/internal/config"
	"github.com/talgya/tribelands/internal/sim"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.World.Size = 16
	cfg.World.Seed = 12345
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	session := sim.NewSession(cfg, logger)
	runner := sim.NewRunner(session, logger, cfg.Tick.Hours, 50*time.Millisecond)
	runner.Step()
	return &Server{Runner: runner, AdminKey: "test-key"}
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["name"] != "Tribelands" {
		t.Errorf("name = %v, want Tribelands", body["name"])
	}
	if body["tick"].(float64) != 1 {
		t.Errorf("tick = %v, want 1", body["tick"])
	}
	if body["population"].(float64) <= 0 {
		t.Errorf("population = %v, want > 0", body["population"])
	}
}

func TestMapEndpoint(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleMap(rec, httptest.NewRequest(http.MethodGet, "/api/v1/map", nil))

	var body struct {
		Size  int `json:"size"`
		Cells []struct {
			Terrain string `json:"terrain"`
		} `json:"cells"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Size != 16 {
		t.Errorf("size = %d, want 16", body.Size)
	}
	if len(body.Cells) != 16*16 {
		t.Errorf("cells = %d, want %d", len(body.Cells), 16*16)
	}
	if body.Cells[0].Terrain == "" {
		t.Error("cell terrain empty")
	}
}

func TestCitizensAndDetail(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.handleCitizens(rec, httptest.NewRequest(http.MethodGet, "/api/v1/citizens", nil))

	var list []citizenSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("no citizens listed")
	}

	rec = httptest.NewRecorder()
	path := "/api/v1/citizen/" + strconv.FormatUint(list[0].ID, 10)
	s.handleCitizenDetail(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleCitizenDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/citizen/999999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing citizen status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleCitizenDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/citizen/bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestAdminAuthRequired(t *testing.T) {
	s := testServer(t)

	body := bytes.NewBufferString(`{"speed": 2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", body)
	rec := httptest.NewRecorder()
	s.adminOnly(s.handleSpeed)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated POST = %d, want 401", rec.Code)
	}

	body = bytes.NewBufferString(`{"speed": 2}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/speed", body)
	req.Header.Set("Authorization", "Bearer test-key")
	rec = httptest.NewRecorder()
	s.adminOnly(s.handleSpeed)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated POST = %d, want 200", rec.Code)
	}
	if got := s.Runner.Speed(); got != 2 {
		t.Errorf("speed = %f, want 2", got)
	}

	// GET passes through without a token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/speed", nil)
	rec = httptest.NewRecorder()
	s.adminOnly(s.handleSpeed)(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET without token = %d, want 200", rec.Code)
	}
}

func TestPaintEndpointQueuesIntent(t *testing.T) {
	s := testServer(t)

	body := bytes.NewBufferString(`{"brush": "mine", "paints": [{"x": 1, "y": 1, "mark": "mine"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/paint", body)
	rec := httptest.NewRecorder()
	s.handlePaint(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("paint status = %d: %s", rec.Code, rec.Body.String())
	}

	s.Runner.Step()
	s.Runner.Do(func(sess *sim.Session) {
		if got := sess.Snapshot().ActivePriority; got != "mine" {
			t.Errorf("active priority = %q, want mine", got)
		}
	})
}

func TestPaintEndpointRejectsUnknownMark(t *testing.T) {
	s := testServer(t)
	body := bytes.NewBufferString(`{"paints": [{"x": 1, "y": 1, "mark": "lava"}]}`)
	rec := httptest.NewRecorder()
	s.handlePaint(rec, httptest.NewRequest(http.MethodPost, "/api/v1/paint", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRolesEndpointValidation(t *testing.T) {
	s := testServer(t)

	body := bytes.NewBufferString(`{"targets": {"child": 3}}`)
	rec := httptest.NewRecorder()
	s.handleRoles(rec, httptest.NewRequest(http.MethodPost, "/api/v1/roles", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unassignable role status = %d, want 400", rec.Code)
	}

	body = bytes.NewBufferString(`{"targets": {"farmer": 3, "warrior": 1}, "priority": "farmer"}`)
	rec = httptest.NewRecorder()
	s.handleRoles(rec, httptest.NewRequest(http.MethodPost, "/api/v1/roles", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("valid roles status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRateLimiterBurstAndRefill(t *testing.T) {
	rl := NewRateLimiter(1, 2) // one token per second, bucket of two
	start := time.Now()

	if !rl.allowAt("1.2.3.4", start) || !rl.allowAt("1.2.3.4", start) {
		t.Fatal("burst of two denied")
	}
	if rl.allowAt("1.2.3.4", start) {
		t.Error("third request allowed past an empty bucket")
	}
	if !rl.allowAt("5.6.7.8", start) {
		t.Error("separate client denied")
	}
	if rl.RetryAfter("1.2.3.4") <= 0 {
		t.Error("retry-after not positive for a drained client")
	}

	// One second of refill buys exactly one more request.
	later := start.Add(time.Second)
	if !rl.allowAt("1.2.3.4", later) {
		t.Error("request denied after refill")
	}
	if rl.allowAt("1.2.3.4", later) {
		t.Error("second request allowed on a single refilled token")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/map", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Errorf("clientIP = %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Errorf("clientIP with XFF = %q, want 203.0.113.9", got)
	}
}
