//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/wolfbot/internal/domain"
	"github.com/ashureev/wolfbot/internal/game"
	"github.com/ashureev/wolfbot/internal/i18n"
	"github.com/ashureev/wolfbot/internal/identity"
	"github.com/ashureev/wolfbot/internal/messaging"
	"github.com/ashureev/wolfbot/internal/notify"
	"github.com/ashureev/wolfbot/internal/service"
	"github.com/ashureev/wolfbot/internal/store"
	"github.com/go-chi/chi/v5"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKey    string
	}{
		{fmt.Errorf("seat 2: %w", game.ErrPlayerSeatTaken), http.StatusConflict, i18n.KeySeatTaken},
		{game.ErrNoSession, http.StatusNotFound, i18n.KeyNoSession},
		{service.ErrForbidden, http.StatusForbidden, i18n.KeyForbidden},
		{fmt.Errorf("%w: 9 not in [0..4]", game.ErrInvalidSeat), http.StatusBadRequest, i18n.KeyInvalidSeat},
		{store.ErrAliasTaken, http.StatusConflict, i18n.KeyAliasTaken},
		{fmt.Errorf("%w: 7", service.ErrInvalidLevel), http.StatusBadRequest, i18n.KeyBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError, i18n.KeyInternal},
	}
	for _, tt := range tests {
		status, key := classify(tt.err)
		if status != tt.wantStatus || key != tt.wantKey {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, key, tt.wantStatus, tt.wantKey)
		}
	}
}

type testServer struct {
	router http.Handler
	repo   store.Repository
	hub    *messaging.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	hub := messaging.NewHub(messaging.NewMailbox(10), nil)
	registry := game.NewRegistry(nil, nil, game.WithSessionOptions(game.WithRand(rand.New(rand.NewPCG(3, 5)))))
	svc := service.New(registry, notify.New(hub, notify.Config{}, nil), repo, nil)
	base := NewHandler(svc, "en", nil)

	r := chi.NewRouter()
	r.Use(identity.Middleware("80000000"))
	NewGroupHandler(base).RegisterRoutes(r)
	NewPresetHandler(base).RegisterRoutes(r)
	NewOperatorHandler(base).RegisterRoutes(r)
	return &testServer{router: r, repo: repo, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, user, body string, header ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(identity.UserHeaderName, user)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var got map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	return rec, got
}

func TestGroupCommands_Round(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/groups/g1/session", "j", `{"board":"pwbw","seat":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(body["briefing"].(string), "0 (judge): @j") {
		t.Errorf("Unexpected briefing: %v", body["briefing"])
	}

	for i := 1; i <= 4; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/groups/g1/join", fmt.Sprintf("u%d", i), fmt.Sprintf(`{"seat":%d}`, i))
		if rec.Code != http.StatusOK {
			t.Fatalf("Join seat %d: %d %s", i, rec.Code, rec.Body.String())
		}
		if i == 1 {
			rec, body = s.do(t, http.MethodPost, "/api/groups/g1/join", "u1", `{"seat":2}`, "Accept-Language", "zh-CN")
			if rec.Code != http.StatusConflict || body["error"] != i18n.KeyAlreadyJoined || body["message"] != "你已经在座位上了。" {
				t.Errorf("Expected localized already_joined conflict, got %d %v", rec.Code, body)
			}
		}
	}

	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/start", "u2", "")
	if rec.Code != http.StatusOK || body["delivered"].(float64) != 5 {
		t.Fatalf("Expected 5 deliveries, got %d %v", rec.Code, body)
	}
	if s.hub.Mailbox().Len("u2") != 1 || s.hub.Mailbox().Len("j") != 1 {
		t.Errorf("Expected offline recipients to have their role queued")
	}

	rec, _ = s.do(t, http.MethodGet, "/api/groups/g1/status?roles=1", "u1", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for roles by player, got %d", rec.Code)
	}
	rec, body = s.do(t, http.MethodGet, "/api/groups/g1/status?roles=1", "j", "")
	if rec.Code != http.StatusOK || !strings.Contains(body["briefing"].(string), "[") || body["judge"] != true {
		t.Errorf("Expected roles for judge, got %d %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/kill", "j", `{"seat":9}`)
	if rec.Code != http.StatusBadRequest || body["error"] != i18n.KeyInvalidSeat {
		t.Errorf("Expected invalid_seat, got %d %v", rec.Code, body)
	}
	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/kill", "j", `{"seat":2}`)
	if rec.Code != http.StatusOK || body["delivered"].(float64) != 1 {
		t.Errorf("Expected kill to notify judge, got %d %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/stop", "j", "")
	if rec.Code != http.StatusOK || !strings.Contains(body["reveal"].(string), "2: @u2 [") {
		t.Errorf("Unexpected stop response: %d %v", rec.Code, body)
	}
	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/stop", "j", "")
	if rec.Code != http.StatusConflict || body["error"] != i18n.KeyGameNotStarted {
		t.Errorf("Expected game_not_started, got %d %v", rec.Code, body)
	}
}

func TestGroupCommands_BadInput(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/groups/nope/status", "u1", "")
	if rec.Code != http.StatusNotFound || body["error"] != i18n.KeyNoSession {
		t.Errorf("Expected no_session, got %d %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/session", "j", `{"board":"pz","seat":0}`)
	if rec.Code != http.StatusBadRequest || body["error"] != i18n.KeyInvalidBoard {
		t.Errorf("Expected invalid_board, got %d %v", rec.Code, body)
	}

	_, _ = s.do(t, http.MethodPost, "/api/groups/g1/session", "j", `{"board":"pw","seat":0}`)
	rec, body = s.do(t, http.MethodPost, "/api/groups/g1/kick", "j", `{"seat":1,"judge":true}`)
	if rec.Code != http.StatusBadRequest || body["error"] != i18n.KeyBadRequest {
		t.Errorf("Expected bad_request for ambiguous kick target, got %d %v", rec.Code, body)
	}
	rec, _ = s.do(t, http.MethodPost, "/api/groups/g1/join", "u1", `{"seat":"one"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}
	rec, _ = s.do(t, http.MethodPost, "/api/groups/g1/join", "80000000", `{"seat":1}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected anonymous user rejected, got %d", rec.Code)
	}
}

func TestPresets(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec, _ := s.do(t, http.MethodPost, "/api/presets", "u1", `{"name":"duo","board":"pw"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for ordinary user, got %d", rec.Code)
	}

	if err := s.repo.SetOperator(ctx, &domain.Operator{UserID: "mod", Level: domain.LevelModerator}); err != nil {
		t.Fatalf("SetOperator: %v", err)
	}
	rec, body := s.do(t, http.MethodPost, "/api/presets", "mod", `{"name":"duo","board":"pww","aliases":["d3"]}`)
	if rec.Code != http.StatusOK || body["composition"] != "civilianx1, werewolfx2" {
		t.Fatalf("Unexpected save response: %d %v", rec.Code, body)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/groups/g1/session", "j", `{"board":"d3","seat":0}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected alias board to be accepted, got %d: %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/presets", nil)
	req.Header.Set(identity.UserHeaderName, "u1")
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	var list []presetView
	if err := json.Unmarshal(out.Body.Bytes(), &list); err != nil || len(list) != 1 || list[0].Seats != 3 {
		t.Errorf("Unexpected preset list: %s (%v)", out.Body.String(), err)
	}
}

func TestOperators(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	if err := s.repo.SetOperator(ctx, &domain.Operator{UserID: "admin", Level: domain.LevelAdmin}); err != nil {
		t.Fatalf("SetOperator: %v", err)
	}

	rec, body := s.do(t, http.MethodPut, "/api/operators/u1", "u2", `{"level":1}`)
	if rec.Code != http.StatusForbidden || body["error"] != i18n.KeyForbidden {
		t.Errorf("Expected 403 for non-admin grant, got %d %v", rec.Code, body)
	}
	rec, body = s.do(t, http.MethodPut, "/api/operators/u1", "admin", `{}`)
	if rec.Code != http.StatusBadRequest || body["error"] != i18n.KeyBadRequest {
		t.Errorf("Expected bad_request without level, got %d %v", rec.Code, body)
	}
	rec, body = s.do(t, http.MethodPut, "/api/operators/u1", "admin", `{"level":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown level, got %d %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodPut, "/api/operators/u1", "admin", `{"level":1}`)
	if rec.Code != http.StatusOK || body["user_id"] != "u1" || body["level"].(float64) != 1 {
		t.Fatalf("Unexpected grant response: %d %v", rec.Code, body)
	}
	op, err := s.repo.GetOperator(ctx, "u1")
	if err != nil || op == nil || op.Level != domain.LevelModerator {
		t.Errorf("Expected stored moderator, got %+v, %v", op, err)
	}
	rec, _ = s.do(t, http.MethodPost, "/api/presets", "u1", `{"name":"trio","board":"pwb"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected granted moderator to save presets, got %d: %s", rec.Code, rec.Body.String())
	}
}
