package server

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/level"
	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/world"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestWorld(t *testing.T, clock *fakeClock) *world.World {
	t.Helper()
	w := world.New(world.DefaultWidth, world.DefaultHeight,
		world.WithClock(clock.Now),
		world.WithRand(rand.New(rand.NewSource(42))),
		world.WithLevelLoader(level.NewLoader("")),
	)
	require.NoError(t, w.LoadLevel(level.Default))
	return w
}

func newTestAPI(t *testing.T) (*API, *world.World, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	w := newTestWorld(t, clock)
	return NewAPI(w, "1.2.0", log.NewNop()), w, clock
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"`+msg+`"}`, rec.Body.String())
}

func TestAPI_Health(t *testing.T) {
	api, w, _ := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 0, 0)))

	rec := do(t, api, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["playerCount"])
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "timestamp")
}

func TestAPI_Join(t *testing.T) {
	api, w, _ := newTestAPI(t)

	rec := do(t, api, http.MethodPost, "/api/player/join", `{"name":"Alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success   bool        `json:"success"`
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		Health    int         `json:"health"`
		Status    string      `json:"status"`
		Reconnect bool        `json:"reconnect"`
		World     world.State `json:"world"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Success)
	assert.True(t, strings.HasPrefix(body.ID, "player_"))
	assert.Equal(t, "Alice", body.Name)
	assert.Equal(t, 100, body.Health)
	assert.Equal(t, "alive", body.Status)
	assert.False(t, body.Reconnect)
	require.Len(t, body.World.Players, 1)
	assert.Equal(t, body.ID, body.World.Players[0].ID)
	assert.Equal(t, "Alice joined the game!", body.World.LastKillMessage)
	assert.Equal(t, 1, w.PlayerCount())

	// Leaving and joining again under the same name restores the id.
	require.Equal(t, http.StatusOK, do(t, api, http.MethodPost, "/api/player/leave", `{"id":"`+body.ID+`"}`).Code)

	rec = do(t, api, http.MethodPost, "/api/player/join", `{"name":"Alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	again := decode[map[string]any](t, rec)
	assert.Equal(t, body.ID, again["id"])
	assert.Equal(t, true, again["reconnect"])
}

func TestAPI_JoinValidation(t *testing.T) {
	api, w, _ := newTestAPI(t)

	for _, body := range []string{`{}`, `{"name":""}`, `{"name":"   "}`, `{"name":42}`, ``} {
		rec := do(t, api, http.MethodPost, "/api/player/join", body)
		assertError(t, rec, http.StatusBadRequest, msgInvalidName)
	}
	assertError(t, do(t, api, http.MethodPost, "/api/player/join", `{"name":`), http.StatusBadRequest, msgInvalidBody)
	assert.Zero(t, w.PlayerCount())
}

func TestAPI_Move(t *testing.T) {
	api, w, _ := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 5, 5)))

	rec := do(t, api, http.MethodPost, "/api/player/p1/move", `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "p1", body["playerId"])
	assert.Equal(t, map[string]any{"x": 5.0, "y": 4.0}, body["newPos"])
	assert.Equal(t, false, body["collision"])
	assert.Nil(t, body["combatResult"])
	assert.Contains(t, body, "worldState")
}

func TestAPI_MoveCollision(t *testing.T) {
	api, w, _ := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 5, 5)))
	require.True(t, w.AddPlayer(entity.NewPlayer("p2", "Bob", 6, 5)))

	rec := do(t, api, http.MethodPost, "/api/player/p1/move", `{"direction":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Collision    bool `json:"collision"`
		CombatResult *struct {
			Type          string `json:"type"`
			AttackerID    string `json:"attackerId"`
			DefenderID    string `json:"defenderId"`
			Rounds        []any  `json:"rounds"`
			FinalWinnerID string `json:"finalWinnerId"`
			FinalLoserID  string `json:"finalLoserId"`
		} `json:"combatResult"`
		WorldState world.State `json:"worldState"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Collision)
	require.NotNil(t, body.CombatResult)
	assert.Equal(t, "combat", body.CombatResult.Type)
	assert.Equal(t, "p1", body.CombatResult.AttackerID)
	assert.Equal(t, "p2", body.CombatResult.DefenderID)
	assert.Len(t, body.CombatResult.Rounds, 3)
	require.Len(t, body.WorldState.Players, 1)
	assert.Equal(t, body.CombatResult.FinalWinnerID, body.WorldState.Players[0].ID)
	assert.NotEmpty(t, body.WorldState.LastCombatLog)

	_, ok := w.GetPlayer(body.CombatResult.FinalLoserID)
	assert.False(t, ok)
}

func TestAPI_MoveErrors(t *testing.T) {
	api, w, _ := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 5, 5)))

	assertError(t, do(t, api, http.MethodPost, "/api/player/nobody/move", `{"direction":"up"}`),
		http.StatusNotFound, msgPlayerNotFound)
	// Unknown player wins over a bad direction.
	assertError(t, do(t, api, http.MethodPost, "/api/player/nobody/move", `{"direction":"north"}`),
		http.StatusNotFound, msgPlayerNotFound)

	for _, body := range []string{`{"direction":"north"}`, `{"direction":"u"}`, `{}`, ``} {
		assertError(t, do(t, api, http.MethodPost, "/api/player/p1/move", body), http.StatusBadRequest, msgInvalidDirection)
	}

	p, ok := w.GetPlayer("p1")
	require.True(t, ok)
	assert.Equal(t, 5, p.X)
	assert.Equal(t, 5, p.Y)
}

func TestAPI_Leave(t *testing.T) {
	api, w, _ := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 5, 5)))

	assertError(t, do(t, api, http.MethodPost, "/api/player/leave", `{}`), http.StatusBadRequest, msgPlayerIDRequired)
	assertError(t, do(t, api, http.MethodPost, "/api/player/leave", `{"id":""}`), http.StatusBadRequest, msgPlayerIDRequired)
	assertError(t, do(t, api, http.MethodPost, "/api/player/leave", `{"id":"ghost"}`), http.StatusNotFound, msgPlayerNotFound)

	rec := do(t, api, http.MethodPost, "/api/player/leave", `{"id":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"id":"p1"}`, rec.Body.String())

	assert.Zero(t, w.PlayerCount())
	_, ok := w.DisconnectedPlayer("Alice")
	assert.True(t, ok)

	assertError(t, do(t, api, http.MethodPost, "/api/player/leave", `{"id":"p1"}`), http.StatusNotFound, msgPlayerNotFound)
}

func TestAPI_Status(t *testing.T) {
	api, w, _ := newTestAPI(t)
	p := entity.NewPlayer("p1", "Alice", 3, 4)
	require.True(t, w.AddPlayer(p))

	rec := do(t, api, http.MethodGet, "/api/player/p1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool           `json:"success"`
		Player  map[string]any `json:"player"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "p1", body.Player["id"])
	assert.Equal(t, "Alice", body.Player["name"])
	assert.EqualValues(t, 3, body.Player["x"])
	assert.EqualValues(t, 4, body.Player["y"])
	assert.EqualValues(t, 100, body.Player["health"])
	assert.Equal(t, "alive", body.Player["status"])
	assert.EqualValues(t, p.JoinedAt().UnixMilli(), body.Player["joinedAt"])

	assertError(t, do(t, api, http.MethodGet, "/api/player/ghost/status", ""), http.StatusNotFound, msgPlayerNotFound)
}

func TestAPI_WorldStateTouchesPlayer(t *testing.T) {
	api, w, clock := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 1, 1)))
	require.True(t, w.AddPlayer(entity.NewPlayer("p2", "Bob", 2, 2)))

	clock.Advance(90 * time.Second)
	rec := do(t, api, http.MethodGet, "/api/world/state?playerId=p1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	state := decode[world.State](t, rec)
	assert.Equal(t, 40, state.Width)
	assert.Equal(t, 20, state.Height)
	assert.Equal(t, "level1", state.Level)
	assert.Equal(t, uint64(1), state.Ticks)
	assert.NotNil(t, state.LastCombatMessages)

	clock.Advance(60 * time.Second)
	evicted := w.CleanupInactivePlayers(120 * time.Second)
	require.Len(t, evicted, 1)
	assert.Equal(t, "p2", evicted[0].ID)
}

func TestAPI_WorldStateMsgpack(t *testing.T) {
	api, w, _ := newTestAPI(t)
	require.True(t, w.AddPlayer(entity.NewPlayer("p1", "Alice", 1, 2)))

	r := httptest.NewRequest(http.MethodGet, "/api/world/state", nil)
	r.Header.Set("Accept", "application/msgpack")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeMsgpack, rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 40, body["width"])
	assert.Equal(t, "level1", body["level"])
	players, ok := body["players"].([]any)
	require.True(t, ok)
	require.Len(t, players, 1)
	assert.Equal(t, "p1", players[0].(map[string]any)["id"])
}

func TestAPI_Levels(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := do(t, api, http.MethodGet, "/api/level", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[level.View](t, rec)
	assert.Equal(t, "level1", view.Name)
	assert.Len(t, view.Walls, 137)
	assert.Len(t, view.Checksum, 16)

	rec = do(t, api, http.MethodPost, "/api/world/next-level", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var next struct {
		Success      bool        `json:"success"`
		CurrentLevel string      `json:"currentLevel"`
		WorldState   world.State `json:"worldState"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	assert.True(t, next.Success)
	assert.Equal(t, "level2", next.CurrentLevel)
	assert.Equal(t, "level2", next.WorldState.Level)

	view = decode[level.View](t, do(t, api, http.MethodGet, "/api/level", ""))
	assert.Equal(t, "level2", view.Name)
	assert.Len(t, view.Walls, 156)

	rec = do(t, api, http.MethodPost, "/api/world/next-level", "")
	assert.Equal(t, "level1", decode[map[string]any](t, rec)["currentLevel"])
}

func TestAPI_NotFound(t *testing.T) {
	api, _, _ := newTestAPI(t)

	assertError(t, do(t, api, http.MethodGet, "/api/nothing", ""), http.StatusNotFound, msgNotFound)
	assertError(t, do(t, api, http.MethodGet, "/", ""), http.StatusNotFound, msgNotFound)
	assertError(t, do(t, api, http.MethodGet, "/api/player/join", ""), http.StatusNotFound, msgNotFound)
}

func TestAPI_CORS(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := do(t, api, http.MethodOptions, "/api/player/join", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, api, http.MethodGet, "/api/health", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	h := recoverer(log.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, http.MethodGet, "/", "")
	assertError(t, rec, http.StatusInternalServerError, msgInternal)
}

func TestWantsMsgpack(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", false},
		{"application/json", false},
		{"application/msgpack", true},
		{"text/html, application/x-msgpack;q=0.9", true},
		{"*/*", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", tt.accept)
		assert.Equal(t, tt.want, wantsMsgpack(r), tt.accept)
	}
}

func TestDecodeBody(t *testing.T) {
	var v struct{ Name string }

	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"x"}`))
	require.NoError(t, decodeBody(r, &v))
	assert.Equal(t, "x", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`nope`))
	assert.ErrorIs(t, decodeBody(r, &v), ErrInvalidRequestBody)
}
