package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/zeusync/killzone/internal/core/combat"
	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/internal/core/world"
)

// API serves the JSON endpoints under /api.
type API struct {
	world   *world.World
	version string
	logger  log.Log
	started time.Time
	handler http.Handler
}

func NewAPI(w *world.World, version string, logger log.Log) *API {
	a := &API{
		world:   w,
		version: version,
		logger:  logger.With(log.String("component", "http")),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/world/state", a.handleWorldState)
	mux.HandleFunc("POST /api/world/next-level", a.handleNextLevel)
	mux.HandleFunc("GET /api/level", a.handleLevel)
	mux.HandleFunc("POST /api/player/join", a.handleJoin)
	mux.HandleFunc("GET /api/player/{id}/status", a.handleStatus)
	mux.HandleFunc("POST /api/player/{id}/move", a.handleMove)
	mux.HandleFunc("POST /api/player/leave", a.handleLeave)
	mux.HandleFunc("/", a.handleNotFound)

	a.handler = chain(mux, recoverer(a.logger), requestLogger(a.logger), cors)
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *API) reply(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := respond(w, r, status, v); err != nil {
		a.logger.Warn("Failed to write response", log.String("path", r.URL.Path), log.Error(err))
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if err := writeError(w, status, msg); err != nil {
		a.logger.Warn("Failed to write error response", log.String("path", r.URL.Path), log.Error(err))
	}
}

type healthResponse struct {
	Status      string  `json:"status"`
	Uptime      float64 `json:"uptime"`
	PlayerCount int     `json:"playerCount"`
	Timestamp   int64   `json:"timestamp"`
	Version     string  `json:"version"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusOK, healthResponse{
		Status:      "healthy",
		Uptime:      time.Since(a.started).Seconds(),
		PlayerCount: a.world.PlayerCount(),
		Timestamp:   time.Now().UnixMilli(),
		Version:     a.version,
	})
}

// handleWorldState serves the snapshot. A playerId query parameter counts
// as activity for that player.
func (a *API) handleWorldState(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("playerId"); id != "" {
		a.world.TouchPlayer(id)
	}
	a.reply(w, r, http.StatusOK, a.world.State())
}

type nextLevelResponse struct {
	Success      bool        `json:"success"`
	CurrentLevel string      `json:"currentLevel"`
	WorldState   world.State `json:"worldState"`
}

func (a *API) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	next, err := a.world.NextLevel()
	if err != nil {
		a.logger.Error("Failed to switch level", log.String("level", next), log.Error(err))
	} else {
		a.logger.Info("Switched level", log.String("level", next))
	}

	a.reply(w, r, http.StatusOK, nextLevelResponse{
		Success:      err == nil,
		CurrentLevel: next,
		WorldState:   a.world.State(),
	})
}

func (a *API) handleLevel(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusOK, a.world.Level().View())
}

type joinRequest struct {
	Name any `json:"name"`
}

type joinResponse struct {
	Success   bool          `json:"success"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Health    int           `json:"health"`
	Status    entity.Status `json:"status"`
	Reconnect bool          `json:"reconnect"`
	World     world.State   `json:"world"`
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	name, _ := req.Name.(string)
	res, err := a.world.Join(name)
	if errors.Is(err, world.ErrInvalidName) {
		a.fail(w, r, http.StatusBadRequest, msgInvalidName)
		return
	}
	if err != nil {
		a.logger.Error("Join failed", log.String("name", name), log.Error(err))
		a.fail(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	p := res.Player
	a.logger.Info("Player joined",
		log.String("player_id", p.ID),
		log.String("name", p.Name),
		log.Int("x", p.X),
		log.Int("y", p.Y),
		log.Bool("reconnect", res.Reconnect),
	)

	a.reply(w, r, http.StatusCreated, joinResponse{
		Success:   true,
		ID:        p.ID,
		Name:      p.Name,
		X:         p.X,
		Y:         p.Y,
		Health:    p.Health,
		Status:    p.Status,
		Reconnect: res.Reconnect,
		World:     a.world.State(),
	})
}

type playerStatus struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Health   int           `json:"health"`
	Status   entity.Status `json:"status"`
	JoinedAt int64         `json:"joinedAt"`
}

type statusResponse struct {
	Success bool         `json:"success"`
	Player  playerStatus `json:"player"`
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := a.world.GetPlayer(r.PathValue("id"))
	if !ok {
		a.fail(w, r, http.StatusNotFound, msgPlayerNotFound)
		return
	}

	a.reply(w, r, http.StatusOK, statusResponse{
		Success: true,
		Player: playerStatus{
			ID:       p.ID,
			Name:     p.Name,
			X:        p.X,
			Y:        p.Y,
			Health:   p.Health,
			Status:   p.Status,
			JoinedAt: p.JoinedAt.UnixMilli(),
		},
	})
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type moveResponse struct {
	Success      bool           `json:"success"`
	PlayerID     string         `json:"playerId"`
	NewPos       position       `json:"newPos"`
	Collision    bool           `json:"collision"`
	CombatResult *combat.Result `json:"combatResult"`
	WorldState   world.State    `json:"worldState"`
}

func (a *API) handleMove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := a.world.GetPlayer(id); !ok {
		a.fail(w, r, http.StatusNotFound, msgPlayerNotFound)
		return
	}

	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, msgInvalidDirection)
		return
	}
	dir, err := entity.ParseDirection(req.Direction)
	if err != nil {
		a.fail(w, r, http.StatusBadRequest, msgInvalidDirection)
		return
	}

	res, err := a.world.Move(id, dir)
	if errors.Is(err, world.ErrPlayerNotFound) {
		a.fail(w, r, http.StatusNotFound, msgPlayerNotFound)
		return
	}
	if err != nil {
		a.logger.Error("Move failed", log.String("player_id", id), log.Error(err))
		a.fail(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	if res.Combat != nil {
		a.logger.Info("Combat resolved",
			log.String("winner", res.Combat.FinalWinnerName),
			log.String("loser", res.Combat.FinalLoserName),
			log.String("score", res.Combat.FinalScore),
		)
	}

	a.reply(w, r, http.StatusOK, moveResponse{
		Success:      true,
		PlayerID:     id,
		NewPos:       position{X: res.X, Y: res.Y},
		Collision:    res.Collision,
		CombatResult: res.Combat,
		WorldState:   a.world.State(),
	})
}

type leaveRequest struct {
	ID any `json:"id"`
}

type leaveResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

func (a *API) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	id, isString := req.ID.(string)
	if req.ID == nil || req.ID == false || (isString && id == "") {
		a.fail(w, r, http.StatusBadRequest, msgPlayerIDRequired)
		return
	}

	p, err := a.world.Leave(id)
	if err != nil {
		a.fail(w, r, http.StatusNotFound, msgPlayerNotFound)
		return
	}

	a.logger.Info("Player left",
		log.String("player_id", id),
		log.String("name", p.Name),
		log.Int("players", a.world.PlayerCount()),
	)
	a.reply(w, r, http.StatusOK, leaveResponse{Success: true, ID: id})
}

func (a *API) handleNotFound(w http.ResponseWriter, r *http.Request) {
	a.fail(w, r, http.StatusNotFound, msgNotFound)
}
