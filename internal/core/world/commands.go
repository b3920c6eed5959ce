package world

import (
	"fmt"
	"strings"

	"github.com/zeusync/killzone/internal/core/combat"
	"github.com/zeusync/killzone/internal/core/entity"
)

// JoinResult is the outcome of Join.
type JoinResult struct {
	Player    entity.Snapshot
	Reconnect bool
}

// Join places a player named name in the world. A retired player with the
// same name is restored under its original id with full health on a fresh
// spawn cell; otherwise a new player is created.
func (w *World) Join(name string) (JoinResult, error) {
	if strings.TrimSpace(name) == "" {
		return JoinResult{}, ErrInvalidName
	}

	w.lock()
	defer w.unlock()

	if p, ok := w.disconnected[name]; ok {
		p.Revive()
		p.SetPosition(w.spawnPositionLocked())
		delete(w.disconnected, name)
		w.addPlayerLocked(p)
		w.setRejoinMessageLocked(name)

		snap := p.Snapshot()
		w.emitLocked(EventPlayerRejoined, snap, nil)
		return JoinResult{Player: snap, Reconnect: true}, nil
	}

	x, y := w.spawnPositionLocked()
	p := entity.NewPlayer(newEntityID("player", w.now()), name, x, y)
	w.addPlayerLocked(p)
	w.setJoinMessageLocked(name)

	snap := p.Snapshot()
	w.emitLocked(EventPlayerJoined, snap, nil)
	return JoinResult{Player: snap}, nil
}

// MoveResult is the outcome of Move. X and Y are the target cell; Player is
// the mover after any fight, so a defeated mover shows zero health.
type MoveResult struct {
	PlayerID  string
	X, Y      int
	Collision bool
	Combat    *combat.Result
	Player    entity.Snapshot
}

// Move steps the player one cell in dir, clamped to the world. The mover
// takes the target cell first; another player there, or failing that a mob,
// is then fought with the mover as attacker.
func (w *World) Move(id string, dir entity.Direction) (MoveResult, error) {
	if dir == entity.DirectionNone {
		return MoveResult{}, ErrInvalidDirection
	}

	w.lock()
	defer w.unlock()

	p, ok := w.players.Get(id)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	p.Touch(w.now())

	x, y := p.Position()
	nx, ny := dir.Apply(x, y, w.width, w.height)
	p.SetPosition(nx, ny)

	res := MoveResult{PlayerID: id, X: nx, Y: ny}

	var opponent entity.Entity
	if other := w.playerAtLocked(nx, ny, id); other != nil {
		opponent = other
	} else if m := w.mobAtLocked(nx, ny); m != nil {
		opponent = m
	}
	if opponent != nil {
		res.Collision = true
		res.Combat = w.fightLocked(p, opponent)
	}

	res.Player = p.Snapshot()
	return res, nil
}

// Leave retires the player on request.
func (w *World) Leave(id string) (entity.Snapshot, error) {
	w.lock()
	defer w.unlock()

	p := w.removePlayerLocked(id)
	if p == nil {
		return entity.Snapshot{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}

	snap := p.Snapshot()
	w.emitLocked(EventPlayerLeft, snap, map[string]any{"reason": ReasonLeave})
	return snap, nil
}

// Retire removes the player when its connection closes. It reports whether
// the player was still active.
func (w *World) Retire(id string) bool {
	w.lock()
	defer w.unlock()

	p := w.removePlayerLocked(id)
	if p == nil {
		return false
	}
	w.emitLocked(EventPlayerLeft, p.Snapshot(), map[string]any{"reason": ReasonDisconnect})
	return true
}

// fightLocked resolves a battle and applies it to the registry: a losing
// player is retired, a losing mob destroyed.
func (w *World) fightLocked(attacker, defender entity.Entity) *combat.Result {
	result := w.resolver.ResolveBattle(attacker, defender)
	if result == nil {
		return nil
	}

	switch result.LoserKind {
	case entity.KindPlayer:
		if p := w.removePlayerLocked(result.FinalLoserID); p != nil {
			w.emitLocked(EventPlayerLeft, p.Snapshot(), map[string]any{"reason": ReasonDefeated})
		}
	case entity.KindMob:
		w.removeMobLocked(result.FinalLoserID)
	}

	w.setLastCombatLocked(result)
	w.setKillMessageLocked(result.FinalWinnerName, result.FinalLoserName, result.LoserKind)

	w.emitLocked(EventCombat, result, nil)
	w.emitLocked(EventKill, w.lastKill, map[string]any{
		"winner": result.FinalWinnerName,
		"loser":  result.FinalLoserName,
	})
	return result
}
