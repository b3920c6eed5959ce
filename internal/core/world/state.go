package world

import (
	"github.com/zeusync/killzone/internal/core/combat"
	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/mobai"
)

// EntityState is one entry of State.Players. IsHunter is set for mobs only.
type EntityState struct {
	ID       string        `json:"id"`
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Health   int           `json:"health"`
	Status   entity.Status `json:"status"`
	Type     entity.Kind   `json:"type"`
	IsHunter *bool         `json:"isHunter,omitempty"`
}

// State is the world snapshot served to clients. Players lists every active
// player followed by every mob, in registration order.
type State struct {
	Width               int           `json:"width"`
	Height              int           `json:"height"`
	Level               string        `json:"level"`
	Players             []EntityState `json:"players"`
	Ticks               uint64        `json:"ticks"`
	Timestamp           int64         `json:"timestamp"`
	LastCombatTimestamp int64         `json:"lastCombatTimestamp"`
	LastCombatLog       string        `json:"lastCombatLog"`
	LastCombatWinner    string        `json:"lastCombatWinner"`
	LastCombatLoser     string        `json:"lastCombatLoser"`
	LastCombatScore     string        `json:"lastCombatScore"`
	LastCombatMessages  []string      `json:"lastCombatMessages"`
	LastKillMessage     string        `json:"lastKillMessage"`
	LastKillTimestamp   int64         `json:"lastKillTimestamp"`
}

// State advances the world one tick and returns the resulting snapshot.
func (w *World) State() State {
	w.lock()
	defer w.unlock()

	w.advanceTickLocked()
	return w.snapshotLocked()
}

// AdvanceTick steps the simulation once: the tick counter, every mob's AI,
// and expiry of the transient message.
func (w *World) AdvanceTick() {
	w.lock()
	defer w.unlock()
	w.advanceTickLocked()
}

func (w *World) advanceTickLocked() {
	w.ticks++
	w.updateMobsLocked()

	if w.lastKill != "" && w.lastKillAt != 0 {
		if w.now().UnixMilli()-w.lastKillAt > MessageTTL.Milliseconds() {
			w.clearKillMessageLocked()
		}
	}
}

func (w *World) updateMobsLocked() {
	players := w.players.Values()

	for _, m := range w.mobs.Values() {
		if !w.mobs.Has(m.ID()) {
			continue
		}

		d := w.brain.Step(m, players, w.width, w.height)
		switch d.Action {
		case mobai.Attack:
			w.fightLocked(m, d.Target)
		case mobai.Moved:
			x, y := m.Position()
			if p := w.playerAtLocked(x, y, ""); p != nil {
				w.fightLocked(m, p)
			}
		}

		if d.Action != mobai.Idle {
			players = w.players.Values()
		}
	}
}

func (w *World) snapshotLocked() State {
	entities := make([]EntityState, 0, w.players.Len()+w.mobs.Len())
	for _, p := range w.players.All() {
		entities = append(entities, entityState(p))
	}
	for _, m := range w.mobs.All() {
		s := entityState(m)
		hunter := m.IsHunter()
		s.IsHunter = &hunter
		entities = append(entities, s)
	}

	messages := make([]string, len(w.lastCombat.messages))
	copy(messages, w.lastCombat.messages)

	return State{
		Width:               w.width,
		Height:              w.height,
		Level:               w.level.Name(),
		Players:             entities,
		Ticks:               w.ticks,
		Timestamp:           w.timestamp,
		LastCombatTimestamp: w.lastCombat.timestamp,
		LastCombatLog:       w.lastCombat.log,
		LastCombatWinner:    w.lastCombat.winner,
		LastCombatLoser:     w.lastCombat.loser,
		LastCombatScore:     w.lastCombat.score,
		LastCombatMessages:  messages,
		LastKillMessage:     w.lastKill,
		LastKillTimestamp:   w.lastKillAt,
	}
}

func entityState(e entity.Entity) EntityState {
	x, y := e.Position()
	return EntityState{
		ID:     e.ID(),
		X:      x,
		Y:      y,
		Health: e.Health(),
		Status: e.Status(),
		Type:   e.Kind(),
	}
}

// SetLastCombat records result as the most recent battle. A nil result is ignored.
func (w *World) SetLastCombat(result *combat.Result) {
	w.lock()
	defer w.unlock()
	w.setLastCombatLocked(result)
}

func (w *World) setLastCombatLocked(result *combat.Result) {
	if result == nil {
		return
	}

	ts := result.Timestamp
	if ts == 0 {
		ts = w.now().UnixMilli()
	}
	messages := make([]string, len(result.Messages))
	copy(messages, result.Messages)

	w.lastCombat = combatInfo{
		log:       result.Summary(),
		timestamp: ts,
		winner:    result.FinalWinnerName,
		loser:     result.FinalLoserName,
		score:     result.FinalScore,
		messages:  messages,
	}
}

// SetKillMessage announces a kill. Player deaths end with an exclamation mark.
func (w *World) SetKillMessage(winner, loser string, loserKind entity.Kind) {
	w.lock()
	defer w.unlock()
	w.setKillMessageLocked(winner, loser, loserKind)
}

func (w *World) setKillMessageLocked(winner, loser string, loserKind entity.Kind) {
	msg := winner + " killed " + loser
	if loserKind == entity.KindPlayer {
		msg += "!"
	}
	w.setMessageLocked(msg)
}

func (w *World) SetJoinMessage(name string) {
	w.lock()
	defer w.unlock()
	w.setJoinMessageLocked(name)
}

func (w *World) setJoinMessageLocked(name string) {
	w.setMessageLocked(name + " joined the game!")
}

func (w *World) SetRejoinMessage(name string) {
	w.lock()
	defer w.unlock()
	w.setRejoinMessageLocked(name)
}

func (w *World) setRejoinMessageLocked(name string) {
	w.setMessageLocked(name + " has rejoined the game!")
}

func (w *World) setMessageLocked(msg string) {
	w.lastKill = msg
	w.lastKillAt = w.now().UnixMilli()
}

func (w *World) ClearKillMessage() {
	w.lock()
	defer w.unlock()
	w.clearKillMessageLocked()
}

func (w *World) clearKillMessageLocked() {
	w.lastKill = ""
	w.lastKillAt = 0
}
