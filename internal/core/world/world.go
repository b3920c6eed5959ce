// Package world holds the authoritative arena state.
//
// Every exported method takes the world lock for its whole duration, so a
// check-move-fight sequence issued by one transport is never interleaved with
// another. Entities never leave the package by pointer; callers get
// entity.Snapshot copies.
//
// Observing the world advances it: State calls AdvanceTick, which steps every
// mob once and expires the transient kill message. Mob speed therefore
// follows how often clients poll, not wall-clock time.
package world

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/zeusync/killzone/internal/core/combat"
	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/events/bus"
	"github.com/zeusync/killzone/internal/core/level"
	"github.com/zeusync/killzone/internal/core/mobai"
	"github.com/zeusync/killzone/internal/core/observability/log"
	"github.com/zeusync/killzone/pkg/ordered"
)

const (
	DefaultWidth  = 40
	DefaultHeight = 20

	// MessageTTL is how long a kill, join or rejoin message stays visible.
	MessageTTL = 5 * time.Second

	spawnAttempts = 10
)

type World struct {
	mu sync.Mutex

	width, height int

	players      *ordered.Map[string, *entity.Player]
	mobs         *ordered.Map[string, *entity.Mob]
	disconnected map[string]*entity.Player // by name
	knownNames   map[string]struct{}

	ticks     uint64
	timestamp int64

	lastCombat  combatInfo
	lastKill    string
	lastKillAt  int64
	level       *level.Level
	loader      *level.Loader
	resolver    *combat.Resolver
	brain       *mobai.Brain
	rng         *rand.Rand
	now         func() time.Time
	logger      log.Log
	bus         bus.EventBus
	pending     []bus.Event
}

type combatInfo struct {
	log       string
	timestamp int64
	winner    string
	loser     string
	score     string
	messages  []string
}

// New builds an empty world of width x height.
func New(width, height int, opts ...Option) *World {
	w := &World{
		width:        width,
		height:       height,
		players:      ordered.NewMap[string, *entity.Player](),
		mobs:         ordered.NewMap[string, *entity.Mob](),
		disconnected: make(map[string]*entity.Player),
		knownNames:   make(map[string]struct{}),
		now:          time.Now,
		logger:       log.NewNop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(w.now().UnixNano()))
	}
	if w.resolver == nil {
		w.resolver = combat.NewResolver(rand.New(rand.NewSource(w.rng.Int63()))).WithClock(w.now)
	}
	if w.brain == nil {
		w.brain = mobai.NewBrain(rand.New(rand.NewSource(w.rng.Int63())))
	}
	if w.level == nil {
		w.level = level.Empty(level.Default, width, height)
	}
	w.lastCombat.messages = []string{}
	w.timestamp = w.now().UnixMilli()

	return w
}

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }

// IsValidPosition reports whether (x,y) lies in [0,width) x [0,height).
func (w *World) IsValidPosition(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}

// AddPlayer registers p and stamps its activity. It fails for a nil player
// or an empty id.
func (w *World) AddPlayer(p *entity.Player) bool {
	w.lock()
	defer w.unlock()
	return w.addPlayerLocked(p)
}

func (w *World) addPlayerLocked(p *entity.Player) bool {
	if p == nil || p.ID() == "" {
		return false
	}

	now := w.now()
	p.Touch(now)
	w.players.Set(p.ID(), p)
	if p.Name() != "" {
		w.knownNames[p.Name()] = struct{}{}
	}
	w.timestamp = now.UnixMilli()
	return true
}

// AddMob registers m. It fails for a nil mob or an empty id.
func (w *World) AddMob(m *entity.Mob) bool {
	w.lock()
	defer w.unlock()
	return w.addMobLocked(m)
}

func (w *World) addMobLocked(m *entity.Mob) bool {
	if m == nil || m.ID() == "" {
		return false
	}
	w.mobs.Set(m.ID(), m)
	w.timestamp = w.now().UnixMilli()
	return true
}

// RemovePlayer retires the player into the disconnected store, where a later
// join with the same name restores it.
func (w *World) RemovePlayer(id string) bool {
	w.lock()
	defer w.unlock()
	return w.removePlayerLocked(id) != nil
}

func (w *World) removePlayerLocked(id string) *entity.Player {
	p, ok := w.players.Get(id)
	if !ok {
		return nil
	}
	w.disconnected[p.Name()] = p
	w.players.Delete(id)
	w.timestamp = w.now().UnixMilli()
	return p
}

// RemoveMob deletes the mob for good.
func (w *World) RemoveMob(id string) bool {
	w.lock()
	defer w.unlock()
	return w.removeMobLocked(id)
}

func (w *World) removeMobLocked(id string) bool {
	if !w.mobs.Delete(id) {
		return false
	}
	w.timestamp = w.now().UnixMilli()
	return true
}

func (w *World) GetPlayer(id string) (entity.Snapshot, bool) {
	w.lock()
	defer w.unlock()

	p, ok := w.players.Get(id)
	if !ok {
		return entity.Snapshot{}, false
	}
	return p.Snapshot(), true
}

func (w *World) GetMob(id string) (entity.Snapshot, bool) {
	w.lock()
	defer w.unlock()

	m, ok := w.mobs.Get(id)
	if !ok {
		return entity.Snapshot{}, false
	}
	return m.Snapshot(), true
}

// PlayerAt finds an active player on (x,y) other than excludeID.
func (w *World) PlayerAt(x, y int, excludeID string) (entity.Snapshot, bool) {
	w.lock()
	defer w.unlock()

	if p := w.playerAtLocked(x, y, excludeID); p != nil {
		return p.Snapshot(), true
	}
	return entity.Snapshot{}, false
}

func (w *World) playerAtLocked(x, y int, excludeID string) *entity.Player {
	for id, p := range w.players.All() {
		if excludeID != "" && id == excludeID {
			continue
		}
		if px, py := p.Position(); px == x && py == y {
			return p
		}
	}
	return nil
}

func (w *World) MobAt(x, y int) (entity.Snapshot, bool) {
	w.lock()
	defer w.unlock()

	if m := w.mobAtLocked(x, y); m != nil {
		return m.Snapshot(), true
	}
	return entity.Snapshot{}, false
}

func (w *World) mobAtLocked(x, y int) *entity.Mob {
	for _, m := range w.mobs.All() {
		if mx, my := m.Position(); mx == x && my == y {
			return m
		}
	}
	return nil
}

// DisconnectedPlayer looks up a retired player by name.
func (w *World) DisconnectedPlayer(name string) (entity.Snapshot, bool) {
	w.lock()
	defer w.unlock()

	p, ok := w.disconnected[name]
	if !ok {
		return entity.Snapshot{}, false
	}
	return p.Snapshot(), true
}

// IsRejoiningPlayer reports whether name has ever been registered.
func (w *World) IsRejoiningPlayer(name string) bool {
	w.lock()
	defer w.unlock()

	_, ok := w.knownNames[name]
	return ok
}

// TouchPlayer refreshes the idle timer of an active player.
func (w *World) TouchPlayer(id string) bool {
	w.lock()
	defer w.unlock()

	p, ok := w.players.Get(id)
	if !ok {
		return false
	}
	p.Touch(w.now())
	return true
}

func (w *World) PlayerCount() int {
	w.lock()
	defer w.unlock()
	return w.players.Len()
}

func (w *World) MobCount() int {
	w.lock()
	defer w.unlock()
	return w.mobs.Len()
}

// Evicted names a player removed by CleanupInactivePlayers.
type Evicted struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CleanupInactivePlayers retires every player idle for longer than timeout.
func (w *World) CleanupInactivePlayers(timeout time.Duration) []Evicted {
	w.lock()
	defer w.unlock()

	now := w.now()
	var evicted []Evicted
	for _, p := range w.players.Values() {
		if now.Sub(p.LastActivity()) <= timeout {
			continue
		}
		w.removePlayerLocked(p.ID())
		evicted = append(evicted, Evicted{ID: p.ID(), Name: p.Name()})
		w.emitLocked(EventPlayerEvicted, p.Snapshot(), map[string]any{"idle": now.Sub(p.LastActivity())})
	}
	return evicted
}

// RespawnMobs tops the mob population up to minCount. The first mob of a
// batch becomes the hunter when no hunter exists.
func (w *World) RespawnMobs(minCount int) []entity.Snapshot {
	w.lock()
	defer w.unlock()
	return w.respawnMobsLocked(minCount)
}

func (w *World) respawnMobsLocked(minCount int) []entity.Snapshot {
	current := w.mobs.Len()
	if current >= minCount {
		return nil
	}

	spawned := make([]entity.Snapshot, 0, minCount-current)
	for i := 0; i < minCount-current; i++ {
		x, y := w.spawnPositionLocked()

		hunter := i == 0 && !w.hasHunterLocked()
		name := "Hunter"
		if !hunter {
			name = "Goblin" + strconv.Itoa(current+i+1)
		}

		m := entity.NewMob(newEntityID("mob", w.now()), name, x, y, hunter, w.brain.WanderInterval())
		w.addMobLocked(m)

		snap := m.Snapshot()
		spawned = append(spawned, snap)
		w.emitLocked(EventMobSpawned, snap, nil)
	}
	return spawned
}

func (w *World) hasHunterLocked() bool {
	for _, m := range w.mobs.All() {
		if m.IsHunter() {
			return true
		}
	}
	return false
}

// spawnPositionLocked draws random cells until one is free of players and
// mobs, settling for the last draw after spawnAttempts tries. Walls are not
// consulted.
func (w *World) spawnPositionLocked() (int, int) {
	var x, y int
	for attempt := 0; attempt < spawnAttempts; attempt++ {
		x, y = w.rng.Intn(w.width), w.rng.Intn(w.height)
		if w.playerAtLocked(x, y, "") == nil && w.mobAtLocked(x, y) == nil {
			break
		}
	}
	return x, y
}

// Reset drops every player, mob and transient message. Ticks and the
// disconnected store are kept.
func (w *World) Reset() {
	w.lock()
	defer w.unlock()

	w.players.Clear()
	w.mobs.Clear()
	w.lastCombat = combatInfo{messages: []string{}}
	w.clearKillMessageLocked()
	w.timestamp = w.now().UnixMilli()
	w.emitLocked(EventWorldReset, nil, nil)
}
