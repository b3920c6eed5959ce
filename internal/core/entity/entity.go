package entity

import "time"

// Kind tags the variant behind an Entity.
type Kind string

const (
	KindPlayer Kind = "player"
	KindMob    Kind = "mob"
)

// Status is the life state of an entity.
type Status string

const (
	StatusAlive   Status = "alive"
	StatusDead    Status = "dead"
	StatusWaiting Status = "waiting"
)

const (
	PlayerMaxHealth = 100
	MobStartHealth  = 50
)

// Entity is the capability set shared by every combat-capable actor.
// Mutation goes through SetPosition, SetHealth and SetStatus only.
type Entity interface {
	ID() string
	Name() string
	Kind() Kind

	Position() (x, y int)
	SetPosition(x, y int)

	Health() int
	// SetHealth clamps per kind; reaching zero forces StatusDead.
	SetHealth(health int)

	Status() Status
	SetStatus(status Status)

	Snapshot() Snapshot
}

// Snapshot is an immutable copy of an entity, safe to hand out of the world lock.
type Snapshot struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     Kind      `json:"type"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Health   int       `json:"health"`
	Status   Status    `json:"status"`
	IsHunter bool      `json:"isHunter,omitempty"`
	JoinedAt time.Time `json:"-"`
}

// actor carries the attributes common to players and mobs.
type actor struct {
	id     string
	name   string
	x, y   int
	health int
	status Status
}

func (a *actor) ID() string           { return a.id }
func (a *actor) Name() string         { return a.name }
func (a *actor) Position() (int, int) { return a.x, a.y }
func (a *actor) Health() int          { return a.health }
func (a *actor) Status() Status       { return a.status }

func (a *actor) SetPosition(x, y int) {
	a.x = x
	a.y = y
}

func (a *actor) setClampedHealth(health, ceiling int) {
	if health < 0 {
		health = 0
	}
	if ceiling > 0 && health > ceiling {
		health = ceiling
	}
	a.health = health
	if a.health == 0 {
		a.status = StatusDead
	}
}

func (a *actor) snapshot(kind Kind) Snapshot {
	return Snapshot{
		ID:     a.id,
		Name:   a.name,
		Kind:   kind,
		X:      a.x,
		Y:      a.y,
		Health: a.health,
		Status: a.status,
	}
}
