package entity

import "time"

var _ Entity = (*Player)(nil)

// Player is a client-controlled entity. Its name is the reconnection key.
type Player struct {
	actor
	joinedAt     time.Time
	lastActivity time.Time
}

func NewPlayer(id, name string, x, y int) *Player {
	return &Player{
		actor: actor{
			id:     id,
			name:   name,
			x:      x,
			y:      y,
			health: PlayerMaxHealth,
			status: StatusAlive,
		},
		joinedAt: time.Now(),
	}
}

func (p *Player) Kind() Kind { return KindPlayer }

// SetHealth clamps to [0, PlayerMaxHealth].
func (p *Player) SetHealth(health int) {
	p.setClampedHealth(health, PlayerMaxHealth)
}

// SetStatus ignores anything other than alive, dead or waiting.
func (p *Player) SetStatus(status Status) {
	switch status {
	case StatusAlive, StatusDead, StatusWaiting:
		p.status = status
	}
}

// Revive restores full health and alive status for a rejoin.
func (p *Player) Revive() {
	p.status = StatusAlive
	p.health = PlayerMaxHealth
}

func (p *Player) JoinedAt() time.Time     { return p.joinedAt }
func (p *Player) LastActivity() time.Time { return p.lastActivity }

func (p *Player) Touch(now time.Time) {
	p.lastActivity = now
}

func (p *Player) Snapshot() Snapshot {
	s := p.snapshot(KindPlayer)
	s.JoinedAt = p.joinedAt
	return s
}
