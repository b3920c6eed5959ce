package entity

var _ Entity = (*Mob)(nil)

// Mob is a server-controlled entity. A hunter mob pursues players; every
// other mob wanders on a randomized cadence.
type Mob struct {
	actor
	hunter bool

	moveCounter  int
	moveInterval int
}

func NewMob(id, name string, x, y int, hunter bool, wanderInterval int) *Mob {
	return &Mob{
		actor: actor{
			id:     id,
			name:   name,
			x:      x,
			y:      y,
			health: MobStartHealth,
			status: StatusAlive,
		},
		hunter:       hunter,
		moveInterval: wanderInterval,
	}
}

func (m *Mob) Kind() Kind     { return KindMob }
func (m *Mob) IsHunter() bool { return m.hunter }

// SetHealth clamps at zero only.
func (m *Mob) SetHealth(health int) {
	m.setClampedHealth(health, 0)
}

func (m *Mob) SetStatus(status Status) {
	m.status = status
}

// AdvanceCadence counts one tick and reports whether the mob is due to move.
// When due the counter resets and next becomes the interval to the following move.
func (m *Mob) AdvanceCadence(next func() int) bool {
	m.moveCounter++
	if m.moveCounter < m.moveInterval {
		return false
	}
	m.moveCounter = 0
	m.moveInterval = next()
	return true
}

func (m *Mob) MoveInterval() int { return m.moveInterval }

func (m *Mob) Snapshot() Snapshot {
	s := m.snapshot(KindMob)
	s.IsHunter = m.hunter
	return s
}
