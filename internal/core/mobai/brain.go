package mobai

import (
	"math/rand"
	"time"

	"github.com/zeusync/killzone/internal/core/entity"
)

const (
	// DetectionRadius is the Manhattan range in which a hunter notices players.
	DetectionRadius = 10

	minWanderInterval = 2
	maxWanderInterval = 4
)

// Action is what a mob did during its tick.
type Action uint8

const (
	Idle Action = iota
	Moved
	Attack
)

func (a Action) String() string {
	switch a {
	case Moved:
		return "moved"
	case Attack:
		return "attack"
	default:
		return "idle"
	}
}

// Decision is the outcome of one Step. Target is set only for Attack.
type Decision struct {
	Action Action
	Target *entity.Player
}

// Brain applies the per-mob movement policies. Like the combat resolver it is
// driven from inside the world lock and is not safe for concurrent use.
type Brain struct {
	rng *rand.Rand
}

func NewBrain(rng *rand.Rand) *Brain {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Brain{rng: rng}
}

// WanderInterval draws the number of ticks until a wandering mob moves next.
func (b *Brain) WanderInterval() int {
	return minWanderInterval + b.rng.Intn(maxWanderInterval-minWanderInterval+1)
}

// Step runs one tick of AI for m. A hunter with a player in range either
// attacks (when adjacent) or steps toward it; every other case wanders.
// Attack does not resolve the fight; the caller does.
func (b *Brain) Step(m *entity.Mob, players []*entity.Player, width, height int) Decision {
	if m.IsHunter() {
		if target := Nearest(m, players); target != nil {
			tx, ty := target.Position()
			if Adjacent(m, tx, ty) {
				return Decision{Action: Attack, Target: target}
			}
			x, y := StepToward(m, tx, ty, width, height)
			m.SetPosition(x, y)
			return Decision{Action: Moved}
		}
	}
	return b.wander(m, width, height)
}

func (b *Brain) wander(m *entity.Mob, width, height int) Decision {
	if !m.AdvanceCadence(b.WanderInterval) {
		return Decision{Action: Idle}
	}

	dir := entity.Directions[b.rng.Intn(len(entity.Directions))]
	x, y := m.Position()
	m.SetPosition(dir.Apply(x, y, width, height))

	return Decision{Action: Moved}
}

// Nearest returns the closest player within DetectionRadius by Manhattan
// distance. Ties keep the earlier player in the slice.
func Nearest(m *entity.Mob, players []*entity.Player) *entity.Player {
	mx, my := m.Position()

	var nearest *entity.Player
	best := DetectionRadius + 1
	for _, p := range players {
		px, py := p.Position()
		d := abs(mx-px) + abs(my-py)
		if d <= DetectionRadius && d < best {
			nearest = p
			best = d
		}
	}
	return nearest
}

// Adjacent reports Chebyshev distance exactly 1.
func Adjacent(m *entity.Mob, x, y int) bool {
	mx, my := m.Position()
	dx, dy := abs(mx-x), abs(my-y)
	return dx <= 1 && dy <= 1 && dx+dy > 0
}

// StepToward moves one cell along the axis with the larger offset; ties go to y.
func StepToward(m *entity.Mob, tx, ty, width, height int) (int, int) {
	x, y := m.Position()
	dx, dy := tx-x, ty-y

	if abs(dx) > abs(dy) {
		x += sign(dx)
	} else {
		y += sign(dy)
	}

	x = max(0, min(width-1, x))
	y = max(0, min(height-1, y))
	return x, y
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
