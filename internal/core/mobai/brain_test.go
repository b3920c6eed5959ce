package mobai

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/killzone/internal/core/entity"
)

func newBrain(seed int64) *Brain {
	return NewBrain(rand.New(rand.NewSource(seed)))
}

func TestWanderInterval_Range(t *testing.T) {
	b := newBrain(1)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		v := b.WanderInterval()
		require.GreaterOrEqual(t, v, 2)
		require.LessOrEqual(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 3, "all of 2, 3 and 4 show up")
}

func TestStep_WanderMovesOnCadence(t *testing.T) {
	b := newBrain(5)
	m := entity.NewMob("m1", "Goblin1", 10, 10, false, 3)

	assert.Equal(t, Idle, b.Step(m, nil, 40, 20).Action)
	assert.Equal(t, Idle, b.Step(m, nil, 40, 20).Action)

	d := b.Step(m, nil, 40, 20)
	require.Equal(t, Moved, d.Action)

	x, y := m.Position()
	assert.Equal(t, 1, abs(x-10)+abs(y-10), "exactly one cardinal step")
	assert.Nil(t, d.Target)
}

func TestStep_WanderStaysInBounds(t *testing.T) {
	b := newBrain(11)
	m := entity.NewMob("m1", "Goblin1", 0, 0, false, 2)
	for i := 0; i < 500; i++ {
		b.Step(m, nil, 3, 2)
		x, y := m.Position()
		require.True(t, x >= 0 && x < 3 && y >= 0 && y < 2, "(%d,%d) escaped", x, y)
	}
}

func TestStep_HunterAttacksAdjacent(t *testing.T) {
	b := newBrain(1)
	hunter := entity.NewMob("h", "Hunter", 5, 5, true, 2)
	near := entity.NewPlayer("p1", "Alice", 6, 6)
	far := entity.NewPlayer("p2", "Bob", 9, 9)

	d := b.Step(hunter, []*entity.Player{far, near}, 40, 20)
	require.Equal(t, Attack, d.Action)
	assert.Same(t, near, d.Target)

	x, y := hunter.Position()
	assert.Equal(t, [2]int{5, 5}, [2]int{x, y}, "attacking does not move")
}

func TestStep_HunterStepsTowardTarget(t *testing.T) {
	b := newBrain(1)
	hunter := entity.NewMob("h", "Hunter", 5, 5, true, 2)
	p := entity.NewPlayer("p1", "Alice", 9, 6)

	d := b.Step(hunter, []*entity.Player{p}, 40, 20)
	require.Equal(t, Moved, d.Action)

	x, y := hunter.Position()
	assert.Equal(t, 6, x, "x offset is larger")
	assert.Equal(t, 5, y)
}

func TestStepToward_TiesGoToY(t *testing.T) {
	m := entity.NewMob("h", "Hunter", 5, 5, true, 2)

	x, y := StepToward(m, 8, 8, 40, 20)
	assert.Equal(t, 5, x)
	assert.Equal(t, 6, y)

	x, y = StepToward(m, 2, 2, 40, 20)
	assert.Equal(t, 5, x)
	assert.Equal(t, 4, y)

	m.SetPosition(0, 0)
	x, y = StepToward(m, 0, 0, 40, 20)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y, "clamped at the edge")
}

func TestStep_HunterOutOfRangeWanders(t *testing.T) {
	b := newBrain(2)
	hunter := entity.NewMob("h", "Hunter", 0, 0, true, 2)
	p := entity.NewPlayer("p1", "Alice", 30, 15)

	assert.Nil(t, Nearest(hunter, []*entity.Player{p}))
	assert.Equal(t, Idle, b.Step(hunter, []*entity.Player{p}, 40, 20).Action)
	assert.Equal(t, Moved, b.Step(hunter, []*entity.Player{p}, 40, 20).Action)
}

func TestNearest_RadiusBoundary(t *testing.T) {
	hunter := entity.NewMob("h", "Hunter", 0, 0, true, 2)
	edge := entity.NewPlayer("p1", "Edge", 4, 6)
	beyond := entity.NewPlayer("p2", "Beyond", 5, 6)

	assert.Same(t, edge, Nearest(hunter, []*entity.Player{beyond, edge}))
	assert.Nil(t, Nearest(hunter, []*entity.Player{beyond}))
}

func TestAdjacent(t *testing.T) {
	m := entity.NewMob("h", "Hunter", 5, 5, true, 2)

	assert.True(t, Adjacent(m, 4, 4))
	assert.True(t, Adjacent(m, 5, 6))
	assert.False(t, Adjacent(m, 5, 5), "same cell is not adjacent")
	assert.False(t, Adjacent(m, 7, 5))
}
