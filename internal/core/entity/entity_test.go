package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_SetHealthClamps(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1, 2)
	require.Equal(t, PlayerMaxHealth, p.Health())
	require.Equal(t, StatusAlive, p.Status())

	p.SetHealth(250)
	assert.Equal(t, 100, p.Health())

	p.SetHealth(40)
	assert.Equal(t, 40, p.Health())
	assert.Equal(t, StatusAlive, p.Status())

	p.SetHealth(-5)
	assert.Equal(t, 0, p.Health())
	assert.Equal(t, StatusDead, p.Status(), "zero health forces dead")
}

func TestPlayer_SetStatusRejectsUnknown(t *testing.T) {
	p := NewPlayer("p1", "Alice", 0, 0)
	p.SetStatus(StatusWaiting)
	assert.Equal(t, StatusWaiting, p.Status())

	p.SetStatus(Status("zombie"))
	assert.Equal(t, StatusWaiting, p.Status())
}

func TestPlayer_Revive(t *testing.T) {
	p := NewPlayer("p1", "Alice", 0, 0)
	p.SetHealth(0)
	require.Equal(t, StatusDead, p.Status())

	p.Revive()
	assert.Equal(t, StatusAlive, p.Status())
	assert.Equal(t, PlayerMaxHealth, p.Health())
}

func TestMob_HealthHasNoCeiling(t *testing.T) {
	m := NewMob("m1", "Goblin1", 3, 3, false, 2)
	require.Equal(t, MobStartHealth, m.Health())

	m.SetHealth(500)
	assert.Equal(t, 500, m.Health())

	m.SetHealth(0)
	assert.Equal(t, StatusDead, m.Status())
}

func TestMob_AdvanceCadence(t *testing.T) {
	m := NewMob("m1", "Goblin1", 0, 0, false, 3)
	next := func() int { return 2 }

	assert.False(t, m.AdvanceCadence(next))
	assert.False(t, m.AdvanceCadence(next))
	assert.True(t, m.AdvanceCadence(next), "third tick reaches the interval")
	assert.Equal(t, 2, m.MoveInterval())

	assert.False(t, m.AdvanceCadence(next))
	assert.True(t, m.AdvanceCadence(next))
}

func TestSnapshot_Variants(t *testing.T) {
	hunter := NewMob("m1", "Hunter", 4, 5, true, 2)
	s := hunter.Snapshot()
	assert.Equal(t, KindMob, s.Kind)
	assert.True(t, s.IsHunter)
	assert.Equal(t, 4, s.X)
	assert.Equal(t, 5, s.Y)

	p := NewPlayer("p1", "Alice", 7, 8).Snapshot()
	assert.Equal(t, KindPlayer, p.Kind)
	assert.False(t, p.IsHunter)
	assert.False(t, p.JoinedAt.IsZero())
}

func TestDirection_ApplyClamps(t *testing.T) {
	tests := []struct {
		dir          Direction
		x, y         int
		wantX, wantY int
	}{
		{Up, 3, 0, 3, 0},
		{Up, 3, 4, 3, 3},
		{Down, 3, 19, 3, 19},
		{Down, 3, 4, 3, 5},
		{Left, 0, 4, 0, 4},
		{Left, 5, 4, 4, 4},
		{Right, 39, 4, 39, 4},
		{Right, 5, 4, 6, 4},
	}

	for _, tt := range tests {
		x, y := tt.dir.Apply(tt.x, tt.y, 40, 20)
		assert.Equal(t, tt.wantX, x, "%s from (%d,%d)", tt.dir, tt.x, tt.y)
		assert.Equal(t, tt.wantY, y, "%s from (%d,%d)", tt.dir, tt.x, tt.y)
	}
}

func TestDirection_Parse(t *testing.T) {
	d, err := ParseDirection("left")
	require.NoError(t, err)
	assert.Equal(t, Left, d)

	_, err = ParseDirection("north")
	assert.ErrorIs(t, err, ErrInvalidDirection)

	d, err = DirectionFromByte('u')
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	_, err = DirectionFromByte('x')
	assert.ErrorIs(t, err, ErrInvalidDirection)
}
