package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/killzone/internal/core/entity"
	"github.com/zeusync/killzone/internal/core/world"
)

func TestEncodeJoinResponse(t *testing.T) {
	got, err := EncodeJoinResponse("p1", 7, 19, 100, "1.2.0")
	require.NoError(t, err)

	want := []byte{0x01, 2, 'p', '1', 7, 19, 100, 5, '1', '.', '2', '.', '0'}
	assert.Equal(t, want, got)
}

func TestEncodeJoinResponse_Limits(t *testing.T) {
	_, err := EncodeJoinResponse(strings.Repeat("x", 256), 0, 0, 100, "1")
	assert.ErrorIs(t, err, ErrFieldTooLong)

	_, err = EncodeJoinResponse("p1", 0, 0, 100, strings.Repeat("v", 256))
	assert.ErrorIs(t, err, ErrFieldTooLong)

	_, err = EncodeJoinResponse("p1", 256, 0, 100, "1")
	assert.ErrorIs(t, err, ErrCoordinateRange)

	got, err := EncodeJoinResponse(strings.Repeat("x", 255), 255, 255, 100, "")
	require.NoError(t, err)
	assert.Len(t, got, 1+1+255+3+1)
}

func TestEncodeMoveResponse(t *testing.T) {
	got, err := EncodeMoveResponse(6, 5, 100, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 6, 5, 100, 1}, got)

	got, err = EncodeMoveResponse(0, 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0, 0, 0, 0}, got)

	_, err = EncodeMoveResponse(-1, 0, 0, false)
	assert.ErrorIs(t, err, ErrCoordinateRange)
}

func TestEncodeStateResponse(t *testing.T) {
	hunter, goblin := true, false
	state := world.State{
		Ticks: 0x1234,
		Players: []world.EntityState{
			{ID: "me", X: 1, Y: 2, Type: entity.KindPlayer},
			{ID: "other", X: 3, Y: 4, Type: entity.KindPlayer},
			{ID: "h", X: 5, Y: 6, Type: entity.KindMob, IsHunter: &hunter},
			{ID: "g", X: 7, Y: 8, Type: entity.KindMob, IsHunter: &goblin},
		},
	}

	got, err := EncodeStateResponse(state, "me")
	require.NoError(t, err)

	want := []byte{
		0x03, 4, 0x34, 0x12,
		'M', 1, 2,
		'P', 3, 4,
		'H', 5, 6,
		'E', 7, 8,
	}
	assert.Equal(t, want, got)

	got, err = EncodeStateResponse(state, "")
	require.NoError(t, err)
	assert.Equal(t, EntityPlayer, got[4], "no session entity without a bound player")
}

func TestEncodeStateResponse_TicksWrapAndTruncation(t *testing.T) {
	state := world.State{Ticks: 65536 + 2}
	for i := 0; i < 300; i++ {
		state.Players = append(state.Players, world.EntityState{ID: "p", X: i % 40, Y: i % 20})
	}

	got, err := EncodeStateResponse(state, "")
	require.NoError(t, err)

	assert.Equal(t, byte(255), got[1], "count capped at 255")
	assert.Equal(t, []byte{2, 0}, got[2:4], "ticks modulo 65536, little endian")
	assert.Len(t, got, 4+255*3)
}

func TestHealthByteClamps(t *testing.T) {
	got, err := EncodeMoveResponse(0, 0, 400, false)
	require.NoError(t, err)
	assert.Equal(t, byte(255), got[3])
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"default", 40, 20, false},
		{"edge", 255, 255, false},
		{"wide", 256, 20, true},
		{"tall", 40, 256, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDimensionsTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestEncoders(t *testing.T) {
	b, err := AppendJoinRequest(nil, "Alice")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 5, 'A', 'l', 'i', 'c', 'e'}, b)

	_, err = AppendJoinRequest(nil, strings.Repeat("n", 256))
	assert.ErrorIs(t, err, ErrFieldTooLong)

	assert.Equal(t, []byte{0x02, 'u'}, AppendMoveRequest(nil, 'u'))
	assert.Equal(t, []byte{0x03}, AppendStateRequest(nil))
}
