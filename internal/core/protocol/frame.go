// Package protocol implements the binary frames spoken by socket clients.
//
// Every frame starts with a one-byte type tag. Requests:
//
//	join   [0x01][nameLen][name]
//	move   [0x02]['u'|'d'|'l'|'r']
//	state  [0x03]
//
// Responses:
//
//	join   [0x01][idLen][id][x][y][health][verLen][version]
//	move   [0x02][x][y][health][collision]
//	state  [0x03][count][ticksLo][ticksHi] then count x [type][x][y]
//
// Coordinates and health are single unsigned bytes, so a world served over
// a socket transport must be at most 255 cells on either axis.
package protocol

import (
	"fmt"
	"math"

	"github.com/zeusync/killzone/internal/core/world"
)

const (
	FrameJoin  byte = 0x01
	FrameMove  byte = 0x02
	FrameState byte = 0x03

	// MaxCoordinate is the largest value a coordinate byte carries.
	MaxCoordinate = math.MaxUint8
	// MaxDimension is the largest world width or height the frames can address.
	MaxDimension = MaxCoordinate

	maxEntities = math.MaxUint8
	maxField    = math.MaxUint8
)

// Entity type characters in a state response.
const (
	EntitySelf   byte = 'M'
	EntityPlayer byte = 'P'
	EntityHunter byte = 'H'
	EntityMob    byte = 'E'
)

// Request is one decoded client frame.
type Request struct {
	Type      byte
	Name      string // join
	Direction byte   // move
}

// ValidateDimensions rejects worlds that single-byte coordinates cannot address.
func ValidateDimensions(width, height int) error {
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrDimensionsTooLarge, width, height)
	}
	return nil
}

// AppendJoinRequest appends a join frame for name.
func AppendJoinRequest(dst []byte, name string) ([]byte, error) {
	if len(name) > maxField {
		return dst, fmt.Errorf("%w: name", ErrFieldTooLong)
	}
	dst = append(dst, FrameJoin, byte(len(name)))
	return append(dst, name...), nil
}

func AppendMoveRequest(dst []byte, dir byte) []byte {
	return append(dst, FrameMove, dir)
}

func AppendStateRequest(dst []byte) []byte {
	return append(dst, FrameState)
}

// AppendJoinResponse appends [0x01][idLen][id][x][y][health][verLen][version].
func AppendJoinResponse(dst []byte, id string, x, y, health int, version string) ([]byte, error) {
	if len(id) > maxField {
		return dst, fmt.Errorf("%w: id", ErrFieldTooLong)
	}
	if len(version) > maxField {
		return dst, fmt.Errorf("%w: version", ErrFieldTooLong)
	}
	if err := checkCoordinates(x, y); err != nil {
		return dst, err
	}

	dst = append(dst, FrameJoin, byte(len(id)))
	dst = append(dst, id...)
	dst = append(dst, byte(x), byte(y), healthByte(health), byte(len(version)))
	return append(dst, version...), nil
}

// AppendMoveResponse appends [0x02][x][y][health][collision].
func AppendMoveResponse(dst []byte, x, y, health int, collision bool) ([]byte, error) {
	if err := checkCoordinates(x, y); err != nil {
		return dst, err
	}

	var flag byte
	if collision {
		flag = 1
	}
	return append(dst, FrameMove, byte(x), byte(y), healthByte(health), flag), nil
}

// AppendStateResponse appends the state frame as seen by selfID. Entities
// past the 255th are dropped and ticks are sent modulo 65536.
func AppendStateResponse(dst []byte, state world.State, selfID string) ([]byte, error) {
	entities := state.Players
	if len(entities) > maxEntities {
		entities = entities[:maxEntities]
	}

	dst = append(dst, FrameState, byte(len(entities)), byte(state.Ticks), byte(state.Ticks>>8))
	for _, e := range entities {
		if err := checkCoordinates(e.X, e.Y); err != nil {
			return dst, err
		}
		dst = append(dst, entityChar(e, selfID), byte(e.X), byte(e.Y))
	}
	return dst, nil
}

func entityChar(e world.EntityState, selfID string) byte {
	switch {
	case selfID != "" && e.ID == selfID:
		return EntitySelf
	case e.IsHunter != nil && *e.IsHunter:
		return EntityHunter
	case e.IsHunter != nil:
		return EntityMob
	default:
		return EntityPlayer
	}
}

func checkCoordinates(x, y int) error {
	if x < 0 || y < 0 || x > MaxCoordinate || y > MaxCoordinate {
		return fmt.Errorf("%w: (%d,%d)", ErrCoordinateRange, x, y)
	}
	return nil
}

// healthByte clamps health into a byte. Mob health is unbounded above.
func healthByte(health int) byte {
	return byte(max(0, min(health, math.MaxUint8)))
}

func EncodeJoinResponse(id string, x, y, health int, version string) ([]byte, error) {
	return AppendJoinResponse(make([]byte, 0, 6+len(id)+len(version)), id, x, y, health, version)
}

func EncodeMoveResponse(x, y, health int, collision bool) ([]byte, error) {
	return AppendMoveResponse(make([]byte, 0, 5), x, y, health, collision)
}

func EncodeStateResponse(state world.State, selfID string) ([]byte, error) {
	n := min(len(state.Players), maxEntities)
	return AppendStateResponse(make([]byte, 0, 4+3*n), state, selfID)
}
