package entity

import "errors"

var ErrInvalidDirection = errors.New("invalid direction")

// Direction is one of the four cardinal grid steps.
type Direction uint8

const (
	DirectionNone Direction = iota
	Up
	Down
	Left
	Right
)

// Directions lists the cardinal directions in wander-draw order.
var Directions = [...]Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// ParseDirection accepts the HTTP spelling: up, down, left, right.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return DirectionNone, ErrInvalidDirection
}

// DirectionFromByte accepts the socket spelling: 'u', 'd', 'l', 'r'.
func DirectionFromByte(b byte) (Direction, error) {
	switch b {
	case 'u':
		return Up, nil
	case 'd':
		return Down, nil
	case 'l':
		return Left, nil
	case 'r':
		return Right, nil
	}
	return DirectionNone, ErrInvalidDirection
}

// Apply steps (x, y) one cell in d, clamped to [0,width)x[0,height).
func (d Direction) Apply(x, y, width, height int) (int, int) {
	switch d {
	case Up:
		y = max(0, y-1)
	case Down:
		y = min(height-1, y+1)
	case Left:
		x = max(0, x-1)
	case Right:
		x = min(width-1, x+1)
	}
	return x, y
}
