package protocol

import (
	"fmt"
	"io"
)

// JoinResponse is a decoded join reply.
type JoinResponse struct {
	ID      string
	X, Y    int
	Health  int
	Version string
}

// MoveResponse is a decoded move reply.
type MoveResponse struct {
	X, Y      int
	Health    int
	Collision bool
}

// StateEntity is one entry of a state reply. Type is one of EntitySelf,
// EntityPlayer, EntityHunter or EntityMob.
type StateEntity struct {
	Type byte
	X, Y int
}

// StateResponse is a decoded state reply. Ticks is the world tick count
// modulo 65536.
type StateResponse struct {
	Ticks    uint16
	Entities []StateEntity
}

func readTag(r io.Reader, want byte) error {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return err
	}
	if tag[0] != want {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrUnexpectedFrame, tag[0], want)
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n [1]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return "", err
	}
	buf := make([]byte, n[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadJoinResponse reads one join reply from r.
func ReadJoinResponse(r io.Reader) (JoinResponse, error) {
	if err := readTag(r, FrameJoin); err != nil {
		return JoinResponse{}, err
	}
	id, err := readString(r)
	if err != nil {
		return JoinResponse{}, err
	}
	var pos [3]byte
	if _, err = io.ReadFull(r, pos[:]); err != nil {
		return JoinResponse{}, err
	}
	version, err := readString(r)
	if err != nil {
		return JoinResponse{}, err
	}
	return JoinResponse{
		ID:      id,
		X:       int(pos[0]),
		Y:       int(pos[1]),
		Health:  int(pos[2]),
		Version: version,
	}, nil
}

// ReadMoveResponse reads one move reply from r.
func ReadMoveResponse(r io.Reader) (MoveResponse, error) {
	if err := readTag(r, FrameMove); err != nil {
		return MoveResponse{}, err
	}
	var body [4]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return MoveResponse{}, err
	}
	return MoveResponse{
		X:         int(body[0]),
		Y:         int(body[1]),
		Health:    int(body[2]),
		Collision: body[3] != 0,
	}, nil
}

// ReadStateResponse reads one state reply from r.
func ReadStateResponse(r io.Reader) (StateResponse, error) {
	if err := readTag(r, FrameState); err != nil {
		return StateResponse{}, err
	}
	var head [3]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return StateResponse{}, err
	}

	body := make([]byte, 3*int(head[0]))
	if _, err := io.ReadFull(r, body); err != nil {
		return StateResponse{}, err
	}

	resp := StateResponse{
		Ticks:    uint16(head[1]) | uint16(head[2])<<8,
		Entities: make([]StateEntity, 0, head[0]),
	}
	for i := 0; i < len(body); i += 3 {
		resp.Entities = append(resp.Entities, StateEntity{
			Type: body[i],
			X:    int(body[i+1]),
			Y:    int(body[i+2]),
		})
	}
	return resp, nil
}
