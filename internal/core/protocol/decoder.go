package protocol

// Decoder splits a byte stream into request frames. A frame may arrive in
// several reads; Next reports ErrIncompleteFrame until it is whole.
type Decoder struct {
	buf []byte
}

func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 512)}
}

// Feed appends bytes read from the connection.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered is the number of bytes waiting for a complete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Next returns the next complete request. On an unknown tag the rest of the
// buffer is discarded, since frame boundaries can no longer be trusted, and
// ErrUnknownFrame is returned.
func (d *Decoder) Next() (Request, error) {
	if len(d.buf) == 0 {
		return Request{}, ErrIncompleteFrame
	}

	var (
		req  Request
		size int
	)
	switch tag := d.buf[0]; tag {
	case FrameJoin:
		if len(d.buf) < 2 {
			return Request{}, ErrIncompleteFrame
		}
		size = 2 + int(d.buf[1])
		if len(d.buf) < size {
			return Request{}, ErrIncompleteFrame
		}
		req = Request{Type: FrameJoin, Name: string(d.buf[2:size])}
	case FrameMove:
		size = 2
		if len(d.buf) < size {
			return Request{}, ErrIncompleteFrame
		}
		req = Request{Type: FrameMove, Direction: d.buf[1]}
	case FrameState:
		size = 1
		req = Request{Type: FrameState}
	default:
		d.buf = d.buf[:0]
		return Request{Type: tag}, ErrUnknownFrame
	}

	d.consume(size)
	return req, nil
}

func (d *Decoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}
