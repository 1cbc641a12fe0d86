package radio

import "github.com/pkg/errors"

const (
	headerLen = 6

	flagAck = 0x80
)

var errShortFrame = errors.New("radio: short frame")

type header struct {
	sync  [2]byte
	to    byte
	from  byte
	id    byte
	flags byte
}

func (h header) isAck() bool { return h.flags&flagAck != 0 }

func encodeFrame(dst []byte, h header, payload []byte) []byte {
	dst = append(dst[:0], h.sync[0], h.sync[1], h.to, h.from, h.id, h.flags)
	return append(dst, payload...)
}

func decodeFrame(b []byte) (header, []byte, error) {
	if len(b) < headerLen {
		return header{}, nil, errShortFrame
	}
	h := header{
		sync:  [2]byte{b[0], b[1]},
		to:    b[2],
		from:  b[3],
		id:    b[4],
		flags: b[5],
	}
	return h, b[headerLen:], nil
}
