package nmea

import (
	"context"
	"time"
)

// LineCapacity is the size of the raw-line buffer, terminator included.
const LineCapacity = 100

// MaxLineLength is the longest line Reassembler returns. Bytes past it
// overwrite the last accepted byte.
const MaxLineLength = LineCapacity - 3

// Source is a serial byte stream with a non-blocking readiness query.
type Source interface {
	// Ready reports whether ReadByte can return without waiting.
	Ready() bool
	ReadByte() (byte, error)
}

// Reassembler collects bytes from a Source into a single NUL-terminated line.
//
// The zero value is ready to use.
type Reassembler struct {
	buf     [LineCapacity]byte
	n       int
	overrun bool

	// PollInterval is how long ReadLine waits after a negative Ready poll.
	// Zero re-polls immediately.
	PollInterval time.Duration
}

// Reset zeroes the line buffer and rewinds the write index.
func (r *Reassembler) Reset() {
	r.buf = [LineCapacity]byte{}
	r.n = 0
	r.overrun = false
}

// Feed consumes one byte. It returns the completed line and true once a
// line-feed arrives. The returned slice aliases the internal buffer and is
// followed in that buffer by a NUL.
func (r *Reassembler) Feed(b byte) ([]byte, bool) {
	switch b {
	case '\r':
		return nil, false
	case '\n':
		r.buf[r.n] = 0
		return r.buf[:r.n], true
	}
	if r.n+1 < LineCapacity-2 {
		r.buf[r.n] = b
		r.n++
		return nil, false
	}
	r.buf[r.n-1] = b
	r.overrun = true
	return nil, false
}

// ReadLine polls src until a full line has been reassembled.
//
// There is no timeout: a silent receiver blocks until ctx is done.
func (r *Reassembler) ReadLine(ctx context.Context, src Source) ([]byte, error) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !src.Ready() {
			if r.PollInterval <= 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.PollInterval)
			} else {
				timer.Reset(r.PollInterval)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
			continue
		}
		b, err := src.ReadByte()
		if err != nil {
			return nil, err
		}
		if line, ok := r.Feed(b); ok {
			return line, nil
		}
	}
}

// Overrun reports whether the current line hit MaxLineLength.
func (r *Reassembler) Overrun() bool { return r.overrun }

// Buffer exposes the raw-line buffer, terminator and tail included.
func (r *Reassembler) Buffer() *[LineCapacity]byte { return &r.buf }
