package replay

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"gpsbeacon/internal/nmea"
)

// Player is an nmea.Source that releases each recorded chunk once its
// timestamp, scaled by Speed, has elapsed.
type Player struct {
	records []Record
	speed   float64
	loop    bool
	now     func() time.Time

	idx      int
	pos      int
	segStart time.Time
	started  bool
}

// NewPlayer plays records. speed 1.0 is real time, 2.0 twice as fast.
func NewPlayer(records []Record, speed float64, loop bool, now func() time.Time) (*Player, error) {
	if speed <= 0 {
		return nil, errors.New("speed must be > 0")
	}
	hasData := false
	for _, r := range records {
		if !r.IsStart() {
			hasData = true
			break
		}
	}
	if !hasData {
		return nil, errors.New("no records")
	}
	if now == nil {
		now = time.Now
	}
	return &Player{records: records, speed: speed, loop: loop, now: now}, nil
}

func (p *Player) Ready() bool {
	t := p.now()
	if !p.started {
		p.segStart = t
		p.started = true
	}
	for {
		if p.idx >= len(p.records) {
			if !p.loop {
				// ReadByte reports io.EOF.
				return true
			}
			p.idx, p.pos = 0, 0
			p.segStart = t
		}
		r := p.records[p.idx]
		if r.IsStart() {
			p.segStart = t
			p.idx++
			continue
		}
		due := p.segStart.Add(time.Duration(float64(r.At) / p.speed))
		return !t.Before(due)
	}
}

func (p *Player) ReadByte() (byte, error) {
	for p.idx < len(p.records) && p.records[p.idx].IsStart() {
		p.idx++
	}
	if p.idx >= len(p.records) {
		return 0, io.EOF
	}
	chunk := p.records[p.idx].Chunk
	b := chunk[p.pos]
	p.pos++
	if p.pos >= len(chunk) {
		p.idx++
		p.pos = 0
	}
	return b, nil
}

// Capture tees every byte read from a source into a Writer, one record per
// line-feed terminated chunk.
type Capture struct {
	src nmea.Source
	w   *Writer
	now func() time.Time
	buf []byte
	err error
}

func NewCapture(src nmea.Source, w *Writer) *Capture {
	return &Capture{src: src, w: w, now: time.Now, buf: make([]byte, 0, 128)}
}

func (c *Capture) Ready() bool { return c.src.Ready() }

func (c *Capture) ReadByte() (byte, error) {
	b, err := c.src.ReadByte()
	if err != nil {
		return b, err
	}
	c.buf = append(c.buf, b)
	if b == '\n' || len(c.buf) == cap(c.buf) {
		if werr := c.w.WriteChunk(c.now(), c.buf); werr != nil && c.err == nil {
			c.err = werr
		}
		c.buf = c.buf[:0]
	}
	return b, nil
}

// Err returns the first capture write error. Capture failures never disturb
// the bytes handed to the reader.
func (c *Capture) Err() error { return c.err }

func (c *Capture) Close() error {
	if len(c.buf) > 0 {
		_ = c.w.WriteChunk(c.now(), c.buf)
		c.buf = c.buf[:0]
	}
	return c.w.Close()
}
