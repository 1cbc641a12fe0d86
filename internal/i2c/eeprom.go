package i2c

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// DefaultEEPROMAddr is the usual 24Cxx address with A0..A2 tied low.
const DefaultEEPROMAddr = 0x50

type transferer interface {
	Write(p []byte) error
	WriteRead(w, r []byte) error
}

var sleepFn = time.Sleep

// EEPROM is a 24Cxx serial EEPROM. Small parts (24C01/02) take a one-byte
// word address; 24C32 and larger take two bytes, selected with wide.
type EEPROM struct {
	dev  transferer
	wide bool

	// WriteCycle is the self-timed programming delay after each byte.
	WriteCycle time.Duration
}

var _ io.ReaderAt = (*EEPROM)(nil)
var _ io.WriterAt = (*EEPROM)(nil)

func NewEEPROM(d *Chip, wide bool) *EEPROM {
	return newEEPROM(d, wide)
}

func newEEPROM(d transferer, wide bool) *EEPROM {
	return &EEPROM{dev: d, wide: wide, WriteCycle: 5 * time.Millisecond}
}

func (e *EEPROM) wordAddr(off int64, dst []byte) ([]byte, error) {
	if off < 0 {
		return nil, errors.Errorf("eeprom: negative offset %d", off)
	}
	if e.wide {
		if off > 0xFFFF {
			return nil, errors.Errorf("eeprom: offset %d out of range", off)
		}
		return append(dst, byte(off>>8), byte(off)), nil
	}
	if off > 0xFF {
		return nil, errors.Errorf("eeprom: offset %d out of range", off)
	}
	return append(dst, byte(off)), nil
}

// ReadAt performs a sequential random read starting at off.
func (e *EEPROM) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var buf [2]byte
	addr, err := e.wordAddr(off, buf[:0])
	if err != nil {
		return 0, err
	}
	if err := e.dev.WriteRead(addr, p); err != nil {
		return 0, errors.Wrapf(err, "eeprom read off=%d len=%d", off, len(p))
	}
	return len(p), nil
}

// WriteAt programs p one byte at a time, waiting WriteCycle after each.
// Byte writes sidestep page-boundary wrap on every part size.
func (e *EEPROM) WriteAt(p []byte, off int64) (int, error) {
	for i, b := range p {
		var buf [3]byte
		frame, err := e.wordAddr(off+int64(i), buf[:0])
		if err != nil {
			return i, err
		}
		frame = append(frame, b)
		if err := e.dev.Write(frame); err != nil {
			return i, errors.Wrapf(err, "eeprom write off=%d", off+int64(i))
		}
		if e.WriteCycle > 0 {
			sleepFn(e.WriteCycle)
		}
	}
	return len(p), nil
}
