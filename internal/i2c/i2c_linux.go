//go:build linux

package i2c

import (
	"os"
	"path/filepath"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Linux i2c-dev ioctl numbers, from <linux/i2c-dev.h> and <linux/i2c.h>.
const (
	ioctlRdwr = 0x0707
	flagRead  = 0x0001
)

// segment mirrors struct i2c_msg.
type segment struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// ioctlData mirrors struct i2c_rdwr_ioctl_data.
type ioctlData struct {
	segs  uintptr
	nsegs uint32
}

// Bus holds an i2c-dev character device open for the identity EEPROM.
// A single caller owns it; transfers are not serialized.
type Bus struct {
	f    *os.File
	path string
}

// Open opens an i2c-dev node such as /dev/i2c-1.
func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "i2c: open %s", path)
	}
	return &Bus{f: f, path: path}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	f := b.f
	b.f = nil
	return f.Close()
}

// Chip addresses one 7-bit target on the bus, normally the EEPROM.
func (b *Bus) Chip(addr uint16) *Chip {
	return &Chip{bus: b, addr: addr}
}

// Chip issues combined transfers to one target. A word-address write
// followed by a data read goes out as one ioctl, so the EEPROM sees a
// repeated start and its address pointer is not disturbed in between.
type Chip struct {
	bus  *Bus
	addr uint16
}

// Write sends p as a single write segment (word address plus page data).
func (c *Chip) Write(p []byte) error {
	return c.transfer(p, nil)
}

// WriteRead sends w and then fills r after a repeated start.
func (c *Chip) WriteRead(w, r []byte) error {
	return c.transfer(w, r)
}

func (c *Chip) transfer(w, r []byte) error {
	if c == nil || c.bus == nil || c.bus.f == nil {
		return errors.New("i2c: bus closed")
	}
	if c.addr == 0 || c.addr > 0x7F {
		return errors.Errorf("i2c: address 0x%X is not 7-bit", c.addr)
	}

	segs := make([]segment, 0, 2)
	if len(w) > 0 {
		segs = append(segs, c.segment(w, 0))
	}
	if len(r) > 0 {
		segs = append(segs, c.segment(r, flagRead))
	}
	if len(segs) == 0 {
		return nil
	}

	data := ioctlData{segs: uintptr(unsafe.Pointer(&segs[0])), nsegs: uint32(len(segs))}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, c.bus.f.Fd(), ioctlRdwr, uintptr(unsafe.Pointer(&data))); errno != 0 {
		return errors.Wrapf(errno, "i2c: %s transfer to 0x%02X", c.bus.path, c.addr)
	}
	return nil
}

func (c *Chip) segment(p []byte, flags uint16) segment {
	return segment{addr: c.addr, flags: flags, len: uint16(len(p)), buf: uintptr(unsafe.Pointer(&p[0]))}
}
