package gnss

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/term"
)

// DefaultBaud is the receiver's factory rate (8N1).
const DefaultBaud = 9600

// Port is an opened serial GNSS.
type Port struct {
	t      *term.Term
	device string
	baud   int
}

var openTermFn = func(device string, baud int) (*term.Term, error) {
	return term.Open(device, term.RawMode, term.Speed(baud))
}

// Open opens device in raw mode. An empty device is auto-detected.
func Open(device string, baud int) (*Port, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		device = AutoDetectDevice()
		if device == "" {
			return nil, errors.New("gnss auto-detect failed: no /dev/ttyACM*, /dev/ttyUSB* or /dev/ttyS* found")
		}
	}
	if baud == 0 {
		baud = DefaultBaud
	}
	switch baud {
	case 4800, 9600, 19200, 38400, 57600, 115200:
	default:
		return nil, errors.Errorf("gnss: unsupported baud %d", baud)
	}

	t, err := openTermFn(device, baud)
	if err != nil {
		return nil, errors.Wrapf(err, "gnss open device=%s baud=%d", device, baud)
	}
	return &Port{t: t, device: device, baud: baud}, nil
}

func (p *Port) Device() string { return p.device }
func (p *Port) Baud() int      { return p.baud }

// Ready reports whether the input queue holds at least one byte. A failing
// query reports true so the following ReadByte surfaces the error.
func (p *Port) Ready() bool {
	n, err := p.t.Available()
	if err != nil {
		return true
	}
	return n > 0
}

func (p *Port) ReadByte() (byte, error) {
	var b [1]byte
	for {
		n, err := p.t.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (p *Port) Write(b []byte) (int, error) { return p.t.Write(b) }

func (p *Port) Close() error { return p.t.Close() }

var _ io.ByteReader = (*Port)(nil)

var statFn = os.Stat

// AutoDetectDevice returns the first serial device node that exists.
func AutoDetectDevice() string {
	candidates := []string{}
	for _, prefix := range []string{"/dev/ttyACM", "/dev/ttyUSB", "/dev/ttyS"} {
		for i := 0; i < 10; i++ {
			candidates = append(candidates, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	for _, p := range candidates {
		if _, err := statFn(p); err == nil {
			return p
		}
	}
	return ""
}
