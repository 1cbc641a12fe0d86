package identity

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"gpsbeacon/internal/i2c"
)

// Storage is byte-addressable non-volatile memory.
type Storage interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// StorageConfig selects and locates the storage backend.
type StorageConfig struct {
	// Backend is "file" (EEPROM image) or "i2c" (24Cxx part).
	Backend string

	Path string

	I2CBus      string
	I2CAddr     uint16
	I2CWideAddr bool
}

// OpenStorage opens the configured backend.
func OpenStorage(cfg StorageConfig) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return OpenImage(cfg.Path)
	case "i2c":
		return openEEPROM(cfg)
	default:
		return nil, errors.Errorf("identity: unknown storage backend %q", cfg.Backend)
	}
}

// Image is an EEPROM image file. Bytes past the end of the file read as
// 0xFF, the erased state of real parts.
type Image struct {
	f *os.File
}

// OpenImage opens an existing image file.
func OpenImage(path string) (*Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("identity: image path is empty")
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "identity: open image")
	}
	return &Image{f: f}, nil
}

// CreateImage creates (or truncates) an image of size bytes, all erased.
func CreateImage(path string, size int) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "identity: create image")
	}
	blank := make([]byte, size)
	for i := range blank {
		blank[i] = 0xFF
	}
	if _, err := f.Write(blank); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "identity: erase image")
	}
	return &Image{f: f}, nil
}

func (m *Image) ReadAt(p []byte, off int64) (int, error) {
	n, err := m.f.ReadAt(p, off)
	if err == io.EOF {
		for i := n; i < len(p); i++ {
			p[i] = 0xFF
		}
		return len(p), nil
	}
	return n, err
}

func (m *Image) WriteAt(p []byte, off int64) (int, error) {
	n, err := m.f.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	return n, m.f.Sync()
}

func (m *Image) Close() error { return m.f.Close() }

type eepromStorage struct {
	*i2c.EEPROM
	bus *i2c.Bus
}

func (s *eepromStorage) Close() error { return s.bus.Close() }

func openEEPROM(cfg StorageConfig) (Storage, error) {
	busPath := cfg.I2CBus
	if busPath == "" {
		busPath = "/dev/i2c-1"
	}
	addr := cfg.I2CAddr
	if addr == 0 {
		addr = i2c.DefaultEEPROMAddr
	}
	bus, err := i2c.Open(busPath)
	if err != nil {
		return nil, err
	}
	return &eepromStorage{EEPROM: i2c.NewEEPROM(bus.Chip(addr), cfg.I2CWideAddr), bus: bus}, nil
}
