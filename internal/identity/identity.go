// Package identity reads and writes the 8-byte station record kept in
// non-volatile storage.
//
//	byte offset 0  1  2  3  4  5  6     7
//	            W  1  A  B  C  ' ' syncA syncB
//
// The station identifier is left-justified and space-padded. The two sync
// bytes name the radio network.
package identity

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	RecordSize = 8
	StationLen = 6
)

var (
	ErrShortRecord    = errors.New("identity: short record")
	ErrStationTooLong = errors.New("identity: station id longer than 6 characters")
)

// Record is the decoded identity.
type Record struct {
	Station [StationLen]byte
	Sync    [2]byte
}

// New builds a record from a station id, padding it with spaces.
func New(station string, sync [2]byte) (Record, error) {
	if len(station) > StationLen {
		return Record{}, errors.Wrapf(ErrStationTooLong, "%q", station)
	}
	var r Record
	copy(r.Station[:], station)
	for i := len(station); i < StationLen; i++ {
		r.Station[i] = ' '
	}
	r.Sync = sync
	return r, nil
}

// Decode parses the first RecordSize bytes of b.
func Decode(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, errors.Wrapf(ErrShortRecord, "got %d bytes", len(b))
	}
	var r Record
	copy(r.Station[:], b[:StationLen])
	r.Sync[0] = b[6]
	r.Sync[1] = b[7]
	return r, nil
}

// Encode returns the storage layout of r.
func (r Record) Encode() [RecordSize]byte {
	var b [RecordSize]byte
	copy(b[:StationLen], r.Station[:])
	b[6] = r.Sync[0]
	b[7] = r.Sync[1]
	return b
}

// StationID returns the station bytes with trailing padding removed.
func (r Record) StationID() string {
	return strings.TrimRight(string(r.Station[:]), " ")
}

// Erased reports whether the record looks like blank EEPROM.
func (r Record) Erased() bool {
	for _, b := range r.Encode() {
		if b != 0xFF {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	return fmt.Sprintf("station=%q sync=0x%02X,0x%02X", string(r.Station[:]), r.Sync[0], r.Sync[1])
}

// Load reads the record at offset 0 of s.
func Load(s io.ReaderAt) (Record, error) {
	var b [RecordSize]byte
	n, err := s.ReadAt(b[:], 0)
	if n < RecordSize {
		if err == nil || err == io.EOF {
			err = ErrShortRecord
		}
		return Record{}, errors.Wrap(err, "identity load")
	}
	return Decode(b[:])
}

// Store writes r at offset 0 of s.
func Store(s io.WriterAt, r Record) error {
	b := r.Encode()
	if _, err := s.WriteAt(b[:], 0); err != nil {
		return errors.Wrap(err, "identity store")
	}
	return nil
}

// ParseSync reads two sync bytes written as four hex digits, e.g. "2DD4".
func ParseSync(s string) ([2]byte, error) {
	var out [2]byte
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x"))
	if err != nil {
		return out, errors.Wrapf(err, "sync %q", s)
	}
	if len(b) != 2 {
		return out, errors.Errorf("sync %q must be 2 bytes", s)
	}
	copy(out[:], b)
	return out, nil
}
