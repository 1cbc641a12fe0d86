// Package packet builds the outbound beacon datagram and parses it back on
// the receiving side.
//
// Layout of a packet:
//
//	valid fix:   ID,utc,status,lat,NS,lon,EW,date
//	invalid fix: ID,V,<header><utc><status>
//
// ID is the 6-byte station identifier from the identity record.
package packet

import (
	"gpsbeacon/internal/identity"
	"gpsbeacon/internal/nmea"
	"gpsbeacon/internal/radio"
)

// Capacity is the radio's maximum message length. One byte of it is
// reserved for the NUL terminator.
const Capacity = radio.MaxMessageLen

// bodyStart is the offset of the first byte rewritten every cycle.
const bodyStart = identity.StationLen + 1

// Shape tells which of the two packet layouts was assembled.
type Shape int

const (
	ShapeFix Shape = iota
	ShapeNoFix
)

func (s Shape) String() string {
	switch s {
	case ShapeFix:
		return "fix"
	case ShapeNoFix:
		return "nofix"
	default:
		return "unknown"
	}
}

// Assembler owns the outbound-packet buffer. The identity prefix is written
// once by SetIdentity and never touched again.
type Assembler struct {
	buf       [Capacity]byte
	n         int
	truncated bool
}

// SetIdentity writes the station prefix, the separating comma and a NUL.
func (a *Assembler) SetIdentity(r identity.Record) {
	copy(a.buf[:identity.StationLen], r.Station[:])
	a.buf[identity.StationLen] = ','
	a.Reset()
}

// Reset terminates the buffer right after the identity prefix.
func (a *Assembler) Reset() {
	a.buf[bodyStart] = 0
	a.n = bodyStart
	a.truncated = false
}

// Assemble builds the packet for a tokenized RMC line and returns its shape.
func (a *Assembler) Assemble(t *nmea.Tokens) Shape {
	a.Reset()
	if nmea.FixValid(t) {
		for i := nmea.FieldTime; i < nmea.FieldSpeed; i++ {
			a.append(t.Field(i))
			a.appendString(",")
		}
		a.append(t.Field(nmea.FieldDate))
		return ShapeFix
	}

	a.appendString("V,")
	for i := nmea.FieldHeader; i <= nmea.FieldStatus; i++ {
		a.append(t.Field(i))
	}
	return ShapeNoFix
}

func (a *Assembler) appendString(s string) {
	if a.truncated {
		return
	}
	room := Capacity - 1 - a.n
	if len(s) > room {
		s = s[:room]
		a.truncated = true
	}
	a.n += copy(a.buf[a.n:], s)
	a.buf[a.n] = 0
}

func (a *Assembler) append(p []byte) {
	if a.truncated {
		return
	}
	room := Capacity - 1 - a.n
	if len(p) > room {
		p = p[:room]
		a.truncated = true
	}
	a.n += copy(a.buf[a.n:], p)
	a.buf[a.n] = 0
}

// Bytes returns the packet up to, not including, its terminator. The slice
// aliases the internal buffer and is only valid until the next Reset.
func (a *Assembler) Bytes() []byte { return a.buf[:a.n] }

// Truncated reports whether the last assembly ran out of room.
func (a *Assembler) Truncated() bool { return a.truncated }

// Buffer exposes the whole packet buffer.
func (a *Assembler) Buffer() *[Capacity]byte { return &a.buf }
