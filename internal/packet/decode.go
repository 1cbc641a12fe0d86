package packet

import (
	"bytes"
	"strings"
	"time"

	"github.com/pkg/errors"

	"gpsbeacon/internal/identity"
	"gpsbeacon/internal/nmea"
)

var ErrMalformed = errors.New("packet: malformed")

// Report is a decoded beacon packet.
type Report struct {
	Station string

	// Valid is true for the full fix layout.
	Valid bool

	UTC    string
	Status string
	Lat    string
	NS     string
	Lon    string
	EW     string
	Date   string

	LatDeg     float64
	LonDeg     float64
	PositionOK bool

	// At is the fix time when UTC and Date parse.
	At time.Time

	// Detail is the run-together header/time/status of an invalid-fix report.
	Detail string
}

// Decode parses a received payload.
func Decode(p []byte) (Report, error) {
	p = bytes.TrimRight(p, "\x00")
	if len(p) < bodyStart || p[identity.StationLen] != ',' {
		return Report{}, errors.Wrap(ErrMalformed, "missing station prefix")
	}
	r := Report{Station: strings.TrimRight(string(p[:identity.StationLen]), " ")}
	body := string(p[bodyStart:])

	if strings.HasPrefix(body, "V,") {
		r.Status = "V"
		r.Detail = body[2:]
		return r, nil
	}

	f := strings.Split(body, ",")
	if len(f) != 7 {
		return Report{}, errors.Wrapf(ErrMalformed, "want 7 fields, got %d", len(f))
	}
	r.Valid = true
	r.UTC, r.Status, r.Lat, r.NS, r.Lon, r.EW, r.Date = f[0], f[1], f[2], f[3], f[4], f[5], f[6]

	lat, latOK := nmea.ParseLatLon(r.Lat, r.NS)
	lon, lonOK := nmea.ParseLatLon(r.Lon, r.EW)
	if latOK && lonOK {
		r.LatDeg, r.LonDeg, r.PositionOK = lat, lon, true
	}
	// Fractional seconds after hhmmss are accepted by time.Parse.
	if at, err := time.Parse("020106 150405", r.Date+" "+r.UTC); err == nil {
		r.At = at
	}
	return r, nil
}
