package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"github.com/lestrrat-go/strftime"
	"github.com/pkg/errors"
	"github.com/tzneal/coordconv"

	"gpsbeacon/internal/packet"
)

// mgrsPrecision is 1 m.
const mgrsPrecision = 5

func mgrs(latDeg, lonDeg float64) (string, error) {
	ll := s2.LatLngFromDegrees(latDeg, lonDeg)
	c, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(ll, mgrsPrecision)
	if err != nil {
		return "", errors.Wrap(err, "mgrs")
	}
	return strings.ReplaceAll(fmt.Sprint(c), " ", ""), nil
}

// formatReport renders one line of the fix log.
func formatReport(now time.Time, from byte, r packet.Report) string {
	ts := now.UTC().Format(time.RFC3339)
	if !r.Valid {
		return fmt.Sprintf("%s from=0x%02X station=%q status=V detail=%q", ts, from, r.Station, r.Detail)
	}
	fix := r.UTC + " " + r.Date
	if !r.At.IsZero() {
		fix = r.At.Format(time.RFC3339)
	}
	if !r.PositionOK {
		return fmt.Sprintf("%s from=0x%02X station=%q status=%s fix=%s lat=%s%s lon=%s%s",
			ts, from, r.Station, r.Status, fix, r.Lat, r.NS, r.Lon, r.EW)
	}
	grid, err := mgrs(r.LatDeg, r.LonDeg)
	if err != nil {
		grid = "-"
	}
	return fmt.Sprintf("%s from=0x%02X station=%q status=%s fix=%s lat=%.6f lon=%.6f mgrs=%s",
		ts, from, r.Station, r.Status, fix, r.LatDeg, r.LonDeg, grid)
}

// fixLog appends lines to a file whose name is a strftime pattern, so
// "fixes-%Y%m%d.log" rolls over daily.
type fixLog struct {
	dir     string
	pattern *strftime.Strftime
	name    string
	f       *os.File
}

func newFixLog(dir, pattern string) (*fixLog, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "log pattern %q", pattern)
	}
	return &fixLog{dir: dir, pattern: p}, nil
}

func (l *fixLog) Append(now time.Time, line string) error {
	name := filepath.Join(l.dir, l.pattern.FormatString(now.UTC()))
	if name != l.name {
		if err := l.Close(); err != nil {
			return err
		}
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "open fix log")
		}
		l.f, l.name = f, name
	}
	_, err := fmt.Fprintln(l.f, line)
	return err
}

func (l *fixLog) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f, l.name = nil, ""
	return err
}
