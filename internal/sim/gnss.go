package sim

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// GNSS is a simulated serial receiver. It emits one RMC sentence (optionally
// preceded by a GGA) every Interval and swallows whatever is written to it.
type GNSS struct {
	Track    Track
	Interval time.Duration
	// NoFix emits status V sentences with empty position fields.
	NoFix bool
	// Chatter precedes every RMC with a GGA the beacon must filter out.
	Chatter bool
	Talker  string

	Now func() time.Time

	mu      sync.Mutex
	pending []byte
	pos     int
	next    time.Time
	written [][]byte
	closed  bool
}

func (g *GNSS) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *GNSS) interval() time.Duration {
	if g.Interval <= 0 {
		return 10 * time.Second
	}
	return g.Interval
}

// Ready reports whether a sentence is being drained or a new one is due.
func (g *GNSS) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return true
	}
	if g.pos < len(g.pending) {
		return true
	}
	now := g.now()
	if now.Before(g.next) {
		return false
	}
	g.pending = g.pending[:0]
	if g.Chatter {
		g.pending = append(g.pending, g.ggaSentence(now)...)
	}
	g.pending = append(g.pending, g.Sentence(now)...)
	g.pos = 0
	g.next = now.Add(g.interval())
	return true
}

func (g *GNSS) ReadByte() (byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 0, io.EOF
	}
	if g.pos >= len(g.pending) {
		return 0, io.ErrNoProgress
	}
	b := g.pending[g.pos]
	g.pos++
	return b, nil
}

// Write records configuration sent to the receiver.
func (g *GNSS) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.written = append(g.written, append([]byte(nil), p...))
	return len(p), nil
}

// Written returns everything written so far, concatenated.
func (g *GNSS) Written() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var sb strings.Builder
	for _, w := range g.written {
		sb.Write(w)
	}
	return sb.String()
}

func (g *GNSS) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *GNSS) talker() string {
	if g.Talker == "" {
		return "GP"
	}
	return g.Talker
}

// Sentence renders the RMC for now, checksum and CR/LF included.
func (g *GNSS) Sentence(now time.Time) string {
	now = now.UTC()
	utc := now.Format("150405.000")
	date := now.Format("020106")
	var payload string
	if g.NoFix {
		payload = fmt.Sprintf("%sRMC,%s,V,,,,,,,%s,,,N", g.talker(), utc, date)
	} else {
		lat, lon, trk := g.Track.Position(now)
		latS, ns := formatDM(lat, 2, "N", "S")
		lonS, ew := formatDM(lon, 3, "E", "W")
		payload = fmt.Sprintf("%sRMC,%s,A,%s,%s,%s,%s,%.2f,%.2f,%s,,,A",
			g.talker(), utc, latS, ns, lonS, ew, g.Track.GroundKt(), trk, date)
	}
	return fmt.Sprintf("$%s*%s\r\n", payload, nmea.Checksum(payload))
}

func (g *GNSS) ggaSentence(now time.Time) string {
	payload := fmt.Sprintf("%sGGA,%s,,,,,0,00,,,M,,M,,", g.talker(), now.UTC().Format("150405.000"))
	return fmt.Sprintf("$%s*%s\r\n", payload, nmea.Checksum(payload))
}

// formatDM renders decimal degrees as [d]ddmm.mmmm plus hemisphere.
func formatDM(deg float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if deg < 0 {
		hemi = neg
		deg = -deg
	}
	whole := math.Floor(deg)
	mins := (deg - whole) * 60
	if mins >= 59.99995 {
		whole++
		mins = 0
	}
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(whole), mins), hemi
}
