package sim

import (
	"io"
	"strings"
	"testing"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bnmea "gpsbeacon/internal/nmea"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func drain(t *testing.T, g *GNSS) string {
	t.Helper()
	var sb strings.Builder
	for g.Ready() {
		b, err := g.ReadByte()
		if err == io.ErrNoProgress {
			break
		}
		require.NoError(t, err)
		sb.WriteByte(b)
		if b == '\n' && !g.pendingLeft() {
			break
		}
	}
	return sb.String()
}

func (g *GNSS) pendingLeft() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos < len(g.pending)
}

func TestGNSS_SentenceParsesAsRMC(t *testing.T) {
	g := &GNSS{Track: Track{CenterLatDeg: 35.5, CenterLonDeg: -78.9, RadiusNm: 1}}
	now := time.Date(2019, 4, 18, 2, 39, 36, 0, time.UTC)

	line := g.Sentence(now)
	require.True(t, strings.HasSuffix(line, "\r\n"))

	s, err := nmea.Parse(strings.TrimSpace(line))
	require.NoError(t, err)
	rmc, ok := s.(nmea.RMC)
	require.True(t, ok)
	assert.Equal(t, "A", rmc.Validity)

	lat, lon, _ := g.Track.Position(now)
	assert.InDelta(t, lat, rmc.Latitude, 1e-5)
	assert.InDelta(t, lon, rmc.Longitude, 1e-5)
}

func TestGNSS_NoFixSentence(t *testing.T) {
	g := &GNSS{NoFix: true, Talker: "GN"}
	line := strings.TrimSpace(g.Sentence(time.Date(2019, 4, 18, 0, 0, 0, 0, time.UTC)))

	assert.True(t, strings.HasPrefix(line, "$GNRMC,000000.000,V,,,,,,,180419,"))

	var tok bnmea.Tokens
	raw := []byte(line)
	bnmea.Tokenize(raw, &tok)
	assert.True(t, bnmea.IsRMC(raw))
	assert.False(t, bnmea.FixValid(&tok))
}

func TestGNSS_EmitsOnInterval(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := &GNSS{Interval: 10 * time.Second, Chatter: true, Now: c.now}

	first := drain(t, g)
	assert.Equal(t, 2, strings.Count(first, "\n"))
	assert.Contains(t, first, "GGA,")
	assert.Contains(t, first, "RMC,")
	assert.False(t, g.Ready(), "nothing due before the interval elapses")

	c.t = c.t.Add(10 * time.Second)
	assert.True(t, g.Ready())
	second := drain(t, g)
	assert.Contains(t, second, "000010.000")
}

func TestGNSS_RecordsConfigurationAndCloses(t *testing.T) {
	g := &GNSS{}
	_, err := g.Write([]byte("$PMTK220,10000*2F\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "$PMTK220,10000*2F\r\n", g.Written())

	require.NoError(t, g.Close())
	assert.True(t, g.Ready())
	_, err = g.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFormatDM(t *testing.T) {
	s, h := formatDM(11.18539, 2, "N", "S")
	assert.Equal(t, "1111.1234", s)
	assert.Equal(t, "N", h)

	s, h = formatDM(-123.7572016667, 3, "E", "W")
	assert.Equal(t, "12345.4321", s)
	assert.Equal(t, "W", h)

	s, _ = formatDM(1.9999999999, 2, "N", "S")
	assert.Equal(t, "0200.0000", s)
}
