package packet

import (
	"fmt"
	"testing"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpsbeacon/internal/nmea"
)

func checksummed(payload string) string {
	return fmt.Sprintf("$%s*%s", payload, gonmea.Checksum(payload))
}

func TestDecode_ValidFix(t *testing.T) {
	r, err := Decode([]byte("W1ABC ,023936.000,A,1111.1234,N,12345.4321,W,180419"))
	require.NoError(t, err)
	assert.Equal(t, "W1ABC", r.Station)
	assert.True(t, r.Valid)
	assert.Equal(t, "A", r.Status)
	assert.True(t, r.PositionOK)
	assert.InDelta(t, 11.185390, r.LatDeg, 1e-6)
	assert.InDelta(t, -123.757202, r.LonDeg, 1e-6)
	assert.Equal(t, time.Date(2019, 4, 18, 2, 39, 36, 0, time.UTC), r.At)
}

func TestDecode_InvalidFix(t *testing.T) {
	r, err := Decode([]byte("W1ABC ,V,$GPRMC000000.000V\x00"))
	require.NoError(t, err)
	assert.False(t, r.Valid)
	assert.Equal(t, "V", r.Status)
	assert.Equal(t, "$GPRMC000000.000V", r.Detail)
}

func TestDecode_Malformed(t *testing.T) {
	for _, p := range []string{"", "W1ABC", "W1ABC x", "W1ABC ,1,2,3"} {
		_, err := Decode([]byte(p))
		assert.ErrorIs(t, err, ErrMalformed, p)
	}
}

// The fields picked by the assembler must agree with an independent RMC parser.
func TestAssembleDecode_AgreesWithGoNMEA(t *testing.T) {
	line := checksummed("GPRMC,094330.000,A,3113.3156,N,12121.2686,E,0.51,193.93,171210,,,A")
	sent, err := gonmea.Parse(line)
	require.NoError(t, err)
	rmc, ok := sent.(gonmea.RMC)
	require.True(t, ok)

	var a Assembler
	a.SetIdentity(w1abc(t))
	var tok nmea.Tokens
	nmea.Tokenize([]byte(line), &tok)
	require.Equal(t, ShapeFix, a.Assemble(&tok))

	r, err := Decode(a.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rmc.Validity, r.Status)
	assert.InDelta(t, rmc.Latitude, r.LatDeg, 1e-9)
	assert.InDelta(t, rmc.Longitude, r.LonDeg, 1e-9)
	assert.Equal(t, "171210", r.Date)
}
