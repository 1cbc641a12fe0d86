package gnss

import (
	"io"

	"github.com/pkg/errors"
)

const (
	// OutputSelection enables RMC only, once per fix.
	//
	//	field:  GLL RMC VTG GGA GSA GSV GRS GST ... ZDA MCHN DTM
	OutputSelection = "$PMTK314,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0*29\r\n"

	// FixInterval sets one fix every 10000 ms.
	FixInterval = "$PMTK220,10000*2F\r\n"

	// DefaultRepeats is how often each sentence is sent to survive line noise.
	DefaultRepeats = 3
)

// Sentences are the startup configuration, in the order they are written.
var Sentences = []string{OutputSelection, FixInterval}

// Configure writes each configuration sentence repeats times.
func Configure(w io.Writer, repeats int) error {
	if repeats <= 0 {
		repeats = DefaultRepeats
	}
	for _, s := range Sentences {
		for i := 0; i < repeats; i++ {
			if _, err := io.WriteString(w, s); err != nil {
				return errors.Wrapf(err, "gnss configure %q", s[:8])
			}
		}
	}
	return nil
}
