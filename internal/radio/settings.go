package radio

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// MaxMessageLen is the largest payload one frame can carry.
	MaxMessageLen = 60

	// BroadcastAddress reaches every node and is never acknowledged.
	BroadcastAddress = 0xFF

	DefaultFrequencyMHz = 433.0
	DefaultTxPowerDBm   = 20
)

// DefaultSyncWords are the RFM69 power-on sync words.
var DefaultSyncWords = [2]byte{0x2D, 0xD4}

// Settings is the one-time radio configuration.
type Settings struct {
	FrequencyMHz float64
	TxPowerDBm   int
	// HighPower must be set for RFM69HW/HCW modules.
	HighPower bool
	SyncWords [2]byte
	Address   byte
}

type band struct{ lo, hi float64 }

var bands = []band{{290, 340}, {424, 510}, {862, 1020}}

// Validate checks the settings against what an RFM69 accepts.
func (s Settings) Validate() error {
	inBand := false
	for _, b := range bands {
		if s.FrequencyMHz >= b.lo && s.FrequencyMHz <= b.hi {
			inBand = true
			break
		}
	}
	if !inBand {
		return errors.Errorf("radio: frequency %.3f MHz outside RFM69 bands", s.FrequencyMHz)
	}
	lo, hi := -18, 13
	if s.HighPower {
		lo, hi = -2, 20
	}
	if s.TxPowerDBm < lo || s.TxPowerDBm > hi {
		return errors.Errorf("radio: tx power %d dBm outside %d..%d (high_power=%v)", s.TxPowerDBm, lo, hi, s.HighPower)
	}
	if s.Address == BroadcastAddress {
		return errors.New("radio: node address 0xFF is reserved for broadcast")
	}
	return nil
}

func (s Settings) String() string {
	return fmt.Sprintf("%.1fMHz %ddBm hp=%v sync=0x%02X,0x%02X addr=0x%02X",
		s.FrequencyMHz, s.TxPowerDBm, s.HighPower, s.SyncWords[0], s.SyncWords[1], s.Address)
}
