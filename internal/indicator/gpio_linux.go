//go:build linux

package indicator

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// openLine requests the LED as an output, initially low, using the Linux
// GPIO character device. An empty chip searches every /dev/gpiochip*.
func openLine(chipName, lineName string) (Line, error) {
	if lineName == "" {
		return nil, errors.New("indicator: gpio line is empty")
	}

	chipCandidates := []string{}
	if chipName != "" {
		chipCandidates = append(chipCandidates, chipName)
	} else {
		entries, _ := os.ReadDir("/dev")
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "gpiochip") {
				chipCandidates = append(chipCandidates, filepath.Join("/dev", e.Name()))
			}
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := strconv.Atoi(lineName)
		if err != nil {
			offset, err = chip.FindLine(lineName)
		}
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("gpsbeacon-led"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodLine{chip: chip, line: line}, nil
	}

	return nil, errors.Errorf("indicator: gpio line %q not found (or busy)", lineName)
}

var openLineFn = openLine

type gpiodLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodLine) SetValue(v int) error {
	if g.line == nil {
		return errors.New("indicator: gpio line closed")
	}
	return g.line.SetValue(v)
}

func (g *gpiodLine) Close() error {
	if g.line == nil {
		return nil
	}
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
