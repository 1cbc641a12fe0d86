//go:build !linux

package indicator

import "github.com/pkg/errors"

func openLine(chipName, lineName string) (Line, error) {
	return nil, errors.New("indicator: gpio unsupported on this platform")
}

var openLineFn = openLine
