//go:build !linux

package i2c

import "github.com/pkg/errors"

var errUnsupported = errors.New("i2c: i2c-dev requires linux")

type Bus struct{}

type Chip struct{}

func Open(path string) (*Bus, error) { return nil, errUnsupported }

func (b *Bus) Close() error { return nil }

func (b *Bus) Chip(addr uint16) *Chip { return &Chip{} }

func (c *Chip) Write(p []byte) error        { return errUnsupported }
func (c *Chip) WriteRead(w, r []byte) error { return errUnsupported }
