// Package indicator drives the status LED.
package indicator

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBlink is the on (and off) time of a send-failure blink.
const DefaultBlink = 499 * time.Millisecond

// Config selects the LED line. Line is a line name ("GPIO13") or an offset.
type Config struct {
	Enable bool
	Chip   string
	Line   string
}

// Line is a requested digital output.
type Line interface {
	SetValue(v int) error
	Close() error
}

var sleepFn = time.Sleep

// LED blinks an output line. With no line it only logs.
type LED struct {
	line Line
	log  *zap.Logger
}

// New wraps an already requested line. line may be nil.
func New(line Line, log *zap.Logger) *LED {
	if log == nil {
		log = zap.NewNop()
	}
	return &LED{line: line, log: log.With(zap.String("component", "indicator"))}
}

// Open requests the configured line. A disabled indicator is a log-only LED.
func Open(cfg Config, log *zap.Logger) (*LED, error) {
	if !cfg.Enable {
		return New(nil, log), nil
	}
	line, err := openLineFn(strings.TrimSpace(cfg.Chip), strings.TrimSpace(cfg.Line))
	if err != nil {
		return nil, err
	}
	return New(line, log), nil
}

// Blink drives the line high then low, waiting on after each edge.
func (l *LED) Blink(on time.Duration, loops int) {
	l.log.Debug("blink", zap.Duration("on", on), zap.Int("loops", loops))
	for i := 0; i < loops; i++ {
		l.set(1)
		sleepFn(on)
		l.set(0)
		sleepFn(on)
	}
}

func (l *LED) set(v int) {
	if l.line == nil {
		return
	}
	if err := l.line.SetValue(v); err != nil {
		l.log.Warn("led set failed", zap.Int("value", v), zap.Error(err))
	}
}

func (l *LED) Close() error {
	if l == nil || l.line == nil {
		return nil
	}
	_ = l.line.SetValue(0)
	err := l.line.Close()
	l.line = nil
	return err
}
