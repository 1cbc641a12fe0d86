package indicator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockLine struct {
	values []int
	closed bool
	err    error
}

func (m *mockLine) SetValue(v int) error {
	m.values = append(m.values, v)
	return m.err
}

func (m *mockLine) Close() error {
	m.closed = true
	return nil
}

func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var got []time.Duration
	prev := sleepFn
	sleepFn = func(d time.Duration) { got = append(got, d) }
	t.Cleanup(func() { sleepFn = prev })
	return &got
}

func TestBlink_HighThenLow(t *testing.T) {
	sleeps := recordSleeps(t)
	line := &mockLine{}
	led := New(line, nil)

	led.Blink(DefaultBlink, 1)
	assert.Equal(t, []int{1, 0}, line.values)
	assert.Equal(t, []time.Duration{DefaultBlink, DefaultBlink}, *sleeps)
}

func TestBlink_NoLineStillWaits(t *testing.T) {
	sleeps := recordSleeps(t)
	led := New(nil, nil)
	led.Blink(10*time.Millisecond, 2)
	assert.Len(t, *sleeps, 4)
	assert.NoError(t, led.Close())
}

func TestBlink_LogsSetFailure(t *testing.T) {
	recordSleeps(t)
	core, logs := observer.New(zap.WarnLevel)
	led := New(&mockLine{err: errors.New("ebusy")}, zap.New(core))

	led.Blink(time.Millisecond, 1)
	assert.Equal(t, 2, logs.FilterMessage("led set failed").Len())
}

func TestOpen_DisabledIsLogOnly(t *testing.T) {
	led, err := Open(Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, led.line)
}

func TestOpen_UsesLineOpener(t *testing.T) {
	prev := openLineFn
	t.Cleanup(func() { openLineFn = prev })

	line := &mockLine{}
	var gotChip, gotLine string
	openLineFn = func(chip, name string) (Line, error) {
		gotChip, gotLine = chip, name
		return line, nil
	}

	led, err := Open(Config{Enable: true, Chip: " gpiochip0 ", Line: "GPIO13"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpiochip0", gotChip)
	assert.Equal(t, "GPIO13", gotLine)

	require.NoError(t, led.Close())
	assert.True(t, line.closed)
	assert.Equal(t, []int{0}, line.values)
}
