// Package input abstracts the physical trigger lines. Buttons are wired
// between a GPIO pin and ground with the pull-up enabled, so a pressed
// button reads low.
package input

import "errors"

// ErrGPIOUnsupported is returned by OpenLines on platforms without GPIO
// access; the keyboard mode is the fallback there.
var ErrGPIOUnsupported = errors.New("gpio input is only supported on linux")

// Line is one digital input line sampled by the dispatcher each tick.
type Line interface {
	// Level reports the current electrical level: true is high
	// (released under active-low wiring), false is low (pressed).
	Level() (bool, error)
	// Name identifies the line for logging.
	Name() string
	// Close releases the underlying pin.
	Close() error
}

// FakeLine is a settable in-memory line for tests and simulators.
type FakeLine struct {
	name  string
	level bool
	err   error
}

// NewFakeLine creates a fake line in the released (high) state.
func NewFakeLine(name string) *FakeLine {
	return &FakeLine{name: name, level: true}
}

// Set drives the line level: true for high (released), false for low
// (pressed).
func (l *FakeLine) Set(level bool) { l.level = level }

// Press drives the line low.
func (l *FakeLine) Press() { l.level = false }

// Release drives the line high.
func (l *FakeLine) Release() { l.level = true }

// Fail makes every subsequent Level call return err.
func (l *FakeLine) Fail(err error) { l.err = err }

// Level implements Line.
func (l *FakeLine) Level() (bool, error) {
	if l.err != nil {
		return true, l.err
	}
	return l.level, nil
}

// Name implements Line.
func (l *FakeLine) Name() string { return l.name }

// Close implements Line.
func (l *FakeLine) Close() error { return nil }
