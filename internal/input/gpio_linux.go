//go:build linux

package input

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/zjrosen/padkit/internal/log"
)

// gpioLine reads one periph.io pin configured as input with pull-up.
type gpioLine struct {
	pin gpio.PinIO
}

// OpenLines initializes the host and opens the given BCM pins as pulled-up
// inputs. On partial failure every already-opened pin is closed.
func OpenLines(pins []int) ([]Line, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing gpio host: %w", err)
	}

	lines := make([]Line, 0, len(pins))
	for _, n := range pins {
		name := fmt.Sprintf("GPIO%d", n)
		pin := gpioreg.ByName(name)
		if pin == nil {
			closeAll(lines)
			return nil, fmt.Errorf("gpio pin %s not found", name)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			closeAll(lines)
			return nil, fmt.Errorf("configuring %s as pulled-up input: %w", name, err)
		}
		log.Debug(log.CatInput, "configured gpio line", "pin", name)
		lines = append(lines, &gpioLine{pin: pin})
	}
	return lines, nil
}

func closeAll(lines []Line) {
	for _, l := range lines {
		_ = l.Close()
	}
}

func (l *gpioLine) Level() (bool, error) {
	return l.pin.Read() == gpio.High, nil
}

func (l *gpioLine) Name() string { return l.pin.Name() }

func (l *gpioLine) Close() error { return l.pin.Halt() }
