//go:build !linux

package input

// OpenLines is unavailable off-Pi.
func OpenLines(pins []int) ([]Line, error) {
	return nil, ErrGPIOUnsupported
}
