// Package sound carries the embedded fallback tones used when a
// configured sound file is missing from the sounds directory. Each tone
// is a short sine blip so every button stays audible out of the box.
package sound

import (
	"embed"
	"fmt"
	"io"
)

//go:embed sounds/*.wav
var soundFiles embed.FS

// fallbackCount is the number of embedded tones; fallbacks cycle when
// there are more sources than tones.
const fallbackCount = 5

// Fallback opens the embedded tone for the given source id.
func Fallback(sourceID int) (io.ReadCloser, error) {
	if sourceID < 0 {
		return nil, fmt.Errorf("invalid source id %d", sourceID)
	}
	name := fmt.Sprintf("sounds/tone%d.wav", sourceID%fallbackCount+1)
	f, err := soundFiles.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening embedded tone: %w", err)
	}
	return f, nil
}
