package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/zjrosen/padkit/internal/log"
	"github.com/zjrosen/padkit/internal/pool"
	"github.com/zjrosen/padkit/internal/sound"
	srcpkg "github.com/zjrosen/padkit/internal/source"
)

// Library resolves source ids to loaded samples. A source whose file
// failed to load simply resolves to nothing; the rest of the system keeps
// running. The mutex exists only for hot reload, which swaps one sample
// binding at a time; pool and engine state are never touched here.
type Library struct {
	dir    string
	format beep.Format

	mu      sync.RWMutex
	samples map[int]*Sample
	files   map[string][]int // file base name -> source ids bound to it
}

// NewLibrary loads a sample for every registered source from dir,
// falling back to the embedded tones for missing files. The sounds
// directory is created when absent, matching the behavior users expect
// on first run.
func NewLibrary(dir string, sources []srcpkg.Source, format beep.Format) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sounds directory: %w", err)
	}

	l := &Library{
		dir:     dir,
		format:  format,
		samples: make(map[int]*Sample, len(sources)),
		files:   make(map[string][]int, len(sources)),
	}
	for _, src := range sources {
		if src.SoundFile == "" {
			log.Warn(log.CatAudio, "source has no sound file configured", "source", src.ID)
			continue
		}
		l.files[src.SoundFile] = append(l.files[src.SoundFile], src.ID)
		l.load(src.ID, src.SoundFile)
	}
	return l, nil
}

// load decodes one source's sample from disk, or from the embedded
// fallback when the file is absent or unreadable. On total failure the
// source is left unbound.
func (l *Library) load(sourceID int, file string) {
	path := filepath.Join(l.dir, file)
	f, err := os.Open(path)
	if err == nil {
		sample, derr := DecodeSample(file, f, l.format)
		if derr == nil {
			l.mu.Lock()
			l.samples[sourceID] = sample
			l.mu.Unlock()
			log.Info(log.CatAudio, "loaded sample", "source", sourceID, "file", file)
			return
		}
		log.ErrorErr(log.CatAudio, "decoding sample", derr, "source", sourceID, "file", file)
	} else {
		log.Warn(log.CatAudio, "sound file not found, using embedded tone",
			"source", sourceID, "file", file)
	}

	fb, err := sound.Fallback(sourceID)
	if err != nil {
		log.ErrorErr(log.CatAudio, "opening fallback tone", err, "source", sourceID)
		return
	}
	sample, err := DecodeSample(fmt.Sprintf("fallback-%d", sourceID), fb, l.format)
	if err != nil {
		log.ErrorErr(log.CatAudio, "decoding fallback tone", err, "source", sourceID)
		return
	}
	l.mu.Lock()
	l.samples[sourceID] = sample
	l.mu.Unlock()
}

// Sample implements engine.SampleStore.
func (l *Library) Sample(sourceID int) (pool.Sample, bool) {
	l.mu.RLock()
	s, ok := l.samples[sourceID]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s, true
}

// Loaded reports whether the source has a playable sample bound.
func (l *Library) Loaded(sourceID int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.samples[sourceID]
	return ok
}

// Dir returns the sounds directory the library loads from.
func (l *Library) Dir() string { return l.dir }

// ReloadFile re-decodes the given file (base name) for every source bound
// to it. Called by the directory watcher after a file changes.
func (l *Library) ReloadFile(file string) {
	l.mu.RLock()
	ids := l.files[file]
	l.mu.RUnlock()
	for _, id := range ids {
		l.load(id, file)
	}
}
