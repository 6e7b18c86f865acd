package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/padkit/internal/log"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads library samples when their files change on disk, so
// sounds can be dropped into the directory while the player runs.
// Change bursts (editors write in several steps) are debounced per file.
type Watcher struct {
	lib *Library
	fw  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewWatcher starts watching the library's sounds directory.
func NewWatcher(ctx context.Context, lib *Library) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(lib.Dir()); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", lib.Dir(), err)
	}

	w := &Watcher{
		lib:     lib,
		fw:      fw,
		pending: make(map[string]*time.Timer),
	}
	w.wg.Add(1)
	go w.run(ctx)
	return w, nil
}

// Close stops the watcher and cancels pending reloads.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	w.wg.Wait()
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = nil
	w.mu.Unlock()
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if filepath.Ext(ev.Name) != ".wav" {
				continue
			}
			w.schedule(filepath.Base(ev.Name))
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatAudio, "sounds watcher", err)
		}
	}
}

func (w *Watcher) schedule(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return
	}
	if t, ok := w.pending[file]; ok {
		t.Reset(reloadDebounce)
		return
	}
	w.pending[file] = time.AfterFunc(reloadDebounce, func() {
		w.mu.Lock()
		delete(w.pending, file)
		w.mu.Unlock()
		log.Info(log.CatAudio, "reloading changed sound", "file", file)
		w.lib.ReloadFile(file)
	})
}
