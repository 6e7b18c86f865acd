package source

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSource is returned when a source id outside the configured set
// is looked up. The source set is closed at startup, so hitting this at
// runtime indicates a wiring bug, not bad input.
var ErrUnknownSource = errors.New("unknown source")

// Registry is the immutable policy table, built once at startup.
type Registry struct {
	byID map[int]Source
}

// NewRegistry validates the given sources and builds a registry.
// It rejects duplicate ids, negative ids, negative priorities and
// out-of-range enum values.
func NewRegistry(sources []Source) (*Registry, error) {
	byID := make(map[int]Source, len(sources))
	for _, src := range sources {
		if src.ID < 0 {
			return nil, fmt.Errorf("source %q: id must be non-negative, got %d", src.Name, src.ID)
		}
		if _, dup := byID[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %d", src.ID)
		}
		if src.Priority < 0 {
			return nil, fmt.Errorf("source %d: priority must be non-negative, got %d", src.ID, src.Priority)
		}
		switch src.Mode {
		case ModeInterrupt, ModeOverlay, ModeExclusive:
		default:
			return nil, fmt.Errorf("source %d: invalid interaction mode %d", src.ID, src.Mode)
		}
		switch src.Self {
		case SelfIgnore, SelfRestart, SelfQueue:
		default:
			return nil, fmt.Errorf("source %d: invalid self behavior %d", src.ID, src.Self)
		}
		byID[src.ID] = src
	}
	return &Registry{byID: byID}, nil
}

// PolicyFor returns the policy for the given source id.
func (r *Registry) PolicyFor(id int) (Source, error) {
	src, ok := r.byID[id]
	if !ok {
		return Source{}, fmt.Errorf("%w: %d", ErrUnknownSource, id)
	}
	return src, nil
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.byID)
}

// All returns every registered source ordered by id.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.byID))
	for _, src := range r.byID {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
