// Package source defines per-source playback policy and the registry that
// holds it. A source is one logical sound bound to one physical trigger;
// its policy says how a fresh trigger interacts with its own playback and
// with every other source that is currently audible.
package source

import "fmt"

// InteractionMode is the policy for how a newly triggered source affects
// other currently playing sources.
type InteractionMode int

const (
	// ModeInterrupt stops everything else before starting.
	ModeInterrupt InteractionMode = iota
	// ModeOverlay plays alongside equal-or-higher priority sources and
	// stops strictly lower priority ones.
	ModeOverlay
	// ModeExclusive refuses to start while anything else is playing.
	ModeExclusive
)

// String returns the configuration spelling of the mode.
func (m InteractionMode) String() string {
	switch m {
	case ModeInterrupt:
		return "interrupt"
	case ModeOverlay:
		return "overlay"
	case ModeExclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// ParseInteractionMode converts a configuration string into an
// InteractionMode.
func ParseInteractionMode(s string) (InteractionMode, error) {
	switch s {
	case "interrupt":
		return ModeInterrupt, nil
	case "overlay":
		return ModeOverlay, nil
	case "exclusive":
		return ModeExclusive, nil
	default:
		return 0, fmt.Errorf("unknown interaction mode %q", s)
	}
}

// SelfBehavior is the policy for how a source reacts to being triggered
// while it is already playing.
type SelfBehavior int

const (
	// SelfIgnore leaves the running playback untouched.
	SelfIgnore SelfBehavior = iota
	// SelfRestart stops the running playback and starts over.
	SelfRestart
	// SelfQueue is accepted in configuration but currently behaves like
	// SelfIgnore; no queueing semantics are defined.
	SelfQueue
)

// String returns the configuration spelling of the behavior.
func (b SelfBehavior) String() string {
	switch b {
	case SelfIgnore:
		return "ignore"
	case SelfRestart:
		return "restart"
	case SelfQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// ParseSelfBehavior converts a configuration string into a SelfBehavior.
func ParseSelfBehavior(s string) (SelfBehavior, error) {
	switch s {
	case "ignore":
		return SelfIgnore, nil
	case "restart":
		return SelfRestart, nil
	case "queue":
		return SelfQueue, nil
	default:
		return 0, fmt.Errorf("unknown self behavior %q", s)
	}
}

// Source holds one source's identity and immutable policy.
type Source struct {
	ID        int
	Name      string
	Mode      InteractionMode
	Self      SelfBehavior
	Priority  int
	SoundFile string
}

// DefaultPolicy is applied to any source missing from the configured
// policy table: overlay, restart, priority 1.
func DefaultPolicy(id int, name, soundFile string) Source {
	return Source{
		ID:        id,
		Name:      name,
		Mode:      ModeOverlay,
		Self:      SelfRestart,
		Priority:  1,
		SoundFile: soundFile,
	}
}
