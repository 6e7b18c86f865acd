// Package engine implements playback arbitration: the decision made on
// every trigger about which sounds start, restart, keep playing or get
// stopped, given each source's policy and the current channel
// assignments.
package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/padkit/internal/pool"
	"github.com/zjrosen/padkit/internal/source"
)

// Status classifies the outcome of one trigger.
type Status int

const (
	// StatusStarted means a new assignment was created for the source.
	StatusStarted Status = iota
	// StatusIgnored means the source was already playing and its policy
	// left the running playback untouched.
	StatusIgnored
	// StatusBlocked means an exclusive source refused to start because
	// another source was audible.
	StatusBlocked
	// StatusNoSample means the source has no playable sample bound.
	StatusNoSample
	// StatusDropped means arbitration accepted the trigger but the pool
	// had no free channel.
	StatusDropped
	// StatusError means the trigger failed outright (unknown source or
	// backend failure).
	StatusError
)

// String returns a short lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusIgnored:
		return "ignored"
	case StatusBlocked:
		return "blocked"
	case StatusNoSample:
		return "no-sample"
	case StatusDropped:
		return "dropped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// TriggerEvent is one press-edge notification for one source.
type TriggerEvent struct {
	Source int
	At     time.Time
}

// Result reports what a trigger did. Stopped lists the sources whose
// playback was halted to make room, in no particular order.
type Result struct {
	Source     int
	Status     Status
	Assignment uuid.UUID
	Restarted  bool
	Stopped    []int
	Err        error
}

// SampleStore resolves a source id to its playable sample. A source whose
// asset failed to load resolves to (nil, false).
type SampleStore interface {
	Sample(sourceID int) (pool.Sample, bool)
}

// Engine arbitrates triggers against the registry and the channel pool.
// It must only be entered from a single goroutine; the dispatcher
// guarantees this.
type Engine struct {
	registry *source.Registry
	pool     *pool.Pool
	samples  SampleStore
}

// New creates an engine over the given collaborators.
func New(registry *source.Registry, p *pool.Pool, samples SampleStore) *Engine {
	return &Engine{registry: registry, pool: p, samples: samples}
}

// Trigger runs the arbitration algorithm for one press edge.
//
// Failures are contained: every outcome, including pool exhaustion and a
// missing sample, comes back as a Result for the dispatcher to report.
// Only an unknown source id surfaces as Result.Err.
func (e *Engine) Trigger(ev TriggerEvent) Result {
	res := Result{Source: ev.Source}

	policy, err := e.registry.PolicyFor(ev.Source)
	if err != nil {
		res.Status = StatusError
		res.Err = err
		return res
	}

	sample, ok := e.samples.Sample(ev.Source)
	if !ok {
		res.Status = StatusNoSample
		return res
	}

	// Self-interaction comes first so that a self-restart's freed channel
	// never counts against the pool budget below.
	if e.pool.IsBusy(ev.Source) {
		switch policy.Self {
		case source.SelfIgnore, source.SelfQueue:
			// Queue has no defined queueing semantics and is aliased to
			// ignore.
			res.Status = StatusIgnored
			return res
		case source.SelfRestart:
			e.pool.Stop(ev.Source)
			res.Restarted = true
		}
	}

	switch policy.Mode {
	case source.ModeInterrupt:
		for _, id := range e.pool.BusySources() {
			e.pool.Stop(id)
			res.Stopped = append(res.Stopped, id)
		}
	case source.ModeExclusive:
		if e.pool.AnyBusy() {
			res.Status = StatusBlocked
			return res
		}
	case source.ModeOverlay:
		for _, id := range e.pool.BusyWithLowerPriority(policy.Priority) {
			e.pool.Stop(id)
			res.Stopped = append(res.Stopped, id)
		}
	}

	assignment, err := e.pool.Start(ev.Source, policy.Priority, sample)
	if err != nil {
		if errors.Is(err, pool.ErrNoChannelAvailable) {
			res.Status = StatusDropped
			return res
		}
		res.Status = StatusError
		res.Err = err
		return res
	}
	res.Status = StatusStarted
	res.Assignment = assignment
	return res
}
