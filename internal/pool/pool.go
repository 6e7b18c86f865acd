// Package pool tracks which sources currently own one of a finite set of
// playback channels. Playback completion is never pushed into the pool;
// it is discovered lazily by polling the Playback handle at the start of
// every query, which keeps all pool mutation on the dispatcher goroutine.
package pool

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoChannelAvailable reports that every channel slot is occupied.
// Pool exhaustion is expected under load and is not fatal.
var ErrNoChannelAvailable = errors.New("no channel available")

// Playback is a handle to one actively emitting channel, implemented by
// the audio backend.
type Playback interface {
	// Active reports whether the channel is still emitting audio.
	Active() bool
	// Stop halts playback immediately. Idempotent.
	Stop()
}

// Sample is a playable audio asset handle.
type Sample interface {
	Play() (Playback, error)
}

type assignment struct {
	id       uuid.UUID
	priority int
	playback Playback
}

// Pool owns the source-to-channel assignment table. It is confined to a
// single goroutine and therefore unlocked.
type Pool struct {
	capacity    int
	assignments map[int]*assignment
}

// New creates a pool with the given channel capacity.
func New(capacity int) *Pool {
	return &Pool{
		capacity:    capacity,
		assignments: make(map[int]*assignment),
	}
}

// reclaim purges the assignment for id if its playback has finished.
func (p *Pool) reclaim(id int) {
	if a, ok := p.assignments[id]; ok && !a.playback.Active() {
		delete(p.assignments, id)
	}
}

// reclaimAll purges every finished assignment.
func (p *Pool) reclaimAll() {
	for id, a := range p.assignments {
		if !a.playback.Active() {
			delete(p.assignments, id)
		}
	}
}

// IsBusy reports whether the source currently owns an emitting channel.
// A finished assignment is purged as a side effect.
func (p *Pool) IsBusy(id int) bool {
	p.reclaim(id)
	_, ok := p.assignments[id]
	return ok
}

// Start acquires a channel for the source by playing the sample and
// recording ownership. Returns the new assignment's id, or
// ErrNoChannelAvailable when the pool is full after reclamation.
func (p *Pool) Start(id, priority int, sample Sample) (uuid.UUID, error) {
	p.reclaimAll()
	if len(p.assignments) >= p.capacity {
		return uuid.Nil, ErrNoChannelAvailable
	}
	pb, err := sample.Play()
	if err != nil {
		return uuid.Nil, err
	}
	a := &assignment{id: uuid.New(), priority: priority, playback: pb}
	p.assignments[id] = a
	return a.id, nil
}

// Stop halts the source's playback and releases its channel. No-op when
// the source holds no assignment.
func (p *Pool) Stop(id int) {
	a, ok := p.assignments[id]
	if !ok {
		return
	}
	a.playback.Stop()
	delete(p.assignments, id)
}

// AnyBusy reports whether at least one assignment is still emitting.
func (p *Pool) AnyBusy() bool {
	p.reclaimAll()
	return len(p.assignments) > 0
}

// BusyWithLowerPriority returns the sources whose priority is strictly
// below threshold, after reclamation. Order is unspecified.
func (p *Pool) BusyWithLowerPriority(threshold int) []int {
	p.reclaimAll()
	var out []int
	for id, a := range p.assignments {
		if a.priority < threshold {
			out = append(out, id)
		}
	}
	return out
}

// BusySources returns every source holding a live assignment, after
// reclamation. Order is unspecified.
func (p *Pool) BusySources() []int {
	p.reclaimAll()
	out := make([]int, 0, len(p.assignments))
	for id := range p.assignments {
		out = append(out, id)
	}
	return out
}

// Assignment returns the assignment id held by the source, if any.
func (p *Pool) Assignment(id int) (uuid.UUID, bool) {
	p.reclaim(id)
	a, ok := p.assignments[id]
	if !ok {
		return uuid.Nil, false
	}
	return a.id, true
}

// Capacity returns the configured channel capacity.
func (p *Pool) Capacity() int {
	return p.capacity
}
