package pool

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakePlayback is a playback handle whose completion the test controls.
type fakePlayback struct {
	active  bool
	stopped bool
}

func (p *fakePlayback) Active() bool { return p.active }
func (p *fakePlayback) Stop()        { p.active = false; p.stopped = true }

// fakeSample hands out fakePlaybacks and counts plays.
type fakeSample struct {
	plays int
	err   error
	last  *fakePlayback
}

func (s *fakeSample) Play() (Playback, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.plays++
	s.last = &fakePlayback{active: true}
	return s.last, nil
}

func TestStartAndIsBusy(t *testing.T) {
	p := New(4)
	sample := &fakeSample{}

	require.False(t, p.IsBusy(0))

	id, err := p.Start(0, 1, sample)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	require.True(t, p.IsBusy(0))
	require.Equal(t, 1, sample.plays)
}

func TestIsBusy_LazyReclamation(t *testing.T) {
	p := New(4)
	sample := &fakeSample{}

	_, err := p.Start(0, 1, sample)
	require.NoError(t, err)

	// Playback finishes naturally; the next query purges the assignment.
	sample.last.active = false
	require.False(t, p.IsBusy(0))
	_, held := p.Assignment(0)
	require.False(t, held)
}

func TestStop_Idempotent(t *testing.T) {
	p := New(4)
	sample := &fakeSample{}

	_, err := p.Start(0, 1, sample)
	require.NoError(t, err)

	p.Stop(0)
	require.True(t, sample.last.stopped)
	require.False(t, p.IsBusy(0))

	// Second stop and stop of a never-started source are no-ops.
	p.Stop(0)
	p.Stop(7)
}

func TestStart_PoolExhaustion(t *testing.T) {
	p := New(2)

	_, err := p.Start(0, 1, &fakeSample{})
	require.NoError(t, err)
	_, err = p.Start(1, 1, &fakeSample{})
	require.NoError(t, err)

	_, err = p.Start(2, 1, &fakeSample{})
	require.ErrorIs(t, err, ErrNoChannelAvailable)

	// Existing assignments are untouched by the failed start.
	require.True(t, p.IsBusy(0))
	require.True(t, p.IsBusy(1))
}

func TestStart_ReclaimsBeforeCountingCapacity(t *testing.T) {
	p := New(1)
	sample := &fakeSample{}

	_, err := p.Start(0, 1, sample)
	require.NoError(t, err)

	// The slot's playback finished; a new start must reclaim it rather
	// than report exhaustion.
	sample.last.active = false
	_, err = p.Start(1, 1, &fakeSample{})
	require.NoError(t, err)
}

func TestStart_PlayError(t *testing.T) {
	p := New(4)
	wantErr := errors.New("device gone")

	_, err := p.Start(0, 1, &fakeSample{err: wantErr})
	require.ErrorIs(t, err, wantErr)
	require.False(t, p.IsBusy(0))
}

func TestAnyBusy(t *testing.T) {
	p := New(4)
	require.False(t, p.AnyBusy())

	sample := &fakeSample{}
	_, err := p.Start(0, 1, sample)
	require.NoError(t, err)
	require.True(t, p.AnyBusy())

	sample.last.active = false
	require.False(t, p.AnyBusy())
}

func TestBusyWithLowerPriority_StrictComparison(t *testing.T) {
	p := New(8)
	samples := map[int]*fakeSample{}
	for id, prio := range map[int]int{0: 1, 1: 3, 2: 3, 3: 5} {
		samples[id] = &fakeSample{}
		_, err := p.Start(id, prio, samples[id])
		require.NoError(t, err)
	}

	// Equal priority is never "lower".
	require.ElementsMatch(t, []int{0}, p.BusyWithLowerPriority(3))
	require.ElementsMatch(t, []int{0, 1, 2}, p.BusyWithLowerPriority(5))
	require.Empty(t, p.BusyWithLowerPriority(0))

	// Finished playbacks drop out of the answer.
	samples[0].last.active = false
	require.Empty(t, p.BusyWithLowerPriority(3))
}

func TestAssignment_NewIDPerStart(t *testing.T) {
	p := New(4)
	sample := &fakeSample{}

	first, err := p.Start(0, 1, sample)
	require.NoError(t, err)

	p.Stop(0)
	second, err := p.Start(0, 1, sample)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	current, ok := p.Assignment(0)
	require.True(t, ok)
	require.Equal(t, second, current)
}

func TestBusySources(t *testing.T) {
	p := New(4)
	a, b := &fakeSample{}, &fakeSample{}
	_, err := p.Start(0, 1, a)
	require.NoError(t, err)
	_, err = p.Start(3, 2, b)
	require.NoError(t, err)

	require.ElementsMatch(t, []int{0, 3}, p.BusySources())

	a.last.active = false
	require.ElementsMatch(t, []int{3}, p.BusySources())
}
