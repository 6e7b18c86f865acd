package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/padkit/internal/engine"
	"github.com/zjrosen/padkit/internal/input"
	"github.com/zjrosen/padkit/internal/pubsub"
)

// recordingEngine records every trigger it receives.
type recordingEngine struct {
	mu       sync.Mutex
	triggers []int
	result   engine.Result
}

func (e *recordingEngine) Trigger(ev engine.TriggerEvent) engine.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.triggers = append(e.triggers, ev.Source)
	res := e.result
	res.Source = ev.Source
	return res
}

func (e *recordingEngine) seen() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.triggers...)
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestDispatcher(t *testing.T, cfg Config) *Dispatcher {
	t.Helper()
	if cfg.Engine == nil {
		cfg.Engine = &recordingEngine{}
	}
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestScan_OneTriggerPerPressEdge(t *testing.T) {
	line := input.NewFakeLine("btn0")
	eng := &recordingEngine{}
	d := newTestDispatcher(t, Config{Lines: []input.Line{line}, Engine: eng})

	ctx := context.Background()

	// Released line: no triggers however often we scan.
	d.scan(ctx)
	d.scan(ctx)
	require.Empty(t, eng.seen())

	// Press: exactly one trigger on the edge, none while held.
	line.Press()
	d.scan(ctx)
	d.scan(ctx)
	d.scan(ctx)
	require.Equal(t, []int{0}, eng.seen())

	// Release produces nothing; the next press fires again.
	line.Release()
	d.scan(ctx)
	require.Equal(t, []int{0}, eng.seen())

	line.Press()
	d.scan(ctx)
	require.Equal(t, []int{0, 0}, eng.seen())
}

func TestScan_MultipleLines(t *testing.T) {
	lines := []*input.FakeLine{
		input.NewFakeLine("btn0"),
		input.NewFakeLine("btn1"),
		input.NewFakeLine("btn2"),
	}
	eng := &recordingEngine{}
	d := newTestDispatcher(t, Config{
		Lines:  []input.Line{lines[0], lines[1], lines[2]},
		Engine: eng,
	})

	lines[1].Press()
	lines[2].Press()
	d.scan(context.Background())
	require.Equal(t, []int{1, 2}, eng.seen())
}

func TestScan_LineErrorSkipsLine(t *testing.T) {
	bad := input.NewFakeLine("bad")
	bad.Fail(errors.New("gpio gone"))
	good := input.NewFakeLine("good")
	good.Press()

	eng := &recordingEngine{}
	d := newTestDispatcher(t, Config{Lines: []input.Line{bad, good}, Engine: eng})

	d.scan(context.Background())
	require.Equal(t, []int{1}, eng.seen())
}

func TestInject_SerializedThroughLoop(t *testing.T) {
	eng := &recordingEngine{}
	broker := pubsub.NewBroker[Event]()
	defer broker.Close()
	events := broker.Subscribe()

	d := newTestDispatcher(t, Config{
		Engine:       eng,
		Broker:       broker,
		PollInterval: time.Millisecond,
	})

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	require.True(t, d.Inject(3))

	select {
	case ev := <-events:
		require.Equal(t, 3, ev.Result.Source)
		require.Equal(t, OriginInject, ev.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published for injected trigger")
	}
	require.Equal(t, []int{3}, eng.seen())
}

func TestStartStop_Idempotent(t *testing.T) {
	d := newTestDispatcher(t, Config{PollInterval: time.Millisecond, Engine: &recordingEngine{}})

	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	require.NoError(t, d.Start(ctx)) // second start is a no-op

	d.Stop()
	d.Stop() // second stop is a no-op
}

func TestEventTimestampUsesClock(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	broker := pubsub.NewBroker[Event]()
	defer broker.Close()
	events := broker.Subscribe()

	d := newTestDispatcher(t, Config{
		Engine: &recordingEngine{},
		Broker: broker,
		Clock:  fixedClock{at: at},
	})

	line := input.NewFakeLine("btn0")
	d.lines = []input.Line{line}
	d.pressed = make([]bool, 1)

	line.Press()
	d.scan(context.Background())

	select {
	case ev := <-events:
		require.Equal(t, at, ev.At)
		require.Equal(t, OriginGPIO, ev.Origin)
	default:
		t.Fatal("expected a published event")
	}
}

type fakeSnapshotter struct{ busy []int }

func (s fakeSnapshotter) BusySources() []int { return s.busy }

func TestBusySources_ThroughLoop(t *testing.T) {
	d := newTestDispatcher(t, Config{
		Engine:       &recordingEngine{},
		PollInterval: time.Millisecond,
		Pool:         fakeSnapshotter{busy: []int{0, 2}},
	})

	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.ElementsMatch(t, []int{0, 2}, d.BusySources(ctx))
}

func TestBusySources_TimesOutWhenStopped(t *testing.T) {
	d := newTestDispatcher(t, Config{Engine: &recordingEngine{}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Nil(t, d.BusySources(ctx))
}

func TestReport_ThrottlesRepeatedWarnings(t *testing.T) {
	d := newTestDispatcher(t, Config{
		Engine:    &recordingEngine{},
		ReportTTL: time.Minute,
	})

	res := engine.Result{Source: 1, Status: engine.StatusNoSample}
	d.report(res)
	_, seen := d.reported.Get("1/no-sample")
	require.True(t, seen, "first warning should prime the throttle")

	// A different source or status throttles independently.
	d.report(engine.Result{Source: 2, Status: engine.StatusDropped})
	_, seen = d.reported.Get("2/dropped")
	require.True(t, seen)
}
