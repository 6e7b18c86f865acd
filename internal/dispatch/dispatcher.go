// Package dispatch polls the input lines, edge-detects presses and feeds
// trigger events into the arbitration engine, one at a time. All engine
// and pool state is touched exclusively from the dispatcher goroutine;
// keyboard triggers are serialized through the same loop.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/padkit/internal/engine"
	"github.com/zjrosen/padkit/internal/input"
	"github.com/zjrosen/padkit/internal/log"
	"github.com/zjrosen/padkit/internal/pubsub"
)

// Origin says how a trigger entered the system.
type Origin string

const (
	// OriginGPIO marks a press edge detected on a physical line.
	OriginGPIO Origin = "gpio"
	// OriginInject marks a trigger injected via Inject (keyboard/TUI).
	OriginInject Origin = "inject"
)

// Event is published for every arbitration decision.
type Event struct {
	Result engine.Result
	Origin Origin
	At     time.Time
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Triggerer is the engine surface the dispatcher needs.
type Triggerer interface {
	Trigger(ev engine.TriggerEvent) engine.Result
}

// Snapshotter answers which sources currently hold a live channel.
// Implemented by the channel pool.
type Snapshotter interface {
	BusySources() []int
}

// Config configures a Dispatcher.
type Config struct {
	// Lines are the physical input lines, one per source, indexed by
	// source id. May be empty when running keyboard-only.
	Lines []input.Line

	// Engine arbitrates the triggers.
	Engine Triggerer

	// PollInterval is the line scan cadence. Defaults to 10ms.
	PollInterval time.Duration

	// Broker receives an Event per decision. Optional.
	Broker *pubsub.Broker[Event]

	// ReportTTL suppresses repeated warn-level reports (no-sample,
	// dropped) per source for this long. Defaults to 2s.
	ReportTTL time.Duration

	// Pool, when set, lets observers snapshot the busy sources through
	// the dispatcher goroutine.
	Pool Snapshotter

	// Clock is used for timestamps (for testing). Defaults to time.Now.
	Clock Clock
}

// Dispatcher runs the poll loop.
type Dispatcher struct {
	lines    []input.Line
	engine   Triggerer
	interval time.Duration
	broker   *pubsub.Broker[Event]
	clock    Clock
	tracer   trace.Tracer

	// pressed mirrors the debounced state of each line; true means the
	// line is currently held. A trigger fires only on the press edge.
	pressed []bool

	// reported throttles repeated warn reports per source.
	reported *gocache.Cache

	injectCh chan int
	snapPool Snapshotter
	snapCh   chan chan []int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a dispatcher from the given configuration.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("dispatch: engine is required")
	}
	interval := cfg.PollInterval
	if interval == 0 {
		interval = 10 * time.Millisecond
	}
	ttl := cfg.ReportTTL
	if ttl == 0 {
		ttl = 2 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Dispatcher{
		lines:    cfg.Lines,
		engine:   cfg.Engine,
		interval: interval,
		broker:   cfg.Broker,
		clock:    clock,
		tracer:   otel.Tracer("padkit/dispatch"),
		pressed:  make([]bool, len(cfg.Lines)),
		reported: gocache.New(ttl, 2*ttl),
		injectCh: make(chan int, 16),
		snapPool: cfg.Pool,
		snapCh:   make(chan chan []int),
	}, nil
}

// Start begins the poll loop. Calling Start on a running dispatcher is a
// no-op.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.wg.Add(1)
	go d.loop(ctx)
	return nil
}

// Stop halts the poll loop and waits for it to finish. Safe to call
// multiple times or before Start.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.done == nil {
		d.mu.Unlock()
		return
	}
	d.cancel()
	done := d.done
	d.done = nil
	d.mu.Unlock()

	d.wg.Wait()
	<-done
}

// BusySources asks the dispatcher goroutine for the sources currently
// holding a channel. Returns nil when the dispatcher is not running or
// the context expires first.
func (d *Dispatcher) BusySources(ctx context.Context) []int {
	resp := make(chan []int, 1)
	select {
	case d.snapCh <- resp:
	case <-ctx.Done():
		return nil
	}
	select {
	case out := <-resp:
		return out
	case <-ctx.Done():
		return nil
	}
}

// Inject queues a trigger for the given source as if its button had been
// pressed. The trigger is arbitrated on the dispatcher goroutine, never
// inline. Returns false when the queue is full.
func (d *Dispatcher) Inject(sourceID int) bool {
	select {
	case d.injectCh <- sourceID:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	defer close(done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-d.injectCh:
			d.fire(ctx, id, OriginInject)
		case resp := <-d.snapCh:
			if d.snapPool != nil {
				resp <- d.snapPool.BusySources()
			} else {
				resp <- nil
			}
		case <-ticker.C:
			d.scan(ctx)
		}
	}
}

// scan samples every line once and fires a trigger per press edge.
// Buttons are active-low: pressed reads low.
func (d *Dispatcher) scan(ctx context.Context) {
	for i, line := range d.lines {
		level, err := line.Level()
		if err != nil {
			log.ErrorErr(log.CatInput, "reading line", err, "line", line.Name())
			continue
		}
		pressed := !level
		switch {
		case pressed && !d.pressed[i]:
			d.pressed[i] = true
			log.Debug(log.CatInput, "press edge", "source", i, "line", line.Name())
			d.fire(ctx, i, OriginGPIO)
		case !pressed && d.pressed[i]:
			d.pressed[i] = false
		}
	}
}

func (d *Dispatcher) fire(ctx context.Context, sourceID int, origin Origin) {
	now := d.clock.Now()

	_, span := d.tracer.Start(ctx, "trigger")
	res := d.engine.Trigger(engine.TriggerEvent{Source: sourceID, At: now})
	span.SetAttributes(
		attribute.Int("source", sourceID),
		attribute.String("origin", string(origin)),
		attribute.String("outcome", res.Status.String()),
		attribute.Int("stopped", len(res.Stopped)),
	)
	span.End()

	d.report(res)
	if d.broker != nil {
		d.broker.Publish(Event{Result: res, Origin: origin, At: now})
	}
}

// report logs the decision. Recoverable conditions that tend to repeat
// while a button is mashed (no sample bound, pool exhausted) are
// throttled per source.
func (d *Dispatcher) report(res engine.Result) {
	switch res.Status {
	case engine.StatusStarted:
		log.Info(log.CatEngine, "playback started",
			"source", res.Source, "restarted", res.Restarted, "stopped", res.Stopped)
	case engine.StatusIgnored, engine.StatusBlocked:
		log.Debug(log.CatEngine, "trigger "+res.Status.String(), "source", res.Source)
	case engine.StatusNoSample, engine.StatusDropped:
		key := fmt.Sprintf("%d/%s", res.Source, res.Status)
		if _, seen := d.reported.Get(key); seen {
			return
		}
		d.reported.SetDefault(key, struct{}{})
		log.Warn(log.CatEngine, "trigger "+res.Status.String(), "source", res.Source)
	case engine.StatusError:
		log.ErrorErr(log.CatEngine, "trigger failed", res.Err, "source", res.Source)
	}
}
