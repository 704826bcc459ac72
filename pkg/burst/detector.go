package burst

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/sensorlog/pkg/event"
)

// group is the private state of one window during a pass.
type group struct {
	key      GroupKey
	window   *Window
	triggers []Trigger
}

// Detector finds burst starts in a chronologically ordered event sequence.
//
// Events are fed one at a time with Process and the findings collected with
// Finalize, or all at once with Detect. A Detector is not safe for concurrent
// use; with WithParallel, Detect runs each group in its own goroutine, each
// owning its window.
type Detector struct {
	maxQueueSize int
	interval     time.Duration
	mode         GroupMode
	parallel     bool
	logger       zerolog.Logger

	// State
	groups    map[GroupKey]*group
	order     []*group
	processed int
}

// Option configures a Detector.
type Option func(*Detector)

// WithMaxQueueSize sets the number of deltas a window holds.
func WithMaxQueueSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxQueueSize = n
		}
	}
}

// WithInterval sets the span below which a full window is a burst.
func WithInterval(interval time.Duration) Option {
	return func(d *Detector) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithGroupMode selects one global window or one per client address.
func WithGroupMode(mode GroupMode) Option {
	return func(d *Detector) {
		d.mode = mode
	}
}

// WithParallel runs each group's window in its own goroutine in Detect.
func WithParallel(p bool) Option {
	return func(d *Detector) {
		d.parallel = p
	}
}

// WithLogger sets the logger for trigger messages.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// NewDetector creates a burst detector.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		maxQueueSize: DefaultMaxQueueSize,
		interval:     DefaultInterval,
		mode:         GroupAll,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Reset()
	return d
}

// Mode returns the grouping mode.
func (d *Detector) Mode() GroupMode {
	return d.mode
}

// Process adds one event to its group's window. The event must carry a
// complete start timestamp; anything else is an error.
func (d *Detector) Process(ctx context.Context, ev *event.Event) error {
	ts, err := ev.StartTime()
	if err != nil {
		return fmt.Errorf("burst detection: %w", err)
	}

	d.processed++

	key := keyFor(d.mode, ev)
	g, ok := d.groups[key]
	if !ok {
		g = &group{key: key, window: NewWindow(d.maxQueueSize, d.interval)}
		d.groups[key] = g
		d.order = append(d.order, g)
	}

	d.add(g, ev, ts)
	return nil
}

func (d *Detector) add(g *group, ev *event.Event, ts time.Time) {
	span := g.window.Sum()
	if trig := g.window.Add(ev, ts); trig != nil {
		g.triggers = append(g.triggers, Trigger{Event: trig, Group: g.key, Span: span})
		d.logger.Debug().
			Str("group", g.key.String()).
			Str("id", trig.Key()).
			Dur("span", span).
			Msgf("%d events in less than %s", d.maxQueueSize, d.interval)
	}
}

// Finalize returns the triggers collected since the last Reset.
func (d *Detector) Finalize(ctx context.Context) (*Result, error) {
	result := &Result{
		Triggers:        make([]Trigger, 0),
		Groups:          len(d.order),
		EventsProcessed: d.processed,
	}
	for _, g := range d.order {
		result.Triggers = append(result.Triggers, g.triggers...)
	}
	return result, nil
}

// Reset clears all windows.
func (d *Detector) Reset() {
	d.groups = make(map[GroupKey]*group)
	d.order = nil
	d.processed = 0
}

// Detect runs a full pass over events and returns the burst starts. Any
// previous state is discarded.
func (d *Detector) Detect(ctx context.Context, events []*event.Event) (*Result, error) {
	d.Reset()

	if d.parallel {
		return d.detectParallel(ctx, events)
	}

	for _, ev := range events {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := d.Process(ctx, ev); err != nil {
			return nil, err
		}
	}

	return d.Finalize(ctx)
}

// detectParallel partitions events by group in first-seen order and runs
// each group's window independently.
func (d *Detector) detectParallel(ctx context.Context, events []*event.Event) (*Result, error) {
	var members [][]*event.Event
	index := make(map[GroupKey]int)

	for _, ev := range events {
		key := keyFor(d.mode, ev)
		i, ok := index[key]
		if !ok {
			i = len(d.order)
			index[key] = i
			g := &group{key: key, window: NewWindow(d.maxQueueSize, d.interval)}
			d.groups[key] = g
			d.order = append(d.order, g)
			members = append(members, nil)
		}
		members[i] = append(members[i], ev)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, grp := range d.order {
		i, grp := i, grp
		g.Go(func() error {
			for _, ev := range members[i] {
				if err := gctx.Err(); err != nil {
					return err
				}
				ts, err := ev.StartTime()
				if err != nil {
					return fmt.Errorf("burst detection: %w", err)
				}
				d.add(grp, ev, ts)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.processed = len(events)
	return d.Finalize(ctx)
}
