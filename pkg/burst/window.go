package burst

import (
	"time"

	"github.com/ccollicutt/sensorlog/pkg/event"
)

// Window tracks the most recent inter-arrival deltas of one group.
//
// Deltas live in a fixed-capacity ring with a running sum. Durations are
// integer nanoseconds, so the sum is exact and needs no drift correction.
type Window struct {
	deltas   []time.Duration
	head     int // index of the oldest delta
	size     int
	sum      time.Duration
	interval time.Duration

	inBurst  bool
	last     *event.Event
	lastTime time.Time
}

// NewWindow creates a window holding up to capacity deltas. A burst starts
// when a full window spans strictly less than interval.
func NewWindow(capacity int, interval time.Duration) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		deltas:   make([]time.Duration, capacity),
		interval: interval,
	}
}

// Len returns the number of deltas currently held.
func (w *Window) Len() int {
	return w.size
}

// Full returns true when the window holds its capacity of deltas.
func (w *Window) Full() bool {
	return w.size == len(w.deltas)
}

// Sum returns the total of the held deltas.
func (w *Window) Sum() time.Duration {
	return w.sum
}

// InBurst returns true between a burst trigger and the first full window
// whose span reaches the interval again.
func (w *Window) InBurst() bool {
	return w.inBurst
}

// Last returns the most recent event added.
func (w *Window) Last() *event.Event {
	return w.last
}

// Deltas returns the held deltas, oldest first.
func (w *Window) Deltas() []time.Duration {
	out := make([]time.Duration, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.deltas[(w.head+i)%len(w.deltas)]
	}
	return out
}

// Add records ev, seen at ts. When ev completes a window that begins a new
// burst, Add returns the event preceding ev, which opens the dense run.
// Otherwise it returns nil.
func (w *Window) Add(ev *event.Event, ts time.Time) *event.Event {
	if w.last == nil {
		w.push(0)
		w.last, w.lastTime = ev, ts
		return nil
	}

	var trigger *event.Event
	delta := ts.Sub(w.lastTime)

	if w.Full() {
		if w.sum < w.interval {
			if !w.inBurst {
				trigger = w.last
				w.inBurst = true
			}
		} else {
			w.inBurst = false
		}
		w.popOldest()
	}

	w.push(delta)
	w.last, w.lastTime = ev, ts

	return trigger
}

func (w *Window) push(d time.Duration) {
	w.deltas[(w.head+w.size)%len(w.deltas)] = d
	w.size++
	w.sum += d
}

func (w *Window) popOldest() {
	w.sum -= w.deltas[w.head]
	w.deltas[w.head] = 0
	w.head = (w.head + 1) % len(w.deltas)
	w.size--
}
