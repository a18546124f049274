package osc

import (
	"context"
	"time"
)

// DefaultWindow is the debounce window between movement passes.
const DefaultWindow = 66 * time.Millisecond

// signalBuffer is the capacity of the pending-name channel.
const signalBuffer = 256

// Debouncer batches device-name signals and runs one pass per window.
//
// Names signalled during a window are deduplicated in first-signalled
// order. At the end of the window the batch is dropped when active reports
// false; otherwise pass runs synchronously on the Run goroutine, so passes
// never overlap and a slow pass delays the next window.
type Debouncer struct {
	window  time.Duration
	signals chan string
	done    chan struct{}
	active  func() bool
	pass    func(batch []string)
}

// NewDebouncer creates a debouncer. A window <= 0 uses DefaultWindow.
func NewDebouncer(window time.Duration, active func() bool, pass func(batch []string)) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window:  window,
		signals: make(chan string, signalBuffer),
		done:    make(chan struct{}),
		active:  active,
		pass:    pass,
	}
}

// Signal records that name changed. It blocks only while the buffer is
// full and returns immediately once Run has exited.
func (d *Debouncer) Signal(name string) {
	select {
	case d.signals <- name:
	case <-d.done:
	}
}

// Run processes signals until ctx is cancelled. It must be called once.
func (d *Debouncer) Run(ctx context.Context) error {
	defer close(d.done)

	ticker := time.NewTicker(d.window)
	defer ticker.Stop()

	var batch []string
	seen := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case name := <-d.signals:
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				batch = append(batch, name)
			}

		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			ready := batch
			batch = nil
			clear(seen)

			if !d.active() {
				continue
			}
			d.pass(ready)
		}
	}
}
