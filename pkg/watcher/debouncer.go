package watcher

import (
	"context"
	"sort"
	"time"

	"vaultgraph/pkg/ingest"
	"vaultgraph/pkg/logging"
)

// Debouncer coalesces rapid changes to the same file so ingestion sees one
// event per path per burst. The newest event for a path supersedes earlier
// ones; flushed events come out in path order, one at a time, preserving the
// serialized-delivery contract of the ingestion loop.
type Debouncer struct {
	input       <-chan Change
	output      chan Change
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer.
func NewDebouncer(input <-chan Change, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan Change, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
		pending      = make(map[string]Change) // path -> latest event
	)

	timerC := func(t *time.Timer) <-chan time.Time {
		if t != nil {
			return t.C
		}
		return nil
	}

	flush := func() {
		if len(pending) == 0 {
			return
		}
		logging.Debug("flushing debounced events", "count", len(pending))

		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			d.output <- pending[p]
		}

		pending = make(map[string]Change)
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			// A newer event for the same path supersedes the pending one,
			// except that Added followed by Changed still reads as Added for
			// a graph that has not seen the file yet.
			if prev, exists := pending[event.Path]; exists &&
				prev.Type == ingest.EventAdded && event.Type == ingest.EventChanged {
				event.Type = prev.Type
			}
			pending[event.Path] = event

			if timer == nil {
				timer = time.NewTimer(d.quietPeriod)
			} else {
				timer.Reset(d.quietPeriod)
			}
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(d.maxWait)
			}

		case <-timerC(timer):
			flush()

		case <-timerC(maxWaitTimer):
			flush()
		}
	}
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan Change {
	return d.output
}
