package watcher

import (
	"context"
	"testing"
	"time"

	"vaultgraph/pkg/ingest"
)

func collect(t *testing.T, out <-chan Change, n int) []Change {
	t.Helper()
	var got []Change
	for len(got) < n {
		select {
		case c := <-out:
			got = append(got, c)
		case <-time.After(time.Second):
			t.Fatalf("Timeout after %d of %d events", len(got), n)
		}
	}
	return got
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	input := make(chan Change, 10)
	d := NewDebouncer(input, 20*time.Millisecond, 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Three rapid writes to one file plus one to another.
	input <- Change{Path: "/v/a.md", Type: ingest.EventChanged}
	input <- Change{Path: "/v/b.md", Type: ingest.EventChanged}
	input <- Change{Path: "/v/a.md", Type: ingest.EventChanged}
	input <- Change{Path: "/v/a.md", Type: ingest.EventChanged}

	got := collect(t, d.Output(), 2)
	if got[0].Path != "/v/a.md" || got[1].Path != "/v/b.md" {
		t.Errorf("Expected one event per path in path order, got %v", got)
	}

	select {
	case extra := <-d.Output():
		t.Errorf("Unexpected extra event %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncerKeepsAddedOverChanged(t *testing.T) {
	input := make(chan Change, 10)
	d := NewDebouncer(input, 20*time.Millisecond, 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Create immediately followed by a write must still read as Added, or the
	// graph would see a change for a file it never saw appear.
	input <- Change{Path: "/v/new.md", Type: ingest.EventAdded}
	input <- Change{Path: "/v/new.md", Type: ingest.EventChanged}

	got := collect(t, d.Output(), 1)
	if got[0].Type != ingest.EventAdded {
		t.Errorf("Expected Added, got %v", got[0].Type)
	}
}

func TestDebouncerDeleteSupersedes(t *testing.T) {
	input := make(chan Change, 10)
	d := NewDebouncer(input, 20*time.Millisecond, 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- Change{Path: "/v/doomed.md", Type: ingest.EventChanged}
	input <- Change{Path: "/v/doomed.md", Type: ingest.EventDeleted}

	got := collect(t, d.Output(), 1)
	if got[0].Type != ingest.EventDeleted {
		t.Errorf("Expected Deleted, got %v", got[0].Type)
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan Change, 10)
	d := NewDebouncer(input, time.Hour, time.Hour)

	d.Start(context.Background())

	input <- Change{Path: "/v/a.md", Type: ingest.EventChanged}
	close(input)

	got := collect(t, d.Output(), 1)
	if got[0].Path != "/v/a.md" {
		t.Errorf("Pending events should flush on close, got %v", got)
	}

	if _, ok := <-d.Output(); ok {
		t.Error("Output should be closed after input closes")
	}
}
