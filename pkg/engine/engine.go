// Package engine owns the process-wide graph snapshot. All mutation funnels
// through one mutex: each event is read, computed, and its delta applied
// before the next one is processed, which is the serialization the pure core
// relies on.
package engine

import (
	"context"
	"os"
	"sync"

	"vaultgraph/pkg/delta"
	"vaultgraph/pkg/ingest"
	"vaultgraph/pkg/logging"
	"vaultgraph/pkg/merge"
	"vaultgraph/pkg/model"
	"vaultgraph/pkg/pubsub"
	"vaultgraph/pkg/vault"
	"vaultgraph/pkg/watcher"
)

// Engine holds the current graph and folds deltas into it.
type Engine struct {
	mu        sync.Mutex
	root      string
	graph     *model.Graph
	publisher pubsub.Publisher

	// Applied deltas and their undone counterparts. Pre-images captured in
	// each delta make both directions cheap.
	undoStack []delta.GraphDelta
	redoStack []delta.GraphDelta
}

// New creates an engine for the vault rooted at root. The publisher may be
// nil for headless use.
func New(root string, publisher pubsub.Publisher) *Engine {
	return &Engine{
		root:      root,
		graph:     model.NewGraph(),
		publisher: publisher,
	}
}

// Bootstrap replaces the snapshot with a full batch load of the vault.
func (e *Engine) Bootstrap(maxFiles int) error {
	g, err := vault.Load(e.root, maxFiles)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.graph = g
	e.undoStack = nil
	e.redoStack = nil
	e.mu.Unlock()

	e.publishStatus("ready", "vault loaded")
	return nil
}

// Snapshot returns the current graph. Nodes are treated as immutable, so
// callers may read the returned value freely but must not modify it.
func (e *Engine) Snapshot() *model.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph
}

// ApplyEvent ingests one file event and applies the resulting delta.
func (e *Engine) ApplyEvent(event ingest.FileEvent) (delta.GraphDelta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := ingest.IngestFileEvent(event, e.root, e.graph)
	if err != nil {
		return nil, err
	}
	e.commit(d)
	return d, nil
}

// Merge collapses the selected nodes into one representative node and
// applies the delta.
func (e *Engine) Merge(ids []model.NodeID) delta.GraphDelta {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := merge.ComputeMergeGraphDelta(ids, e.graph)
	e.commit(d)
	return d
}

// Undo reverts the most recent delta. Returns false when there is nothing
// to undo.
func (e *Engine) Undo() (delta.GraphDelta, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.undoStack) == 0 {
		return nil, false
	}
	last := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]

	inv := last.Invert()
	e.graph = delta.Apply(e.graph, inv)
	e.redoStack = append(e.redoStack, last)
	e.publishDelta(inv)
	return inv, true
}

// Redo re-applies the most recently undone delta.
func (e *Engine) Redo() (delta.GraphDelta, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.redoStack) == 0 {
		return nil, false
	}
	last := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]

	e.graph = delta.Apply(e.graph, last)
	e.undoStack = append(e.undoStack, last)
	e.publishDelta(last)
	return last, true
}

// commit applies a delta and records it; callers hold e.mu.
func (e *Engine) commit(d delta.GraphDelta) {
	if len(d) == 0 {
		return
	}
	e.graph = delta.Apply(e.graph, d)
	e.undoStack = append(e.undoStack, d)
	e.redoStack = nil
	e.publishDelta(d)
}

// Run consumes debounced watcher changes until the context ends. It performs
// the file reads itself; the core never does I/O.
func (e *Engine) Run(ctx context.Context, changes <-chan watcher.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			e.handleChange(change)
		}
	}
}

func (e *Engine) handleChange(change watcher.Change) {
	event := ingest.FileEvent{
		AbsolutePath: change.Path,
		Type:         change.Type,
	}

	if change.Type != ingest.EventDeleted {
		content, err := os.ReadFile(change.Path)
		if os.IsNotExist(err) {
			// The file vanished between the event and the read.
			event.Type = ingest.EventDeleted
		} else if err != nil {
			logging.Warn("failed to read changed file", "path", change.Path, "error", err)
			return
		} else {
			event.Content = string(content)
		}
	}

	d, err := e.ApplyEvent(event)
	if err != nil {
		logging.Warn("failed to ingest file event", "path", change.Path, "error", err)
		return
	}
	logging.Info("applied file event", "path", change.Path, "type", string(change.Type), "changes", len(d))
}

func (e *Engine) publishDelta(d delta.GraphDelta) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(pubsub.TopicGraphDelta, "delta", d); err != nil {
		logging.Warn("failed to publish delta", "error", err)
	}
}

func (e *Engine) publishStatus(state, message string) {
	if e.publisher == nil {
		return
	}
	status := pubsub.GraphStatus{State: state, Message: message, Nodes: len(e.Snapshot().Nodes)}
	if err := e.publisher.Publish(pubsub.TopicGraphStatus, state, status); err != nil {
		logging.Warn("failed to publish status", "error", err)
	}
}
