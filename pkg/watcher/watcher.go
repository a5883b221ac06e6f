package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"vaultgraph/pkg/ingest"
	"vaultgraph/pkg/logging"
	"vaultgraph/pkg/vault"
)

// Change is one markdown file change observed on disk.
type Change struct {
	Path      string // absolute path
	Type      ingest.EventType
	Timestamp time.Time
}

// VaultWatcher watches a vault directory tree for markdown file changes.
type VaultWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	events  chan Change
}

// NewVaultWatcher creates a new file system watcher for a vault.
func NewVaultWatcher(root string) (*VaultWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &VaultWatcher{
		watcher: w,
		root:    root,
		events:  make(chan Change, 100),
	}, nil
}

// Start begins watching for file changes.
func (vw *VaultWatcher) Start(ctx context.Context) error {
	count := 0
	err := filepath.WalkDir(vw.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip directories we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != vw.root && vault.IsExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := vw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk vault: %w", err)
	}

	logging.Info("started watching vault", "root", vw.root, "directories", count)

	go vw.processEvents(ctx)
	return nil
}

// processEvents filters raw fsnotify events down to markdown changes.
func (vw *VaultWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			vw.watcher.Close()
			close(vw.events)
			return

		case event, ok := <-vw.watcher.Events:
			if !ok {
				return
			}

			// New subdirectories join the watch so nested notes are seen.
			if event.Op.Has(fsnotify.Create) {
				if isDir(event.Name) && !vault.IsExcludedDir(filepath.Base(event.Name)) {
					if err := vw.watcher.Add(event.Name); err != nil {
						logging.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
				continue
			}
			eventType, ok := ClassifyOp(event.Op, event.Name)
			if !ok {
				continue
			}
			vw.events <- Change{
				Path:      event.Name,
				Type:      eventType,
				Timestamp: time.Now(),
			}

		case err, ok := <-vw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of raw (undebounced) changes.
func (vw *VaultWatcher) Events() <-chan Change {
	return vw.events
}

// Stop stops the watcher.
func (vw *VaultWatcher) Stop() error {
	return vw.watcher.Close()
}
