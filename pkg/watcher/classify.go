package watcher

import (
	"os"

	"github.com/fsnotify/fsnotify"

	"vaultgraph/pkg/ingest"
)

// ClassifyOp maps an fsnotify operation onto the ingestion event type. The
// second return is false for operations that need no ingestion (chmod).
// Editors that save by rename emit Remove/Rename on a path that still exists
// afterwards; those are reported as Changed rather than Deleted.
func ClassifyOp(op fsnotify.Op, path string) (ingest.EventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ingest.EventAdded, true
	case op.Has(fsnotify.Write):
		return ingest.EventChanged, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		if fileExists(path) {
			return ingest.EventChanged, true
		}
		return ingest.EventDeleted, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
