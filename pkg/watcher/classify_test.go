package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"vaultgraph/pkg/ingest"
)

func TestClassifyOp(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.md")

	tests := []struct {
		name     string
		op       fsnotify.Op
		path     string
		want     ingest.EventType
		relevant bool
	}{
		{"create", fsnotify.Create, missing, ingest.EventAdded, true},
		{"write", fsnotify.Write, missing, ingest.EventChanged, true},
		{"remove of missing file", fsnotify.Remove, missing, ingest.EventDeleted, true},
		{"rename of missing file", fsnotify.Rename, missing, ingest.EventDeleted, true},
		{"chmod ignored", fsnotify.Chmod, missing, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyOp(tt.op, tt.path)
			if ok != tt.relevant {
				t.Fatalf("ClassifyOp relevance = %v, want %v", ok, tt.relevant)
			}
			if ok && got != tt.want {
				t.Errorf("ClassifyOp = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyOpSaveByRename(t *testing.T) {
	// Editors that replace the file on save emit Rename/Remove while the path
	// still exists; that is a change, not a deletion.
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("# N"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	for _, op := range []fsnotify.Op{fsnotify.Rename, fsnotify.Remove} {
		got, ok := ClassifyOp(op, path)
		if !ok || got != ingest.EventChanged {
			t.Errorf("ClassifyOp(%v) on existing file = %v, want Changed", op, got)
		}
	}
}
