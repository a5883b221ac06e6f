// Package vault scans a markdown vault on disk and bulk-loads it into a
// graph. The vault size ceiling lives here, at the boundary; the core graph
// engine has no awareness of it.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vaultgraph/pkg/ingest"
	"vaultgraph/pkg/logging"
	"vaultgraph/pkg/model"
)

// ErrVaultTooLarge is returned when the vault holds more markdown files than
// the configured ceiling.
var ErrVaultTooLarge = errors.New("vault exceeds maximum file count")

// DefaultMaxFiles is the vault size ceiling applied when none is configured.
const DefaultMaxFiles = 300

// Directories never scanned or watched.
var excludedDirs = map[string]bool{
	".git":         true,
	".obsidian":    true,
	"node_modules": true,
}

// IsExcludedDir reports whether a directory name is skipped during scans and
// watches. Any dot-directory is excluded.
func IsExcludedDir(name string) bool {
	return excludedDirs[name] || strings.HasPrefix(name, ".")
}

// FindMarkdownFiles walks the vault and returns the absolute paths of all
// markdown files in deterministic alphabetical order.
func FindMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking vault %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load scans the vault and builds the initial graph with a full batch load:
// every file is parsed before any link is resolved. A maxFiles of zero means
// DefaultMaxFiles.
func Load(root string, maxFiles int) (*model.Graph, error) {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	paths, err := FindMarkdownFiles(root)
	if err != nil {
		return nil, err
	}
	if len(paths) > maxFiles {
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrVaultTooLarge, len(paths), maxFiles)
	}

	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		id, err := ingest.NodeIDFromPath(p, root)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			logging.Warn("skipping unreadable file", "path", p, "error", err)
			continue
		}
		files = append(files, ingest.File{ID: id, Content: string(content)})
	}

	g := ingest.LoadBatch(files)
	logging.Info("vault loaded", "root", root, "nodes", len(g.Nodes))
	return g, nil
}
