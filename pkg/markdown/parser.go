// Package markdown turns raw markdown file text into provisional graph nodes:
// YAML frontmatter, a derived title, the body, and outgoing wikilink edges
// whose targets are left as raw link text for the resolver.
package markdown

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"vaultgraph/pkg/model"
)

// ErrBadPosition reports a position frontmatter value that is present but
// not a {x, y} number pair. Distinct from position simply being absent.
var ErrBadPosition = errors.New("malformed position in frontmatter")

var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// Parse builds a provisional node from raw file text. Edge targets are the
// raw link texts; the caller resolves them against the current graph.
// Malformed frontmatter is not an error: it degrades to the no-frontmatter
// case and the whole text becomes the body.
func Parse(id model.NodeID, content string) *model.GraphNode {
	meta, body := SplitFrontmatter(content)

	node := &model.GraphNode{
		ID:            id,
		OutgoingEdges: ExtractWikilinks(body),
		Content:       body,
	}

	if title, ok := meta["title"].(string); ok && title != "" {
		node.Meta.Title = title
	} else {
		node.Meta.Title = DeriveTitle(id, body)
	}
	if color, ok := meta["color"].(string); ok && color != "" {
		node.Meta.Color = &color
	}
	if ctx, ok := meta["context"].(bool); ok {
		node.Meta.IsContextNode = ctx
	}
	if contained, ok := meta["contains"].([]any); ok {
		for _, v := range contained {
			if s, ok := v.(string); ok {
				node.Meta.ContainedNodeIDs = append(node.Meta.ContainedNodeIDs, s)
			}
		}
	}

	// A malformed position falls through the placement priority chain like an
	// absent one, but the states stay distinct for callers of ParsePosition.
	if pos, err := ParsePosition(meta); err == nil && pos != nil {
		node.Meta.Position = pos
	}

	recognized := map[string]bool{
		"title": true, "color": true, "position": true,
		"context": true, "contains": true,
	}
	for k, v := range meta {
		if recognized[k] {
			continue
		}
		if node.Meta.AdditionalProps == nil {
			node.Meta.AdditionalProps = make(map[string]any)
		}
		node.Meta.AdditionalProps[k] = v
	}

	return node
}

// SplitFrontmatter separates an optional leading YAML frontmatter block
// (delimited by "---" lines) from the body. Missing or malformed frontmatter
// yields an empty metadata map and the full text as body.
func SplitFrontmatter(content string) (map[string]any, string) {
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		if content == "---" {
			return map[string]any{}, ""
		}
		return map[string]any{}, content
	}

	var block, body string
	if end := strings.Index(rest, "\n---\n"); end >= 0 {
		block = rest[:end]
		body = rest[end+len("\n---\n"):]
	} else if trimmed, ok := strings.CutSuffix(rest, "\n---"); ok {
		block = trimmed
	} else {
		return map[string]any{}, content
	}

	meta := make(map[string]any)
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return map[string]any{}, content
	}
	return meta, body
}

// ParsePosition extracts a position from parsed frontmatter. Returns
// (nil, nil) when no position key exists and (nil, ErrBadPosition) when one
// exists but cannot be read as {x, y}.
func ParsePosition(meta map[string]any) (*model.Position, error) {
	raw, ok := meta["position"]
	if !ok {
		return nil, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, raw)
	}
	x, okX := toFloat(m["x"])
	y, okY := toFloat(m["y"])
	if !okX || !okY {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, raw)
	}
	return &model.Position{X: x, Y: y}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ExtractWikilinks finds every [[target]] in the body, in source-line order.
// Free text between the start of the line (or the previous link) and the
// link becomes the edge label, with list markers stripped and underscores
// read as spaces.
func ExtractWikilinks(body string) []model.Edge {
	var edges []model.Edge
	for _, line := range strings.Split(body, "\n") {
		locs := wikilinkRe.FindAllStringSubmatchIndex(line, -1)
		prevEnd := 0
		for _, loc := range locs {
			target := strings.TrimSpace(line[loc[2]:loc[3]])
			if target == "" {
				prevEnd = loc[1]
				continue
			}
			label := cleanLabel(line[prevEnd:loc[0]])
			edges = append(edges, model.Edge{TargetID: target, Label: label})
			prevEnd = loc[1]
		}
	}
	return edges
}

func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimSpace(s)
}

// DeriveTitle walks the title fallback chain for a body with no frontmatter
// title: first heading, then first non-empty line, then the cleaned
// filename, then "Untitled".
func DeriveTitle(id model.NodeID, body string) string {
	var firstLine string
	for _, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			if title := strings.TrimSpace(strings.TrimLeft(stripped, "#")); title != "" {
				return title
			}
			continue
		}
		if firstLine == "" {
			firstLine = stripped
		}
	}
	if firstLine != "" {
		return firstLine
	}
	if name := cleanFilename(id); name != "" {
		return name
	}
	return "Untitled"
}

// NodeTitle returns the display title for a node, deriving one when the
// parser never set it (UI-created nodes). Empty results render as "Untitled".
func NodeTitle(n *model.GraphNode) string {
	if n.Meta.Title != "" {
		return n.Meta.Title
	}
	return DeriveTitle(n.ID, n.Content)
}

func cleanFilename(id model.NodeID) string {
	name := path.Base(id)
	if name == "." || name == "/" {
		return ""
	}
	name = strings.TrimSuffix(name, ".md")
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}
