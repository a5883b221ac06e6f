package resolve

import (
	"sort"
	"strings"

	"vaultgraph/pkg/model"
)

// ExtractPathSegments produces the suffix candidates of a path, longest to
// shortest, with-extension variants before without-extension variants.
// Example: "a/b/c.md" -> ["a/b/c.md", "b/c.md", "c.md", "a/b/c", "b/c", "c"].
// An empty path yields no segments.
func ExtractPathSegments(path string) []string {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, "/")
	var segments []string
	for i := range parts {
		segments = append(segments, strings.Join(parts[i:], "/"))
	}

	// Repeat without the markdown extension when one is present.
	if stripped, ok := strings.CutSuffix(path, ".md"); ok && stripped != "" {
		parts = strings.Split(stripped, "/")
		for i := range parts {
			segments = append(segments, strings.Join(parts[i:], "/"))
		}
	}

	return segments
}

// normalizeLink strips leading "./" and "../" path prefixes from raw link
// text and trims surrounding whitespace.
func normalizeLink(raw string) string {
	link := strings.TrimSpace(raw)
	for {
		if rest, ok := strings.CutPrefix(link, "./"); ok {
			link = rest
			continue
		}
		if rest, ok := strings.CutPrefix(link, "../"); ok {
			link = rest
			continue
		}
		return link
	}
}

// LinkMatchScore scores how well the raw link text matches a candidate node
// id. Zero means no match. The score is monotonic in the length of the
// matched path segment, so an exact full-path match ranks highest and a bare
// basename match lowest but nonzero. Among equal-length matches a deeper
// candidate scores higher, which is what makes [[1]] written next to
// "felix/1.md" pick it over a top-level "1.md".
func LinkMatchScore(rawLink, candidateID string) int {
	link := normalizeLink(rawLink)
	if link == "" || candidateID == "" {
		return 0
	}

	depth := strings.Count(candidateID, "/") + 1

	best := 0
	for _, seg := range ExtractPathSegments(candidateID) {
		if seg != link {
			continue
		}
		quality := 2 * (strings.Count(seg, "/") + 1)
		if strings.HasSuffix(seg, ".md") {
			quality++
		}
		if score := quality*1000 + depth; score > best {
			best = score
		}
	}
	return best
}

// FindBestMatchingNode returns the node id with the highest positive match
// score for the raw link text. Ties go to the first candidate in sorted id
// order. The second return is false when nothing matches.
func FindBestMatchingNode(rawLink string, g *model.Graph) (model.NodeID, bool) {
	bestID := ""
	bestScore := 0
	for _, id := range g.NodeIDs() {
		if score := LinkMatchScore(rawLink, id); score > bestScore {
			bestID = id
			bestScore = score
		}
	}
	return bestID, bestScore > 0
}

// Match pairs a node id with its score for a query.
type Match struct {
	ID    model.NodeID `json:"id"`
	Score int          `json:"score"`
}

// RankNodes scores every node against the query and returns the positive
// matches, best first. It shares LinkMatchScore with wikilink resolution so
// search-by-suffix and link resolution never disagree.
func RankNodes(query string, g *model.Graph) []Match {
	var matches []Match
	for _, id := range g.NodeIDs() {
		if score := LinkMatchScore(query, id); score > 0 {
			matches = append(matches, Match{ID: id, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
