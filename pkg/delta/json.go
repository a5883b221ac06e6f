package delta

import (
	"encoding/json"
	"fmt"

	"vaultgraph/pkg/model"
)

// changeJSON is the wire form of a Change: a tagged union keyed on "type".
type changeJSON struct {
	Type         string           `json:"type"`
	NodeToUpsert *model.GraphNode `json:"nodeToUpsert,omitempty"`
	PreviousNode *model.GraphNode `json:"previousNode,omitempty"`
	NodeID       string           `json:"nodeId,omitempty"`
	DeletedNode  *model.GraphNode `json:"deletedNode,omitempty"`
}

const (
	typeUpsertNode = "upsertNode"
	typeDeleteNode = "deleteNode"
)

// MarshalJSON encodes the delta as an array of tagged changes, matching the
// contract delta consumers apply via Apply.
func (d GraphDelta) MarshalJSON() ([]byte, error) {
	out := make([]changeJSON, 0, len(d))
	for _, change := range d {
		switch c := change.(type) {
		case UpsertNodeDelta:
			out = append(out, changeJSON{
				Type:         typeUpsertNode,
				NodeToUpsert: c.NodeToUpsert,
				PreviousNode: c.PreviousNode,
			})
		case DeleteNodeDelta:
			out = append(out, changeJSON{
				Type:        typeDeleteNode,
				NodeID:      c.NodeID,
				DeletedNode: c.DeletedNode,
			})
		default:
			return nil, fmt.Errorf("unknown change type %T", change)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged-union wire form.
func (d *GraphDelta) UnmarshalJSON(data []byte) error {
	var raw []changeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(GraphDelta, 0, len(raw))
	for _, c := range raw {
		switch c.Type {
		case typeUpsertNode:
			if c.NodeToUpsert == nil {
				return fmt.Errorf("upsertNode change without nodeToUpsert")
			}
			out = append(out, UpsertNodeDelta{
				NodeToUpsert: c.NodeToUpsert,
				PreviousNode: c.PreviousNode,
			})
		case typeDeleteNode:
			if c.NodeID == "" {
				return fmt.Errorf("deleteNode change without nodeId")
			}
			out = append(out, DeleteNodeDelta{
				NodeID:      c.NodeID,
				DeletedNode: c.DeletedNode,
			})
		default:
			return fmt.Errorf("unknown change type %q", c.Type)
		}
	}
	*d = out
	return nil
}
