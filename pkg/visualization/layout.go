package visualization

import (
	"encoding/json"
	"io"

	"github.com/dd0wney/etymograph/pkg/etymology"
)

// NodeViz is a node as written to a layout export.
type NodeViz struct {
	ID         string  `json:"id"`
	Word       string  `json:"word"`
	Language   string  `json:"language"`
	Color      string  `json:"color"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Pinned     bool    `json:"pinned,omitempty"`
	Expanded   bool    `json:"expanded"`
	Expandable bool    `json:"expandable"`
}

// EdgeViz is an edge as written to a layout export.
type EdgeViz struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Type      string `json:"type"`
	Borrowing bool   `json:"borrowing,omitempty"`
}

// Snapshot is a serialisable view of a laid-out graph.
type Snapshot struct {
	Nodes []NodeViz `json:"nodes"`
	Edges []EdgeViz `json:"edges"`
	Ticks uint64    `json:"ticks"`
	Alpha float64   `json:"alpha"`
}

// NewSnapshot combines the graph's nodes and edges with the simulation's
// current positions. Nodes unknown to the simulation keep the position
// recorded on the node.
func NewSnapshot(sim *Simulation, nodes []etymology.GraphNode, edges []etymology.GraphEdge) Snapshot {
	snap := Snapshot{
		Nodes: make([]NodeViz, 0, len(nodes)),
		Edges: make([]EdgeViz, 0, len(edges)),
	}
	if sim != nil {
		snap.Ticks = sim.Ticks()
		snap.Alpha = sim.Alpha()
	}

	for _, n := range nodes {
		pos := n.Position
		if sim != nil {
			if p, ok := sim.Position(n.ID); ok {
				pos = p
			}
		}
		snap.Nodes = append(snap.Nodes, NodeViz{
			ID:         n.ID,
			Word:       n.Display.Word,
			Language:   n.Display.Language,
			Color:      n.Display.Color,
			X:          pos.X,
			Y:          pos.Y,
			Pinned:     n.Pinned(),
			Expanded:   n.IsExpanded,
			Expandable: n.HasExpandableNeighbors,
		})
	}

	for _, e := range edges {
		snap.Edges = append(snap.Edges, EdgeViz{
			ID:        e.ID,
			From:      e.Source,
			To:        e.Target,
			Type:      string(e.Type),
			Borrowing: e.IsBorrowing,
		})
	}
	return snap
}

// ExportJSON encodes the snapshot.
func (s Snapshot) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteJSON streams the snapshot to w.
func (s Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
