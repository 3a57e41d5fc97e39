package graphstate

import (
	"github.com/dd0wney/etymograph/pkg/etymology"
)

// Nodes returns a copy of the visible nodes in insertion order.
func (e *Engine) Nodes() []etymology.GraphNode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]etymology.GraphNode, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// Edges returns a copy of the visible edges in insertion order.
func (e *Engine) Edges() []etymology.GraphEdge {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]etymology.GraphEdge, len(e.edges))
	copy(out, e.edges)
	return out
}

// Node returns one visible node.
func (e *Engine) Node(id string) (etymology.GraphNode, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.index[id]
	if !ok {
		return etymology.GraphNode{}, false
	}
	return e.nodes[i], true
}

// Size returns the number of visible nodes and edges.
func (e *Engine) Size() (nodes, edges int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.nodes), len(e.edges)
}

// Selected returns the selected word id, or "" when nothing is selected.
func (e *Engine) Selected() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selected
}

// IsExpanded reports whether id has been expanded since the last reset.
func (e *Engine) IsExpanded(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.expanded[id]
	return ok
}

// InFlight reports whether a word or neighbourhood lookup for id,
// started since the last reset, is outstanding.
func (e *Engine) InFlight(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, loading := e.loading[id]
	_, expanding := e.inFlight[id]
	return loading || expanding
}

// Err returns the last load error for id, cleared by a successful load
// or a reset.
func (e *Engine) Err(id string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.errs[id]
}

// Generation increases with every reset.
func (e *Engine) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}
