package graphstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/metrics"
	"github.com/dd0wney/etymograph/pkg/pubsub"
	"github.com/dd0wney/etymograph/pkg/visualization"
)

// Options configures an Engine.
type Options struct {
	// ExpandOnFocus expands a word right after Focus reveals it.
	ExpandOnFocus bool `yaml:"expand_on_focus" toml:"expand_on_focus"`
	// AutoExpandNeighbors expands, once and in the background, every
	// node added by a user-requested expansion.
	AutoExpandNeighbors bool `yaml:"auto_expand_neighbors" toml:"auto_expand_neighbors"`
	// SeedRadius spaces newly added nodes around their placed neighbour.
	SeedRadius float64 `yaml:"seed_radius" toml:"seed_radius" validate:"gte=0"`
	// EventBuffer is the capacity of each event subscription.
	EventBuffer int `yaml:"event_buffer" toml:"event_buffer" validate:"gte=0"`

	Logger  logging.Logger    `yaml:"-" toml:"-"`
	Metrics *metrics.Registry `yaml:"-" toml:"-"`
}

// StaticOptions suits a local, synchronous lexicon.
func StaticOptions() Options {
	return Options{SeedRadius: 40, EventBuffer: pubsub.DefaultBuffer}
}

// RemoteOptions suits a remote lexicon: one click reveals two hops.
func RemoteOptions() Options {
	return Options{
		ExpandOnFocus:       true,
		AutoExpandNeighbors: true,
		SeedRadius:          40,
		EventBuffer:         pubsub.DefaultBuffer,
	}
}

// Engine owns the visible graph: which words and relationships are shown,
// which words have been expanded and which one is selected. All methods
// are safe for concurrent use; lookups run without holding the lock.
type Engine struct {
	lookup Lookup
	source string
	opts   Options
	log    logging.Logger

	mu         sync.RWMutex
	nodes      []etymology.GraphNode
	index      map[string]int
	edges      []etymology.GraphEdge
	edgeIndex  map[string]int
	expanded   map[string]struct{}
	// loading and inFlight hold the generation that started each word
	// fetch and each neighbourhood fetch.
	loading    map[string]uint64
	inFlight   map[string]uint64
	errs       map[string]error
	selected   string
	generation uint64
	closed     bool

	events *pubsub.Bus[Event]

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine with an empty graph.
func NewEngine(lookup Lookup, opts Options) *Engine {
	if opts.SeedRadius == 0 {
		opts.SeedRadius = 40
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Engine{
		lookup:    lookup,
		source:    sourceName(lookup),
		opts:      opts,
		log:       logging.OrNop(opts.Logger).With(logging.Component("graphstate")),
		index:     make(map[string]int),
		edgeIndex: make(map[string]int),
		expanded:  make(map[string]struct{}),
		loading:   make(map[string]uint64),
		inFlight:  make(map[string]uint64),
		errs:      make(map[string]error),
		events:    pubsub.New[Event](opts.EventBuffer),
		bg:        bg,
		cancel:    cancel,
	}
}

// Reset replaces the visible graph with exactly the seed words and no
// edges. Expansion state, per-word errors and the selection are cleared.
// Lookups still in flight from before the reset are merged only if their
// word is visible again when they complete, and they no longer block new
// lookups of the same word.
func (e *Engine) Reset(seeds []etymology.WordRecord) {
	e.mu.Lock()
	hadSelection := e.selected != ""
	e.generation++
	e.nodes = e.nodes[:0]
	e.index = make(map[string]int, len(seeds))
	e.edges = e.edges[:0]
	e.edgeIndex = make(map[string]int)
	e.expanded = make(map[string]struct{})
	e.loading = make(map[string]uint64)
	e.inFlight = make(map[string]uint64)
	e.errs = make(map[string]error)
	e.selected = ""

	for _, w := range seeds {
		w = w.Normalize()
		if _, dup := e.index[w.ID]; dup {
			continue
		}
		n := etymology.NewGraphNode(w)
		n.Position = visualization.Seed(nil, len(e.nodes), e.opts.SeedRadius)
		e.index[n.ID] = len(e.nodes)
		e.nodes = append(e.nodes, n)
	}
	e.recomputeLocked()
	ev := e.changedLocked(nil)
	gen := e.generation
	e.mu.Unlock()

	if e.opts.Metrics != nil {
		e.opts.Metrics.ResetsTotal.Inc()
	}
	e.log.Info("graph reset", logging.Count(len(seeds)), logging.Generation(gen))
	e.publish(ev)
	if hadSelection {
		e.publish(Event{Kind: SelectionChanged, Generation: gen})
	}
}

// Focus reveals a word and selects it. If the word is not visible it is
// looked up and added without disturbing the rest of the graph. A failed
// lookup leaves the graph unchanged and emits a LoadError event.
func (e *Engine) Focus(ctx context.Context, id string) error {
	e.mu.Lock()
	if _, ok := e.index[id]; ok {
		ev, changed := e.selectLocked(id)
		e.mu.Unlock()
		if changed {
			e.publish(ev)
		}
		return e.expandOnFocus(ctx, id)
	}
	if _, busy := e.loading[id]; busy {
		e.mu.Unlock()
		e.suppressed(id)
		return nil
	}
	gen := e.generation
	e.loading[id] = gen
	e.mu.Unlock()

	w, err := e.fetchWord(ctx, id)

	e.mu.Lock()
	release(e.loading, id, gen)
	if gen != e.generation {
		e.mu.Unlock()
		e.stale(id, gen)
		return nil
	}
	if err != nil {
		e.errs[id] = err
		e.mu.Unlock()
		e.loadError(id, gen, err)
		return err
	}

	var added []string
	if nid, ok := e.addNodeLocked(w, nil); ok {
		added = append(added, nid)
	}
	delete(e.errs, id)
	e.recomputeLocked()
	nodesEv := e.changedLocked(added)
	selEv, _ := e.selectLocked(id)
	e.mu.Unlock()

	e.log.Debug("focused", logging.WordID(id))
	e.publish(nodesEv)
	e.publish(selEv)
	return e.expandOnFocus(ctx, id)
}

func (e *Engine) expandOnFocus(ctx context.Context, id string) error {
	if !e.opts.ExpandOnFocus {
		return nil
	}
	return e.Expand(ctx, id)
}

// Expand merges a visible word's parents and children into the graph.
// It is a no-op when the word is already expanded or an expansion of it
// is in flight. Relationships whose far end does not resolve are dropped.
func (e *Engine) Expand(ctx context.Context, id string) error {
	return e.expand(ctx, id, false)
}

func (e *Engine) expand(ctx context.Context, id string, auto bool) error {
	trigger := "user"
	if auto {
		trigger = "auto"
	}

	e.mu.Lock()
	if _, ok := e.index[id]; !ok {
		e.mu.Unlock()
		return &etymology.LookupError{Op: "expand", WordID: id, Cause: etymology.ErrNotVisible}
	}
	_, done := e.expanded[id]
	_, busy := e.inFlight[id]
	if done || busy {
		e.mu.Unlock()
		e.suppressed(id)
		return nil
	}
	gen := e.generation
	e.inFlight[id] = gen
	e.mu.Unlock()

	nb, err := e.fetchNeighborhood(ctx, id)

	e.mu.Lock()
	release(e.inFlight, id, gen)
	_, visible := e.index[id]

	if err != nil {
		// auto-expansion failures only leave the expand affordance in place
		if !auto && visible && gen == e.generation {
			e.errs[id] = err
		}
		e.mu.Unlock()
		e.record(trigger, "error")
		if auto {
			e.log.Debug("auto-expand failed", logging.WordID(id), logging.Error(err))
			return err
		}
		if gen == e.generation {
			e.loadError(id, gen, err)
		}
		return err
	}

	if !visible {
		e.mu.Unlock()
		e.stale(id, gen)
		return nil
	}

	added, dropped := e.mergeLocked(id, nb)
	e.expanded[id] = struct{}{}
	delete(e.errs, id)
	e.recomputeLocked()
	ev := e.changedLocked(added)
	fanOut := !auto && e.opts.AutoExpandNeighbors && !e.closed && len(added) > 0
	if fanOut {
		// added under the lock so Close cannot start waiting first
		e.wg.Add(len(added))
	}
	e.mu.Unlock()

	e.record(trigger, "ok")
	if dropped > 0 && e.opts.Metrics != nil {
		e.opts.Metrics.DroppedLinksTotal.Add(float64(dropped))
	}
	e.log.Debug("expanded",
		logging.WordID(id),
		logging.String("trigger", trigger),
		logging.Int("added", len(added)),
		logging.Int("dropped", dropped))
	e.publish(ev)

	if fanOut {
		for _, nid := range added {
			go func(nid string) {
				defer e.wg.Done()
				_ = e.expand(e.bg, nid, true)
			}(nid)
		}
	}
	return nil
}

// Select sets the selected word. An empty id clears the selection.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	if id != "" {
		if _, ok := e.index[id]; !ok {
			e.mu.Unlock()
			return &etymology.LookupError{Op: "select", WordID: id, Cause: etymology.ErrNotVisible}
		}
	}
	ev, changed := e.selectLocked(id)
	e.mu.Unlock()
	if changed {
		e.publish(ev)
	}
	return nil
}

// RecomputeDerivedFlags refreshes HasExpandableNeighbors and IsExpanded
// on every visible node. Engine mutations already do this; it is exposed
// for lookups whose knowledge changes out of band.
func (e *Engine) RecomputeDerivedFlags() {
	e.mu.Lock()
	e.recomputeLocked()
	ev := e.changedLocked(nil)
	e.mu.Unlock()
	e.publish(ev)
}

// ApplyLayout copies simulation positions onto the visible nodes. Unknown
// ids are ignored. It does not emit an event.
func (e *Engine) ApplyLayout(placements []etymology.Placement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range placements {
		i, ok := e.index[p.ID]
		if !ok {
			continue
		}
		e.nodes[i].Position = p.Position
		if p.Pinned != nil {
			pin := *p.Pinned
			e.nodes[i].PinnedPosition = &pin
		} else {
			e.nodes[i].PinnedPosition = nil
		}
	}
}

// Wait blocks until background auto-expansions have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels background work and ends all subscriptions. Expansions
// finishing after Close do not start auto-expansions.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
	e.events.Shutdown()
}

func (e *Engine) fetchWord(ctx context.Context, id string) (etymology.WordRecord, error) {
	start := time.Now()
	e.inFlightGauge(1)
	w, err := e.lookup.Word(ctx, id)
	e.inFlightGauge(-1)
	e.recordFetch("word", start, err)
	if err != nil {
		return etymology.WordRecord{}, err
	}
	w = w.Normalize()
	if w.ID != id {
		// the lexicon may normalise spelling; keep the requested id
		w.ID = id
	}
	return w, nil
}

func (e *Engine) fetchNeighborhood(ctx context.Context, id string) (etymology.Neighborhood, error) {
	start := time.Now()
	e.inFlightGauge(1)
	nb, err := e.lookup.Neighborhood(ctx, id)
	e.inFlightGauge(-1)
	e.recordFetch("neighborhood", start, err)
	return nb, err
}

// mergeLocked adds the neighbours and relationships of id. It returns the
// ids of nodes that were not visible before and the number of links
// dropped because their far end was unresolved or unrelated to id.
func (e *Engine) mergeLocked(id string, nb etymology.Neighborhood) (added []string, dropped int) {
	center := e.nodes[e.index[id]].Position
	for _, link := range nb.Links() {
		if link.Word == nil {
			dropped++
			continue
		}
		w := link.Word.Normalize()
		edge := link.Edge.Normalize()
		if !touches(edge, id, w.ID) || w.ID == id {
			dropped++
			continue
		}

		if nid, ok := e.addNodeLocked(w, &center); ok {
			added = append(added, nid)
		}
		if _, ok := e.edgeIndex[edge.ID]; !ok {
			e.edgeIndex[edge.ID] = len(e.edges)
			e.edges = append(e.edges, etymology.NewGraphEdge(edge))
		}
	}
	return added, dropped
}

// release forgets the fetch of id started in generation gen. A fetch
// started after a reset owns the entry and is left alone.
func release(m map[string]uint64, id string, gen uint64) {
	if g, ok := m[id]; ok && g == gen {
		delete(m, id)
	}
}

// touches reports whether the edge joins exactly a and b.
func touches(edge etymology.RelationshipEdge, a, b string) bool {
	return (edge.SourceWordID == a && edge.TargetWordID == b) ||
		(edge.SourceWordID == b && edge.TargetWordID == a)
}

// addNodeLocked adds w unless it is already visible. New nodes are
// seeded near near, or around the origin.
func (e *Engine) addNodeLocked(w etymology.WordRecord, near *etymology.Position) (string, bool) {
	w = w.Normalize()
	if _, ok := e.index[w.ID]; ok {
		return "", false
	}
	var placed []etymology.Position
	if near != nil {
		placed = []etymology.Position{*near}
	}
	n := etymology.NewGraphNode(w)
	n.Position = visualization.Seed(placed, len(e.nodes), e.opts.SeedRadius)
	e.index[n.ID] = len(e.nodes)
	e.nodes = append(e.nodes, n)
	return n.ID, true
}

func (e *Engine) recomputeLocked() {
	for i := range e.nodes {
		n := &e.nodes[i]
		_, n.IsExpanded = e.expanded[n.ID]
		n.HasExpandableNeighbors = e.lookup.HasRelations(n.ID)
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.SetGraphSize(len(e.nodes), len(e.edges))
	}
}

func (e *Engine) changedLocked(added []string) Event {
	return Event{
		Kind:       NodesChanged,
		Generation: e.generation,
		Nodes:      len(e.nodes),
		Edges:      len(e.edges),
		Added:      added,
	}
}

func (e *Engine) selectLocked(id string) (Event, bool) {
	if e.selected == id {
		return Event{}, false
	}
	e.selected = id
	return Event{Kind: SelectionChanged, Selected: id, Generation: e.generation}, true
}

func (e *Engine) loadError(id string, gen uint64, err error) {
	word, _, _ := etymology.SplitWordID(id)
	if word == "" {
		word = id
	}
	e.log.Warn("lookup failed", logging.WordID(id), logging.Error(err))
	e.publish(Event{Kind: LoadError, Generation: gen, WordID: id, Word: word, Err: err})
}

func (e *Engine) stale(id string, gen uint64) {
	e.log.Debug("discarding stale response", logging.WordID(id), logging.Generation(gen))
	if e.opts.Metrics != nil {
		e.opts.Metrics.StaleDropsTotal.Inc()
	}
}

func (e *Engine) suppressed(string) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.SuppressedTotal.Inc()
	}
}

func (e *Engine) record(trigger, status string) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordExpansion(trigger, status)
	}
}

func (e *Engine) recordFetch(op string, start time.Time, err error) {
	if e.opts.Metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, etymology.ErrWordNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	e.opts.Metrics.RecordFetch(e.source, op, status, time.Since(start))
}

func (e *Engine) inFlightGauge(delta float64) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.FetchesInFlight.Add(delta)
	}
}
