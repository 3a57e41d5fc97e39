// Package explorer wires a graph engine, a layout simulation and a
// viewport controller into one interactive session that a frontend
// drives with a tick loop.
package explorer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/graphstate"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/projection"
	"github.com/dd0wney/etymograph/pkg/viewport"
	"github.com/dd0wney/etymograph/pkg/visualization"
)

// Config configures a session.
type Config struct {
	Width        float64                        `yaml:"width" toml:"width" validate:"gt=0"`
	Height       float64                        `yaml:"height" toml:"height" validate:"gt=0"`
	CurveSpacing float64                        `yaml:"curve_spacing" toml:"curve_spacing" validate:"gte=0"`
	Layout       visualization.SimulationConfig `yaml:"layout" toml:"layout"`
	Viewport     viewport.Config                `yaml:"viewport" toml:"viewport"`
}

// DefaultConfig returns a session sized for an 800x600 canvas.
func DefaultConfig() Config {
	return Config{
		Width:        800,
		Height:       600,
		CurveSpacing: 40,
		Layout:       visualization.DefaultSimulationConfig(),
		Viewport:     viewport.DefaultConfig(),
	}
}

// Session is one open explorer: what is visible, where it is and how it
// is viewed.
type Session struct {
	engine *graphstate.Engine
	sim    *visualization.Simulation
	view   *viewport.Controller
	config Config
	log    logging.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status string
}

// NewSession opens a session over lookup. The engine options decide
// whether focusing a word also expands it.
func NewSession(lookup graphstate.Lookup, opts graphstate.Options, cfg Config) (*Session, error) {
	log := logging.OrNop(opts.Logger).With(logging.Component("explorer"))
	opts.Logger = log

	engine := graphstate.NewEngine(lookup, opts)
	sim := visualization.NewSimulation(&cfg.Layout)
	if opts.Metrics != nil {
		sim.WithMetrics(opts.Metrics)
	}
	view := viewport.NewController(cfg.Viewport, cfg.Width, cfg.Height, sim, engine).WithLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := engine.Subscribe(ctx, graphstate.AllEvents)
	if err != nil {
		cancel()
		engine.Close()
		return nil, fmt.Errorf("subscribe to graph events: %w", err)
	}

	s := &Session{
		engine: engine,
		sim:    sim,
		view:   view,
		config: cfg,
		log:    log,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.watch(sub)
	return s, nil
}

func (s *Session) watch(sub *graphstate.Subscription) {
	defer close(s.done)
	for ev := range sub.C() {
		switch ev.Kind {
		case graphstate.NodesChanged:
			s.setStatus(fmt.Sprintf("%d words, %d links", ev.Nodes, ev.Edges))
		case graphstate.LoadError:
			if etymology.IsNotFound(ev.Err) {
				s.setStatus(fmt.Sprintf("no etymology found for %q", ev.Word))
			} else {
				s.setStatus(fmt.Sprintf("could not load %q", ev.Word))
			}
		}
	}
}

func (s *Session) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
}

// Status returns a one-line summary of the last graph event.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Engine returns the session's graph engine.
func (s *Session) Engine() *graphstate.Engine { return s.engine }

// Simulation returns the session's layout simulation.
func (s *Session) Simulation() *visualization.Simulation { return s.sim }

// Viewport returns the session's interaction controller.
func (s *Session) Viewport() *viewport.Controller { return s.view }

// Open resets the graph to a single root word and focuses it.
func (s *Session) Open(ctx context.Context, id string) error {
	word, lang, ok := etymology.SplitWordID(id)
	if !ok {
		return &etymology.LookupError{Op: "open", WordID: id, Cause: etymology.ErrMalformedReference}
	}
	s.engine.Reset(nil)
	if err := s.engine.Focus(ctx, id); err != nil {
		return err
	}
	s.log.Info("opened", logging.Word(word), logging.Language(lang))
	return nil
}

// Tick advances the session by one frame: the simulation follows the
// visible set, steps once and hands its positions to the engine, and any
// viewport animation moves to now. It reports whether anything is still
// moving.
func (s *Session) Tick(now time.Time) bool {
	s.sim.Sync(s.engine.Nodes(), s.engine.Edges())
	s.engine.ApplyLayout(s.sim.Tick())
	animating := s.view.Advance(now)
	return animating || !s.sim.Settled()
}

// Settle ticks until the layout cools or max ticks have run. It returns
// the number of ticks taken.
func (s *Session) Settle(max int) int {
	now := time.Now()
	for i := 0; i < max; i++ {
		if !s.Tick(now) {
			return i + 1
		}
	}
	return max
}

// Fit animates the viewport to show every visible node.
func (s *Session) Fit(now time.Time) {
	s.view.FitToView(s.engine.Nodes(), now)
}

// Frame is everything a frontend needs to draw one frame.
type Frame struct {
	Nodes     []etymology.GraphNode `json:"nodes"`
	Edges     []EdgeFrame           `json:"edges"`
	Selected  string                `json:"selected,omitempty"`
	Transform projection.Transform  `json:"transform"`
	Minimap   viewport.MinimapView  `json:"minimap"`
	Status    string                `json:"status,omitempty"`
}

// EdgeFrame is a visible edge with its path in simulation space.
type EdgeFrame struct {
	Edge etymology.GraphEdge `json:"edge"`
	Path projection.Path     `json:"path"`
}

// Frame returns the drawing data for now.
func (s *Session) Frame(now time.Time) Frame {
	nodes := s.engine.Nodes()
	edges := s.engine.Edges()
	selected := s.engine.Selected()

	at := make(map[string]etymology.Position, len(nodes))
	for _, n := range nodes {
		at[n.ID] = n.Position
	}

	radius := s.view.Config().NodeRadius
	offsets := projection.CurveOffsets(edges, s.config.CurveSpacing)
	out := make([]EdgeFrame, 0, len(edges))
	for _, e := range edges {
		src, ok1 := at[e.Source]
		tgt, ok2 := at[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, EdgeFrame{Edge: e, Path: projection.EdgePath(src, tgt, radius, offsets[e.ID])})
	}

	return Frame{
		Nodes:     nodes,
		Edges:     out,
		Selected:  selected,
		Transform: s.view.Transform(),
		Minimap:   s.view.Minimap(nodes, selected, now),
		Status:    s.Status(),
	}
}

// Snapshot exports the current layout.
func (s *Session) Snapshot() visualization.Snapshot {
	return visualization.NewSnapshot(s.sim, s.engine.Nodes(), s.engine.Edges())
}

// Close stops the session and its background work.
func (s *Session) Close() {
	s.sim.Stop()
	s.engine.Close()
	s.cancel()
	<-s.done
}
