package visualization

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/metrics"
)

// NewSimulation creates an empty simulation.
func NewSimulation(config *SimulationConfig) *Simulation {
	cfg := SimulationConfig{}
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()
	return &Simulation{
		config: cfg,
		index:  make(map[string]int),
		alpha:  1,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		stop:   make(chan struct{}),
	}
}

// WithMetrics makes the simulation report ticks and alpha to r.
func (s *Simulation) WithMetrics(r *metrics.Registry) *Simulation {
	s.mu.Lock()
	s.metrics = r
	s.mu.Unlock()
	return s
}

// Sync loads the current node and edge sets. The simulation is re-seeded
// only when either set changes size or membership; known nodes keep
// their position and velocity, new nodes start at the position the
// caller gave them, or spread around the origin when it is zero.
// It reports whether a re-seed happened.
func (s *Simulation) Sync(nodes []etymology.GraphNode, edges []etymology.GraphEdge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(nodes) == len(s.nodes) && len(edges) == len(s.links) && s.knowsLocked(nodes) {
		return false
	}

	arena := make([]simNode, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	fresh := 0
	for _, n := range nodes {
		if _, dup := index[n.ID]; dup {
			continue
		}
		sn := simNode{id: n.ID, x: n.Position.X, y: n.Position.Y}
		if i, ok := s.index[n.ID]; ok {
			sn = s.nodes[i]
		} else if n.Position == (Position{}) {
			// unplaced nodes spread around the origin
			sn.x, sn.y = phyllotaxis(n.Position, fresh, s.config.SeedRadius)
			fresh++
		}
		index[n.ID] = len(arena)
		arena = append(arena, sn)
	}

	degree := make([]int, len(arena))
	links := make([]simLink, 0, len(edges))
	for _, e := range edges {
		si, ok1 := index[e.Source]
		ti, ok2 := index[e.Target]
		if !ok1 || !ok2 || si == ti {
			continue
		}
		degree[si]++
		degree[ti]++
		links = append(links, simLink{source: si, target: ti})
	}
	for i := range links {
		l := &links[i]
		l.bias = float64(degree[l.source]) / float64(degree[l.source]+degree[l.target])
	}

	s.nodes = arena
	s.index = index
	s.links = links
	s.alpha = 1
	return true
}

// knowsLocked reports whether every node is already simulated, which
// catches a reset to a different set of the same size.
func (s *Simulation) knowsLocked(nodes []etymology.GraphNode) bool {
	for _, n := range nodes {
		if _, ok := s.index[n.ID]; !ok {
			return false
		}
	}
	return true
}

// Tick advances the simulation one step and returns every node's
// placement. Once alpha has cooled below AlphaMin the forces are skipped
// until something reheats the simulation, but pinned nodes are still
// held at their pins.
func (s *Simulation) Tick() []etymology.Placement {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	settled := s.alpha < s.config.AlphaMin && s.alphaTarget < s.config.AlphaMin
	if !settled {
		s.alpha += (s.alphaTarget - s.alpha) * s.config.AlphaDecay
		s.applyLink()
		s.applyCharge()
		s.applyCollide()
		s.integrate()
		s.applyCenter()
		s.ticks++
	}
	s.holdPins()

	out := s.placementsLocked()
	if s.metrics != nil && !settled {
		s.metrics.RecordSimulationTick(len(s.nodes), s.alpha, time.Since(start))
	}
	return out
}

// Run ticks every interval and publishes placements to sink until ctx is
// done or Stop is called.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, sink PositionSink) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			placements := s.Tick()
			if sink != nil {
				sink.ApplyLayout(placements)
			}
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (s *Simulation) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Pin holds a node at p until Unpin.
func (s *Simulation) Pin(id string, p Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	n := &s.nodes[i]
	n.pinned = true
	n.px, n.py = p.X, p.Y
	return true
}

// Unpin releases a node back to the forces.
func (s *Simulation) Unpin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].pinned = false
	return true
}

// DragStart pins a node where it currently is and keeps the simulation
// warm while it moves. It returns the pin position.
func (s *Simulation) DragStart(id string) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Position{}, false
	}
	n := &s.nodes[i]
	n.pinned = true
	n.px, n.py = n.x, n.y
	s.alphaTarget = s.config.DragAlphaTarget
	return Position{X: n.x, Y: n.y}, true
}

// DragEnd unpins a node and lets the simulation cool again.
func (s *Simulation) DragEnd(id string) bool {
	s.mu.Lock()
	s.alphaTarget = 0
	s.mu.Unlock()
	return s.Unpin(id)
}

// Reheat restarts a settled simulation at the given alpha.
func (s *Simulation) Reheat(alpha float64) {
	s.mu.Lock()
	if alpha > s.alpha {
		s.alpha = alpha
	}
	s.mu.Unlock()
}

// Alpha returns the current energy of the simulation.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Settled reports whether the simulation has cooled off.
func (s *Simulation) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha < s.config.AlphaMin && s.alphaTarget < s.config.AlphaMin
}

// Ticks returns the number of force steps taken.
func (s *Simulation) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Position returns a node's current position.
func (s *Simulation) Position(id string) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Position{}, false
	}
	return Position{X: s.nodes[i].x, Y: s.nodes[i].y}, true
}

// Placements returns every node's placement without stepping.
func (s *Simulation) Placements() []etymology.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placementsLocked()
}

func (s *Simulation) placementsLocked() []etymology.Placement {
	out := make([]etymology.Placement, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = etymology.Placement{ID: n.id, Position: Position{X: n.x, Y: n.y}}
		if n.pinned {
			out[i].Pinned = &Position{X: n.px, Y: n.py}
		}
	}
	return out
}

// applyLink pulls linked nodes toward LinkDistance. The correction is
// split between the endpoints by degree so hubs move less.
func (s *Simulation) applyLink() {
	k := s.alpha * s.config.LinkStrength
	for _, l := range s.links {
		src, tgt := &s.nodes[l.source], &s.nodes[l.target]
		dx := tgt.x + tgt.vx - src.x - src.vx
		dy := tgt.y + tgt.vy - src.y - src.vy
		if dx == 0 {
			dx = s.jiggle()
		}
		if dy == 0 {
			dy = s.jiggle()
		}
		d := math.Sqrt(dx*dx + dy*dy)
		f := (d - s.config.LinkDistance) / d * k
		dx *= f
		dy *= f
		tgt.vx -= dx * l.bias
		tgt.vy -= dy * l.bias
		src.vx += dx * (1 - l.bias)
		src.vy += dy * (1 - l.bias)
	}
}

// applyCharge applies pairwise inverse-square repulsion.
func (s *Simulation) applyCharge() {
	dmin2 := s.config.ChargeDistanceMin * s.config.ChargeDistanceMin
	strength := s.config.ChargeStrength * s.alpha
	for i := range s.nodes {
		a := &s.nodes[i]
		for j := i + 1; j < len(s.nodes); j++ {
			b := &s.nodes[j]
			dx := b.x - a.x
			dy := b.y - a.y
			if dx == 0 {
				dx = s.jiggle()
			}
			if dy == 0 {
				dy = s.jiggle()
			}
			l2 := dx*dx + dy*dy
			if l2 < dmin2 {
				l2 = math.Sqrt(dmin2 * l2)
			}
			w := strength / l2
			a.vx += dx * w
			a.vy += dy * w
			b.vx -= dx * w
			b.vy -= dy * w
		}
	}
}

// applyCollide pushes apart nodes closer than twice CollideRadius.
func (s *Simulation) applyCollide() {
	r := 2 * s.config.CollideRadius
	r2 := r * r
	for i := range s.nodes {
		a := &s.nodes[i]
		ax, ay := a.x+a.vx, a.y+a.vy
		for j := i + 1; j < len(s.nodes); j++ {
			b := &s.nodes[j]
			dx := ax - b.x - b.vx
			dy := ay - b.y - b.vy
			l2 := dx*dx + dy*dy
			if l2 >= r2 {
				continue
			}
			if dx == 0 {
				dx = s.jiggle()
				l2 += dx * dx
			}
			if dy == 0 {
				dy = s.jiggle()
				l2 += dy * dy
			}
			l := math.Sqrt(l2)
			f := (r - l) / l * s.config.CollideStrength * 0.5
			a.vx += dx * f
			a.vy += dy * f
			b.vx -= dx * f
			b.vy -= dy * f
		}
	}
}

func (s *Simulation) integrate() {
	keep := 1 - s.config.VelocityDecay
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.pinned {
			n.vx, n.vy = 0, 0
			continue
		}
		n.vx *= keep
		n.vy *= keep
		n.x += n.vx
		n.y += n.vy
	}
}

// applyCenter translates the free nodes so their mean sits on the centre.
func (s *Simulation) applyCenter() {
	var sx, sy float64
	free := 0
	for _, n := range s.nodes {
		if n.pinned {
			continue
		}
		sx += n.x
		sy += n.y
		free++
	}
	if free == 0 {
		return
	}
	shiftX := (sx/float64(free) - s.config.CenterX) * s.config.CenterStrength
	shiftY := (sy/float64(free) - s.config.CenterY) * s.config.CenterStrength
	for i := range s.nodes {
		if s.nodes[i].pinned {
			continue
		}
		s.nodes[i].x -= shiftX
		s.nodes[i].y -= shiftY
	}
}

func (s *Simulation) holdPins() {
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.pinned {
			n.x, n.y = n.px, n.py
		}
	}
}

// jiggle separates coincident bodies by a tiny seeded amount.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
