package viewport

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/projection"
)

// Controller turns pointer and keyboard gestures into transform changes,
// simulation pins and engine selections. It owns the viewport transform.
type Controller struct {
	config Config
	sim    Dragger
	graph  Selector
	log    logging.Logger

	mu        sync.Mutex
	width     float64
	height    float64
	transform projection.Transform
	anim      *animation
	dragging  string

	minimap     MinimapView
	minimapAt   time.Time
	minimapSize int
}

// NewController creates a controller for a width x height canvas. sim and
// graph may be nil when only the transform is needed.
func NewController(config Config, width, height float64, sim Dragger, graph Selector) *Controller {
	config.applyDefaults()
	return &Controller{
		config:    config,
		sim:       sim,
		graph:     graph,
		log:       logging.NewNopLogger(),
		width:     width,
		height:    height,
		transform: projection.Transform{TranslateX: width / 2, TranslateY: height / 2, Scale: 1},
	}
}

// WithLogger sets the controller's logger.
func (c *Controller) WithLogger(l logging.Logger) *Controller {
	c.log = logging.OrNop(l).With(logging.Component("viewport"))
	return c
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config {
	return c.config
}

// Transform returns the current pan/zoom transform.
func (c *Controller) Transform() projection.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// SetTransform replaces the transform, clamping its scale and cancelling
// any running animation.
func (c *Controller) SetTransform(t projection.Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anim = nil
	c.transform = c.clamp(t)
}

// Size returns the canvas size.
func (c *Controller) Size() (width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Resize changes the canvas size, keeping the graph point at the centre of
// the canvas where it was.
func (c *Controller) Resize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform.TranslateX += (width - c.width) / 2
	c.transform.TranslateY += (height - c.height) / 2
	c.width, c.height = width, height
	c.minimapAt = time.Time{}
}

// Pan moves the view by a screen-space offset.
func (c *Controller) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anim = nil
	c.transform.TranslateX += dx
	c.transform.TranslateY += dy
}

// ZoomBy multiplies the scale by factor, keeping the simulation point under
// the screen-space anchor fixed. The result is clamped to the zoom range.
func (c *Controller) ZoomBy(factor float64, anchor projection.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anim = nil
	c.transform = c.zoomed(c.transform, factor, anchor)
}

// ZoomIn zooms towards the canvas centre, animated from now.
func (c *Controller) ZoomIn(now time.Time) {
	c.zoomStep(c.config.ZoomInFactor, now)
}

// ZoomOut zooms away from the canvas centre, animated from now.
func (c *Controller) ZoomOut(now time.Time) {
	c.zoomStep(c.config.ZoomOutFactor, now)
}

func (c *Controller) zoomStep(factor float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// successive steps compound from where the running animation ends
	from := c.transform
	base := from
	if c.anim != nil {
		base = c.anim.to
	}
	center := projection.Position{X: c.width / 2, Y: c.height / 2}
	c.animateLocked(from, c.zoomed(base, factor, center), now, c.config.ZoomDuration)
}

func (c *Controller) zoomed(t projection.Transform, factor float64, anchor projection.Position) projection.Transform {
	world := t.Invert(anchor)
	k := projection.Clamp(t.Scale*factor, c.config.MinScale, c.config.MaxScale)
	return projection.Transform{
		TranslateX: anchor.X - world.X*k,
		TranslateY: anchor.Y - world.Y*k,
		Scale:      k,
	}
}

func (c *Controller) clamp(t projection.Transform) projection.Transform {
	t.Scale = projection.Clamp(t.Scale, c.config.MinScale, c.config.MaxScale)
	return t
}

// ScreenToWorld converts a canvas point to simulation space.
func (c *Controller) ScreenToWorld(p projection.Position) projection.Position {
	return c.Transform().Invert(p)
}

// WorldToScreen converts a simulation point to canvas space.
func (c *Controller) WorldToScreen(p projection.Position) projection.Position {
	return c.Transform().Apply(p)
}

// FitTransform returns the transform that centres the nodes in the canvas
// with FitPadding around them, zoomed in no further than MaxScale.
func (c *Controller) FitTransform(nodes []etymology.GraphNode) projection.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fitLocked(positions(nodes))
}

func (c *Controller) fitLocked(points []projection.Position) projection.Transform {
	if len(points) == 0 {
		return projection.Transform{TranslateX: c.width / 2, TranslateY: c.height / 2, Scale: 1}
	}
	box := projection.BoundingBox(points, c.config.FitPadding)
	k := c.config.MaxScale
	if box.Width > 0 {
		k = math.Min(k, c.width/box.Width)
	}
	if box.Height > 0 {
		k = math.Min(k, c.height/box.Height)
	}
	k = projection.Clamp(k, c.config.MinScale, c.config.MaxScale)
	center := box.Center()
	return projection.Transform{
		TranslateX: c.width/2 - k*center.X,
		TranslateY: c.height/2 - k*center.Y,
		Scale:      k,
	}
}

// FitToView starts an animation from the current transform to the one
// that fits every node. Advance drives it. An empty graph is a no-op.
func (c *Controller) FitToView(nodes []etymology.GraphNode, now time.Time) {
	if len(nodes) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.fitLocked(positions(nodes))
	c.animateLocked(c.transform, target, now, c.config.FitDuration)
	c.log.Debug("fit to view",
		logging.Count(len(nodes)),
		logging.Float64("scale", target.Scale))
}

func (c *Controller) animateLocked(from, to projection.Transform, now time.Time, d time.Duration) {
	if d <= 0 {
		c.anim = nil
		c.transform = to
		return
	}
	c.anim = &animation{from: from, to: to, start: now, duration: d}
}

// Animating reports whether a transform animation is running.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anim != nil
}

// Advance moves a running animation to now. It returns true while the
// transform is still changing.
func (c *Controller) Advance(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.anim == nil {
		return false
	}
	p := float64(now.Sub(c.anim.start)) / float64(c.anim.duration)
	if p >= 1 {
		c.transform = c.anim.to
		c.anim = nil
		return false
	}
	if p < 0 {
		p = 0
	}
	c.transform = projection.Lerp(c.anim.from, c.anim.to, cubicInOut(p))
	return true
}

// cubicInOut eases slowly in and out of an animation.
func cubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// DragStart pins a node at its current simulation position.
func (c *Controller) DragStart(id string) bool {
	if c.sim == nil {
		return false
	}
	if _, ok := c.sim.DragStart(id); !ok {
		return false
	}
	c.mu.Lock()
	c.dragging = id
	c.mu.Unlock()
	return true
}

// DragMove re-pins the dragged node under the pointer.
func (c *Controller) DragMove(id string, screen projection.Position) bool {
	c.mu.Lock()
	if c.sim == nil || c.dragging != id {
		c.mu.Unlock()
		return false
	}
	world := c.transform.Invert(screen)
	c.mu.Unlock()
	return c.sim.Pin(id, world)
}

// DragEnd releases the dragged node back to the simulation.
func (c *Controller) DragEnd(id string) bool {
	c.mu.Lock()
	if c.sim == nil || c.dragging != id {
		c.mu.Unlock()
		return false
	}
	c.dragging = ""
	c.mu.Unlock()
	return c.sim.DragEnd(id)
}

// Dragging returns the id of the node being dragged, or "".
func (c *Controller) Dragging() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// ClickCanvas clears the selection.
func (c *Controller) ClickCanvas() error {
	if c.graph == nil {
		return nil
	}
	return c.graph.Select("")
}

// ClickNode selects a node, or expands it when it is already selected.
func (c *Controller) ClickNode(ctx context.Context, id string) error {
	if c.graph == nil {
		return nil
	}
	if c.graph.Selected() == id {
		return c.graph.Expand(ctx, id)
	}
	return c.graph.Select(id)
}

// HitTest returns the topmost node whose circle contains the screen point.
// Later nodes are drawn over earlier ones.
func (c *Controller) HitTest(screen projection.Position, nodes []etymology.GraphNode) (string, bool) {
	t := c.Transform()
	world := t.Invert(screen)
	r := c.config.NodeRadius
	for i := len(nodes) - 1; i >= 0; i-- {
		d := nodes[i].Position.Sub(world)
		if d.X*d.X+d.Y*d.Y <= r*r {
			return nodes[i].ID, true
		}
	}
	return "", false
}

// Minimap returns the overview for nodes. The node projection is rebuilt
// at most once per MinimapInterval unless the node count changes; the
// viewport rectangle always follows the current transform.
func (c *Controller) Minimap(nodes []etymology.GraphNode, selected string, now time.Time) MinimapView {
	c.mu.Lock()
	defer c.mu.Unlock()

	stale := c.minimapAt.IsZero() ||
		len(nodes) != c.minimapSize ||
		now.Sub(c.minimapAt) >= c.config.MinimapInterval
	if stale {
		m := projection.NewMinimap(positions(nodes), c.config.MinimapWidth, c.config.MinimapHeight, c.config.MinimapPadding)
		dots := make([]MinimapDot, len(nodes))
		for i, n := range nodes {
			dots[i] = MinimapDot{ID: n.ID, Position: m.Project(n.Position), Color: n.Display.Color}
		}
		c.minimap = MinimapView{Map: m, Dots: dots}
		c.minimapAt = now
		c.minimapSize = len(nodes)
	}

	view := MinimapView{
		Map:      c.minimap.Map,
		Dots:     make([]MinimapDot, len(c.minimap.Dots)),
		Viewport: c.minimap.Map.ViewportRect(c.transform, c.width, c.height),
	}
	copy(view.Dots, c.minimap.Dots)
	for i := range view.Dots {
		view.Dots[i].Selected = view.Dots[i].ID == selected
	}
	return view
}

// CenterOnMinimap recentres the view on the simulation point under a
// minimap click.
func (c *Controller) CenterOnMinimap(p projection.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	world := c.minimap.Map.Unproject(p)
	c.anim = nil
	c.transform.TranslateX = c.width/2 - world.X*c.transform.Scale
	c.transform.TranslateY = c.height/2 - world.Y*c.transform.Scale
}

func positions(nodes []etymology.GraphNode) []projection.Position {
	out := make([]projection.Position, len(nodes))
	for i, n := range nodes {
		out[i] = n.Position
	}
	return out
}
