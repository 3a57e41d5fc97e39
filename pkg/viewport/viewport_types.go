package viewport

import (
	"context"
	"time"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/projection"
)

// Config tunes pan/zoom limits, animations and the minimap.
//
// Zero fields take their DefaultConfig value, except the paddings, where
// zero is a real setting and a negative value asks for the default. A
// negative duration or interval turns the animation or the minimap
// throttle off.
type Config struct {
	MinScale        float64       `yaml:"min_scale" toml:"min_scale" validate:"gt=0"`
	MaxScale        float64       `yaml:"max_scale" toml:"max_scale" validate:"gtfield=MinScale"`
	ZoomInFactor    float64       `yaml:"zoom_in_factor" toml:"zoom_in_factor" validate:"gt=1"`
	ZoomOutFactor   float64       `yaml:"zoom_out_factor" toml:"zoom_out_factor" validate:"gt=0,lt=1"`
	ZoomDuration    time.Duration `yaml:"zoom_duration" toml:"zoom_duration"`
	FitPadding      float64       `yaml:"fit_padding" toml:"fit_padding" validate:"gte=0"`
	FitDuration     time.Duration `yaml:"fit_duration" toml:"fit_duration"`
	NodeRadius      float64       `yaml:"node_radius" toml:"node_radius" validate:"gt=0"`
	MinimapWidth    float64       `yaml:"minimap_width" toml:"minimap_width" validate:"gt=0"`
	MinimapHeight   float64       `yaml:"minimap_height" toml:"minimap_height" validate:"gt=0"`
	MinimapPadding  float64       `yaml:"minimap_padding" toml:"minimap_padding" validate:"gte=0"`
	MinimapInterval time.Duration `yaml:"minimap_interval" toml:"minimap_interval"`
}

// DefaultConfig returns the interaction defaults of the graph explorer.
func DefaultConfig() Config {
	return Config{
		MinScale:        0.1,
		MaxScale:        2,
		ZoomInFactor:    1.3,
		ZoomOutFactor:   0.77,
		ZoomDuration:    300 * time.Millisecond,
		FitPadding:      100,
		FitDuration:     500 * time.Millisecond,
		NodeRadius:      projection.DefaultNodeRadius,
		MinimapWidth:    projection.MinimapWidth,
		MinimapHeight:   projection.MinimapHeight,
		MinimapPadding:  projection.MinimapPadding,
		MinimapInterval: 100 * time.Millisecond,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MinScale <= 0 {
		c.MinScale = d.MinScale
	}
	if c.MaxScale <= c.MinScale {
		c.MaxScale = d.MaxScale
	}
	if c.ZoomInFactor <= 1 {
		c.ZoomInFactor = d.ZoomInFactor
	}
	if c.ZoomOutFactor <= 0 || c.ZoomOutFactor >= 1 {
		c.ZoomOutFactor = d.ZoomOutFactor
	}
	if c.ZoomDuration == 0 {
		c.ZoomDuration = d.ZoomDuration
	}
	if c.FitPadding < 0 {
		c.FitPadding = d.FitPadding
	}
	if c.FitDuration == 0 {
		c.FitDuration = d.FitDuration
	}
	if c.NodeRadius <= 0 {
		c.NodeRadius = d.NodeRadius
	}
	if c.MinimapWidth <= 0 {
		c.MinimapWidth = d.MinimapWidth
	}
	if c.MinimapHeight <= 0 {
		c.MinimapHeight = d.MinimapHeight
	}
	if c.MinimapPadding < 0 {
		c.MinimapPadding = d.MinimapPadding
	}
	if c.MinimapInterval == 0 {
		c.MinimapInterval = d.MinimapInterval
	}
}

// Dragger is the part of the layout simulation a drag gesture drives.
type Dragger interface {
	DragStart(id string) (etymology.Position, bool)
	Pin(id string, p etymology.Position) bool
	DragEnd(id string) bool
}

// Selector is the part of the graph engine a click drives.
type Selector interface {
	Selected() string
	Select(id string) error
	Expand(ctx context.Context, id string) error
}

// MinimapDot is one node drawn on the minimap.
type MinimapDot struct {
	ID       string              `json:"id"`
	Position projection.Position `json:"position"`
	Color    string              `json:"color"`
	Selected bool                `json:"selected"`
}

// MinimapView is everything needed to draw the overview.
type MinimapView struct {
	Map      projection.Minimap `json:"-"`
	Dots     []MinimapDot       `json:"dots"`
	Viewport projection.Rect    `json:"viewport"`
}

// animation interpolates the transform between two states.
type animation struct {
	from, to projection.Transform
	start    time.Time
	duration time.Duration
}
