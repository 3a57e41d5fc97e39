package visualization

import (
	"math"
	"math/rand"
	"sync"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/metrics"
)

// Position is a point in simulation space.
type Position = etymology.Position

// SimulationConfig configures the force simulation. Zero fields take the
// defaults from DefaultSimulationConfig.
type SimulationConfig struct {
	LinkDistance      float64 `yaml:"link_distance" toml:"link_distance" validate:"gte=0"`
	LinkStrength      float64 `yaml:"link_strength" toml:"link_strength" validate:"gte=0,lte=2"`
	ChargeStrength    float64 `yaml:"charge_strength" toml:"charge_strength"`
	ChargeDistanceMin float64 `yaml:"charge_distance_min" toml:"charge_distance_min" validate:"gte=0"`
	CenterX           float64 `yaml:"center_x" toml:"center_x"`
	CenterY           float64 `yaml:"center_y" toml:"center_y"`
	CenterStrength    float64 `yaml:"center_strength" toml:"center_strength" validate:"gte=0,lte=1"`
	CollideRadius     float64 `yaml:"collide_radius" toml:"collide_radius" validate:"gte=0"`
	CollideStrength   float64 `yaml:"collide_strength" toml:"collide_strength" validate:"gte=0,lte=1"`
	VelocityDecay     float64 `yaml:"velocity_decay" toml:"velocity_decay" validate:"gte=0,lte=1"`
	AlphaMin          float64 `yaml:"alpha_min" toml:"alpha_min" validate:"gte=0,lte=1"`
	AlphaDecay        float64 `yaml:"alpha_decay" toml:"alpha_decay" validate:"gte=0,lte=1"`
	DragAlphaTarget   float64 `yaml:"drag_alpha_target" toml:"drag_alpha_target" validate:"gte=0,lte=1"`
	SeedRadius        float64 `yaml:"seed_radius" toml:"seed_radius" validate:"gte=0"`
	Seed              int64   `yaml:"seed" toml:"seed"`
}

// DefaultSimulationConfig returns the tuning used for etymology graphs:
// long springs and wide collision radii so word labels stay legible.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		LinkDistance:      150,
		LinkStrength:      0.7,
		ChargeStrength:    -120,
		ChargeDistanceMin: 1,
		CenterStrength:    1,
		CollideRadius:     80,
		CollideStrength:   0.9,
		VelocityDecay:     0.4,
		AlphaMin:          0.001,
		AlphaDecay:        1 - math.Pow(0.001, 1.0/300),
		DragAlphaTarget:   0.3,
		SeedRadius:        10,
		Seed:              1,
	}
}

func (c *SimulationConfig) applyDefaults() {
	d := DefaultSimulationConfig()
	if c.LinkDistance == 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.LinkStrength == 0 {
		c.LinkStrength = d.LinkStrength
	}
	if c.ChargeStrength == 0 {
		c.ChargeStrength = d.ChargeStrength
	}
	if c.ChargeDistanceMin == 0 {
		c.ChargeDistanceMin = d.ChargeDistanceMin
	}
	if c.CenterStrength == 0 {
		c.CenterStrength = d.CenterStrength
	}
	if c.CollideRadius == 0 {
		c.CollideRadius = d.CollideRadius
	}
	if c.CollideStrength == 0 {
		c.CollideStrength = d.CollideStrength
	}
	if c.VelocityDecay == 0 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.AlphaMin == 0 {
		c.AlphaMin = d.AlphaMin
	}
	if c.AlphaDecay == 0 {
		c.AlphaDecay = d.AlphaDecay
	}
	if c.DragAlphaTarget == 0 {
		c.DragAlphaTarget = d.DragAlphaTarget
	}
	if c.SeedRadius == 0 {
		c.SeedRadius = d.SeedRadius
	}
}

// PositionSink receives the node placements produced by each tick.
type PositionSink interface {
	ApplyLayout(placements []etymology.Placement)
}

// simNode is one body in the simulation arena.
type simNode struct {
	id     string
	x, y   float64
	vx, vy float64
	pinned bool
	px, py float64
}

type simLink struct {
	source, target int
	bias           float64
}

// Simulation is a continuously running force layout. Nodes live in an
// arena slice indexed by id so per-tick lookups are O(1).
type Simulation struct {
	config SimulationConfig

	nodes []simNode
	index map[string]int
	links []simLink

	alpha       float64
	alphaTarget float64
	ticks       uint64

	rng     *rand.Rand
	metrics *metrics.Registry

	mu   sync.Mutex
	stop chan struct{}
	once sync.Once
}
