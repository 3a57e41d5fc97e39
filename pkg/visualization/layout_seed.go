package visualization

import (
	"math"

	"github.com/dd0wney/etymograph/pkg/etymology"
)

// goldenAngle spaces successive seeds so no two land on the same ray.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// phyllotaxis places the i-th new node on a sunflower spiral around
// center, so nodes seeded at the same point start apart.
func phyllotaxis(center Position, i int, radius float64) (float64, float64) {
	r := radius * math.Sqrt(0.5+float64(i))
	a := float64(i) * goldenAngle
	return center.X + r*math.Cos(a), center.Y + r*math.Sin(a)
}

// Seed returns a starting position near the mean of the placed
// neighbours, spread by index so siblings do not coincide. With no
// placed neighbours it spreads around the origin.
func Seed(placed []etymology.Position, i int, radius float64) Position {
	var c Position
	if len(placed) > 0 {
		for _, p := range placed {
			c.X += p.X
			c.Y += p.Y
		}
		c.X /= float64(len(placed))
		c.Y /= float64(len(placed))
	}
	x, y := phyllotaxis(c, i, radius)
	return Position{X: x, Y: y}
}
