// Package quadtest provides deterministic quad fixtures for tests.
package quadtest

import (
	"math"
	"math/rand/v2"

	"github.com/ayusman/docscan/internal/quad"
)

// Rect returns an axis-aligned quad with its top-left corner at (x, y).
func Rect(x, y, w, h float64) quad.Quad {
	return quad.MustNew(
		quad.Point{X: x, Y: y},
		quad.Point{X: x + w, Y: y},
		quad.Point{X: x, Y: y + h},
		quad.Point{X: x + w, Y: y + h},
	)
}

// Shift returns q with every corner moved by (dx, dy).
func Shift(q quad.Quad, dx, dy float64) quad.Quad {
	q.Translate(dx, dy)
	return q
}

// Jitter moves each corner of q by less than radius pixels in a random
// direction. Labels are left as they were.
func Jitter(q quad.Quad, radius float64, rng *rand.Rand) quad.Quad {
	for _, c := range quad.Corners {
		r := rng.Float64() * radius
		theta := rng.Float64() * 2 * math.Pi
		p := q.Corner(c)
		q.SetCorner(c, quad.Point{X: p.X + r*math.Cos(theta), Y: p.Y + r*math.Sin(theta)})
	}
	return q
}

// Stream returns n jittered copies of base generated from seed.
func Stream(base quad.Quad, n int, radius float64, seed uint64) []quad.Quad {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]quad.Quad, n)
	for i := range out {
		out[i] = Jitter(base, radius, rng)
	}
	return out
}
