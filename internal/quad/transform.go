package quad

import "math"

// RotatePoint rotates p around center by deg degrees.
func RotatePoint(p, center Point, deg float64) Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := p.X-center.X, p.Y-center.Y
	return Point{
		X: cos*dx - sin*dy + center.X,
		Y: sin*dx + cos*dy + center.Y,
	}
}

// TranslatePoint shifts p by (dx, dy).
func TranslatePoint(p Point, dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// ScalePoint scales the offset of p from center by factor.
func ScalePoint(p, center Point, factor float64) Point {
	return Point{
		X: (p.X-center.X)*factor + center.X,
		Y: (p.Y-center.Y)*factor + center.Y,
	}
}

// The quad transforms below act on each corner independently and keep the
// existing labels. Call Normalize afterwards when canonical labels matter.

// Rotate rotates every corner around center by deg degrees.
func (q *Quad) Rotate(center Point, deg float64) {
	for i := range q.pts {
		q.pts[i] = RotatePoint(q.pts[i], center, deg)
	}
}

// Translate shifts every corner by (dx, dy).
func (q *Quad) Translate(dx, dy float64) {
	for i := range q.pts {
		q.pts[i] = TranslatePoint(q.pts[i], dx, dy)
	}
}

// Scale scales every corner around center by factor.
func (q *Quad) Scale(center Point, factor float64) {
	for i := range q.pts {
		q.pts[i] = ScalePoint(q.pts[i], center, factor)
	}
}
