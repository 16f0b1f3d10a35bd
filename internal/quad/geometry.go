package quad

import "math"

// Interior angle limits, in degrees, for a quad a user may confirm.
const (
	MinCornerAngle = 40.0
	MaxCornerAngle = 180.0
)

// Angles returns the interior angle at each corner in degrees, indexed by
// Corner. A corner with a zero-length adjacent edge has a NaN angle.
func (q Quad) Angles() [NumCorners]float64 {
	lt, rt, lb, rb := q.pts[LeftTop], q.pts[RightTop], q.pts[LeftBottom], q.pts[RightBottom]

	var a [NumCorners]float64
	a[LeftTop] = angleAt(lt, lb, rt)
	a[RightTop] = angleAt(rt, lt, rb)
	a[LeftBottom] = angleAt(lb, lt, rb)
	a[RightBottom] = angleAt(rb, lb, rt)
	return a
}

// AnglesAllowed reports whether every interior angle lies strictly between
// MinCornerAngle and MaxCornerAngle. Degenerate corners are never allowed.
func (q Quad) AnglesAllowed() bool {
	for _, a := range q.Angles() {
		if !(a > MinCornerAngle && a < MaxCornerAngle) {
			return false
		}
	}
	return true
}

// angleAt computes the angle at origin between the rays to p1 and p2 using
// the law of cosines.
func angleAt(origin, p1, p2 Point) float64 {
	a := Distance(origin, p1)
	b := Distance(origin, p2)
	if a == 0 || b == 0 {
		return math.NaN()
	}
	c := Distance(p1, p2)

	cos := (a*a + b*b - c*c) / (2 * a * b)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// DragWouldCross reports whether moving corner c to p would make two edges
// of the quad cross, or push c past the diagonally opposite corner.
func (q Quad) DragWouldCross(c Corner, p Point) bool {
	lt, rt, lb, rb := q.pts[LeftTop], q.pts[RightTop], q.pts[LeftBottom], q.pts[RightBottom]

	var horizontal, vertical, beyond bool
	switch c {
	case LeftTop:
		horizontal = segmentsIntersect(lb, p, rb, rt)
		vertical = segmentsIntersect(lb, rb, p, rt)
		beyond = p.X >= rb.X && p.Y >= rb.Y
	case RightTop:
		horizontal = segmentsIntersect(lb, lt, rb, p)
		vertical = segmentsIntersect(lb, rb, lt, p)
		beyond = p.X <= lb.X && p.Y >= lb.Y
	case LeftBottom:
		horizontal = segmentsIntersect(p, lt, rb, rt)
		vertical = segmentsIntersect(p, rb, lt, rt)
		beyond = p.X >= rt.X && p.Y <= rt.Y
	case RightBottom:
		horizontal = segmentsIntersect(lb, lt, p, rt)
		vertical = segmentsIntersect(lb, p, lt, rt)
		beyond = p.X <= lt.X && p.Y <= lt.Y
	default:
		return false
	}

	return horizontal || vertical || beyond
}

// orientation returns 0 for collinear points, 1 for clockwise and 2 for
// counter-clockwise turns p -> q -> r.
func orientation(p, q, r Point) int {
	v := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	switch {
	case v == 0:
		return 0
	case v > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether q lies on segment pr, given p, q, r are collinear.
func onSegment(p, q, r Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// segmentsIntersect reports whether segment p1q1 intersects segment p2q2.
func segmentsIntersect(p1, q1, p2, q2 Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear special cases
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}
