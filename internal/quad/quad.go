// Package quad provides the four-corner polygon used to describe a detected document.
package quad

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidPolygon is returned when a polygon does not have exactly four points.
var ErrInvalidPolygon = errors.New("polygon must have exactly 4 points")

// Corner identifies one of the four canonical corner positions.
type Corner int

// Corner positions. The set is closed and indexes Quad storage directly.
const (
	LeftTop Corner = iota
	RightTop
	LeftBottom
	RightBottom
	NumCorners = 4
)

// Corners lists every corner in storage order.
var Corners = [NumCorners]Corner{LeftTop, RightTop, LeftBottom, RightBottom}

func (c Corner) String() string {
	switch c {
	case LeftTop:
		return "left_top"
	case RightTop:
		return "right_top"
	case LeftBottom:
		return "left_bottom"
	case RightBottom:
		return "right_bottom"
	}
	return fmt.Sprintf("corner(%d)", int(c))
}

// Point is a 2D coordinate in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad holds four points labelled by canonical corner position.
// The zero value is a degenerate quad with every corner at the origin.
type Quad struct {
	pts [NumCorners]Point
}

// New builds a Quad from a raw polygon in arbitrary order and normalizes
// its corner labels. It returns ErrInvalidPolygon unless len(points) == 4.
func New(points []Point) (Quad, error) {
	if len(points) != NumCorners {
		return Quad{}, fmt.Errorf("%w: got %d", ErrInvalidPolygon, len(points))
	}

	var q Quad
	copy(q.pts[:], points)
	q.Normalize()
	return q, nil
}

// MustNew is like New but panics on an invalid polygon. Intended for fixtures.
func MustNew(points ...Point) Quad {
	q, err := New(points)
	if err != nil {
		panic(err)
	}
	return q
}

// Normalize reassigns corner labels from the current point values:
// the two smallest-X points are the left side, the rest the right side,
// and within each side the smaller Y is the top.
//
// The right side uses the same X-then-Y rule as the left side, which can
// mislabel strongly rotated or non-convex quads. Ties keep input order.
func (q *Quad) Normalize() {
	pts := q.pts
	sort.SliceStable(pts[:], func(i, j int) bool { return pts[i].X < pts[j].X })

	left, right := pts[:2], pts[2:]
	sort.SliceStable(left, func(i, j int) bool { return left[i].Y < left[j].Y })
	sort.SliceStable(right, func(i, j int) bool { return right[i].Y < right[j].Y })

	q.pts[LeftTop], q.pts[LeftBottom] = left[0], left[1]
	q.pts[RightTop], q.pts[RightBottom] = right[0], right[1]
}

// Corner returns the point currently labelled c.
func (q Quad) Corner(c Corner) Point {
	if c < 0 || c >= NumCorners {
		return Point{}
	}
	return q.pts[c]
}

// SetCorner moves the point labelled c without relabelling. Callers that
// need canonical labels afterwards (e.g. when a drag ends) call Normalize.
func (q *Quad) SetCorner(c Corner, p Point) {
	if c < 0 || c >= NumCorners {
		return
	}
	q.pts[c] = p
}

// LeftTop returns the upper-left corner.
func (q Quad) LeftTop() Point { return q.pts[LeftTop] }

// RightTop returns the upper-right corner.
func (q Quad) RightTop() Point { return q.pts[RightTop] }

// LeftBottom returns the lower-left corner.
func (q Quad) LeftBottom() Point { return q.pts[LeftBottom] }

// RightBottom returns the lower-right corner.
func (q Quad) RightBottom() Point { return q.pts[RightBottom] }

// Points returns the corners in storage order.
func (q Quad) Points() [NumCorners]Point {
	return q.pts
}

// Outline returns the corners in drawing order: LT, RT, RB, LB.
func (q Quad) Outline() []Point {
	return []Point{q.pts[LeftTop], q.pts[RightTop], q.pts[RightBottom], q.pts[LeftBottom]}
}

// NearestCorner returns the corner closest to p.
func (q Quad) NearestCorner(p Point) Corner {
	best := LeftBottom
	minDist := math.MaxFloat64
	for _, c := range Corners {
		if d := Distance(p, q.pts[c]); d < minDist {
			minDist = d
			best = c
		}
	}
	return best
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Matches reports whether every corner of a lies within threshold of the
// same corner of b. A single far corner rejects the match. Non-finite
// distances never match.
func Matches(a, b Quad, threshold float64) bool {
	for _, c := range Corners {
		if !(Distance(a.pts[c], b.pts[c]) <= threshold) {
			return false
		}
	}
	return true
}

type jsonQuad struct {
	LeftTop     Point `json:"left_top"`
	RightTop    Point `json:"right_top"`
	LeftBottom  Point `json:"left_bottom"`
	RightBottom Point `json:"right_bottom"`
}

// MarshalJSON encodes the quad with named corners.
func (q Quad) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonQuad{
		LeftTop:     q.pts[LeftTop],
		RightTop:    q.pts[RightTop],
		LeftBottom:  q.pts[LeftBottom],
		RightBottom: q.pts[RightBottom],
	})
}

// UnmarshalJSON decodes named corners and normalizes the result.
func (q *Quad) UnmarshalJSON(data []byte) error {
	var jq jsonQuad
	if err := json.Unmarshal(data, &jq); err != nil {
		return err
	}
	q.pts = [NumCorners]Point{jq.LeftTop, jq.RightTop, jq.LeftBottom, jq.RightBottom}
	q.Normalize()
	return nil
}
