package quad

import "math"

// Size is a width/height pair in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToView maps a quad detected on a landscape camera frame onto a portrait
// preview view. frame is the portrait size of the captured image (camera
// width and height swapped). The quad is rotated 90 degrees around the
// frame center, moved so the frame is centered in the view, scaled to the
// view height, and finally relabelled.
func ToView(q Quad, frame, view Size) Quad {
	center := Point{X: frame.W / 2, Y: frame.H / 2}
	q.Rotate(center, 90)

	base := RotatePoint(Point{X: 0, Y: frame.W}, center, 90)
	moveX := view.W/2 - (frame.W/2 + base.X)
	moveY := view.H/2 - (frame.H/2 + base.Y)
	q.Translate(math.Trunc(moveX), math.Trunc(moveY))

	if frame.H > 0 {
		q.Scale(Point{X: math.Floor(view.W / 2), Y: math.Floor(view.H / 2)}, view.H/frame.H)
	}

	q.Normalize()
	return q
}

// Inset returns an axis-aligned quad inset from the view edges by padding.
// It is the fallback selection when no document was detected.
func Inset(view Size, padding float64) Quad {
	return MustNew(
		Point{X: padding, Y: padding},
		Point{X: view.W - padding, Y: padding},
		Point{X: view.W - padding, Y: view.H - padding},
		Point{X: padding, Y: view.H - padding},
	)
}
