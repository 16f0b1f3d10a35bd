// Package overlay draws the selected document outline onto preview frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/ayusman/docscan/internal/funnel"
	"github.com/ayusman/docscan/internal/quad"
)

// Default outline colors and thickness.
const (
	DefaultNormalColor   = "#6CAAEC"
	DefaultAutoScanColor = "#2ECC71"
	DefaultThickness     = 6
)

// Palette holds the outline colors.
type Palette struct {
	Normal   colorful.Color
	AutoScan colorful.Color
}

// DefaultPalette returns the built-in colors.
func DefaultPalette() Palette {
	p, err := ParsePalette(DefaultNormalColor, DefaultAutoScanColor)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePalette parses two hex colors such as "#6CAAEC".
func ParsePalette(normal, autoScan string) (Palette, error) {
	n, err := colorful.Hex(normal)
	if err != nil {
		return Palette{}, fmt.Errorf("normal color %q: %w", normal, err)
	}
	a, err := colorful.Hex(autoScan)
	if err != nil {
		return Palette{}, fmt.Errorf("auto-scan color %q: %w", autoScan, err)
	}
	return Palette{Normal: n, AutoScan: a}, nil
}

// Pick returns the outline color for a directive. Without auto-shutter the
// normal color is used. With it, the color moves toward the auto-scan color
// as progress (the share of the pass threshold reached) grows, and is the
// auto-scan color once a capture is requested.
func (p Palette) Pick(action funnel.Action, autoShutter bool, progress float64) colorful.Color {
	if !autoShutter {
		return p.Normal
	}
	if action == funnel.ActionShowAndAutoCapture {
		return p.AutoScan
	}
	return p.Progress(progress)
}

// Progress blends from Normal toward AutoScan as t goes from 0 to 1.
func (p Palette) Progress(t float64) colorful.Color {
	if t <= 0 {
		return p.Normal
	}
	if t >= 1 {
		return p.AutoScan
	}
	return p.Normal.BlendLab(p.AutoScan, t).Clamped()
}

// RGBA converts c for use with gocv drawing functions.
func RGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Outline returns the closed outline of q in drawing order.
func Outline(q quad.Quad) []image.Point {
	pts := q.Outline()
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = image.Point{X: int(p.X + 0.5), Y: int(p.Y + 0.5)}
	}
	return out
}

// Draw strokes q onto frame. A nil quad draws nothing.
func Draw(frame *gocv.Mat, q *quad.Quad, c colorful.Color, thickness int) {
	if frame == nil || frame.Empty() || q == nil {
		return
	}
	if thickness <= 0 {
		thickness = DefaultThickness
	}

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{Outline(*q)})
	defer pv.Close()

	gocv.Polylines(frame, pv, true, RGBA(c), thickness)
}
