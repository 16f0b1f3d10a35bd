// Package detector defines the boundary to the per-frame document detector.
//
// Detection itself (edge detection, contour extraction, polygon
// approximation) happens outside this module; implementations here only
// deliver the raw polygon for a frame.
package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/docscan/internal/quad"
)

// ErrDetectorUnavailable is returned when no detector process is configured or found.
var ErrDetectorUnavailable = errors.New("detector unavailable")

// ErrResponseTimeout is returned when the detector process does not answer in time.
var ErrResponseTimeout = errors.New("detector response timeout")

// Detector finds the document polygon in a frame.
type Detector interface {
	// Detect returns the raw polygon found in frame, or nil if no
	// document-like polygon was found.
	Detect(frame *gocv.Mat) ([]quad.Point, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration for the external detector process.
type Config struct {
	// Command is the detector executable. Args are passed to it unchanged.
	Command string
	Args    []string

	// Env is appended to the current environment of the process.
	Env []string

	// IdleTimeout stops the process after this long without a frame.
	IdleTimeout time.Duration

	// JPEGQuality is the encoding quality of frames sent to the process (1-100).
	JPEGQuality int

	// ResponseTimeout bounds the wait for one answer. A process that misses
	// it is killed and the frame is reported as an error.
	ResponseTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     30 * time.Second,
		JPEGQuality:     85,
		ResponseTimeout: 2 * time.Second,
	}
}

// FromPointVector converts an OpenCV polygon into quad points.
func FromPointVector(pv gocv.PointVector) []quad.Point {
	pts := pv.ToPoints()
	out := make([]quad.Point, len(pts))
	for i, p := range pts {
		out[i] = quad.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}
