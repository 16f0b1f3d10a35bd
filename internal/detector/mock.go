package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/docscan/internal/quad"
)

// MockDetector is a test implementation of the Detector interface.
// Results queued with Enqueue are returned in order; once the queue is
// empty the polygon set with SetPolygon is returned on every call.
type MockDetector struct {
	mu      sync.Mutex
	polygon []quad.Point
	queue   [][]quad.Point
	err     error
	calls   int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPolygon sets the polygon returned when the queue is empty. nil means
// no document is found.
func (m *MockDetector) SetPolygon(points []quad.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polygon = points
}

// Enqueue appends per-frame results. A nil entry is a frame with no document.
func (m *MockDetector) Enqueue(polygons ...[]quad.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, polygons...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued polygon, the fixed polygon, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]quad.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.polygon, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ReceiptPolygon returns a preset polygon of a slightly rotated receipt on a
// 1440x1080 frame, in the scrambled order a detector may report it.
func ReceiptPolygon() []quad.Point {
	return []quad.Point{
		{X: 1010, Y: 905},
		{X: 402, Y: 118},
		{X: 1046, Y: 140},
		{X: 380, Y: 890},
	}
}
