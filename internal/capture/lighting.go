package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Lighting defaults.
const (
	// DefaultDarkMean is the mean gray level below which a frame is too dark.
	DefaultDarkMean = 70
	// DefaultLowContrastStdDev is the gray standard deviation below which
	// the document cannot be told apart from the background.
	DefaultLowContrastStdDev = 40
	// DefaultLightInterval measures one frame out of every N.
	DefaultLightInterval = 5

	lightBlurSize = 5
)

// Hints are advisory lighting conditions for the operator.
type Hints struct {
	Dark        bool    `json:"dark"`
	LowContrast bool    `json:"low_contrast"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
}

// LightConfig configures a LightMeter.
type LightConfig struct {
	DarkMean          float64
	LowContrastStdDev float64
	Interval          int
}

// DefaultLightConfig returns the default lighting thresholds.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		DarkMean:          DefaultDarkMean,
		LowContrastStdDev: DefaultLowContrastStdDev,
		Interval:          DefaultLightInterval,
	}
}

// LightMeter periodically estimates frame brightness and contrast.
type LightMeter struct {
	config LightConfig
	frames int
	last   Hints
	mu     sync.Mutex
}

// NewLightMeter creates a LightMeter. An interval below 1 measures every frame.
func NewLightMeter(config LightConfig) *LightMeter {
	if config.Interval < 1 {
		config.Interval = 1
	}
	return &LightMeter{config: config}
}

// Observe counts a frame and measures it when the interval elapses.
// Between measurements the last hints are returned.
func (m *LightMeter) Observe(frame *gocv.Mat) Hints {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames++
	if m.frames%m.config.Interval == 1 || m.config.Interval == 1 {
		m.last = m.measure(frame)
	}
	return m.last
}

// Measure computes hints for frame immediately.
func (m *LightMeter) Measure(frame *gocv.Mat) Hints {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = m.measure(frame)
	return m.last
}

// Last returns the most recent hints.
func (m *LightMeter) Last() Hints {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Reset forgets the frame count and last measurement.
func (m *LightMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = 0
	m.last = Hints{}
}

func (m *LightMeter) measure(frame *gocv.Mat) Hints {
	if frame == nil || frame.Empty() {
		return Hints{}
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: lightBlurSize, Y: lightBlurSize}, 0, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stddev := gocv.NewMat()
	defer stddev.Close()
	gocv.MeanStdDev(blurred, &mean, &stddev)

	h := Hints{
		Mean:   mean.GetDoubleAt(0, 0),
		StdDev: stddev.GetDoubleAt(0, 0),
	}
	h.Dark = h.Mean < m.config.DarkMean
	h.LowContrast = h.StdDev < m.config.LowContrastStdDev
	return h
}
