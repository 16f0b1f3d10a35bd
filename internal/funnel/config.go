package funnel

import "fmt"

// Default tuning values.
const (
	// DefaultWindowMin is the number of candidates needed before any quad is selected.
	DefaultWindowMin = 3
	// DefaultWindowMax bounds the history. Scoring is quadratic in this value.
	DefaultWindowMax = 8
	// DefaultMatchThreshold is the per-corner distance in pixels for two quads to agree.
	DefaultMatchThreshold = 20.0
	// DefaultAutoScanMatchThreshold is the tighter per-corner distance used for auto capture.
	DefaultAutoScanMatchThreshold = 6.0
	// DefaultAutoScanPassThreshold is the number of tight passes that must be exceeded to capture.
	DefaultAutoScanPassThreshold = 30
	// DefaultMissThreshold is the number of consecutive misses tolerated before the selection is cleared.
	DefaultMissThreshold = 3
)

// Config holds the funnel's policy knobs.
type Config struct {
	WindowMin              int
	WindowMax              int
	MatchThreshold         float64
	AutoScanMatchThreshold float64
	AutoScanPassThreshold  int
	MissThreshold          int
}

// DefaultConfig returns a Config with the standard tuning.
func DefaultConfig() Config {
	return Config{
		WindowMin:              DefaultWindowMin,
		WindowMax:              DefaultWindowMax,
		MatchThreshold:         DefaultMatchThreshold,
		AutoScanMatchThreshold: DefaultAutoScanMatchThreshold,
		AutoScanPassThreshold:  DefaultAutoScanPassThreshold,
		MissThreshold:          DefaultMissThreshold,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.WindowMin < 1 {
		return fmt.Errorf("window min must be at least 1, got %d", c.WindowMin)
	}
	if c.WindowMax < c.WindowMin {
		return fmt.Errorf("window max (%d) must not be below window min (%d)", c.WindowMax, c.WindowMin)
	}
	if c.MatchThreshold < 0 || c.AutoScanMatchThreshold < 0 {
		return fmt.Errorf("match thresholds must not be negative")
	}
	if c.AutoScanPassThreshold < 0 || c.MissThreshold < 0 {
		return fmt.Errorf("pass and miss thresholds must not be negative")
	}
	return nil
}
