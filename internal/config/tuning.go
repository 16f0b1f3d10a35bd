// Package config loads scanner tuning overrides from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/docscan/internal/capture"
	"github.com/ayusman/docscan/internal/funnel"
	"github.com/ayusman/docscan/internal/overlay"
)

// DefaultConfigPath is the path to the shipped tuning file.
const DefaultConfigPath = "config/tuning.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds optional overrides. A nil field keeps the built-in default.
type TuningConfig struct {
	// Funnel params
	WindowMin              *int     `json:"window_min,omitempty"`
	WindowMax              *int     `json:"window_max,omitempty"`
	MatchThreshold         *float64 `json:"match_threshold,omitempty"`
	AutoScanMatchThreshold *float64 `json:"auto_scan_match_threshold,omitempty"`
	AutoScanPassThreshold  *int     `json:"auto_scan_pass_threshold,omitempty"`
	MissThreshold          *int     `json:"miss_threshold,omitempty"`

	// Lighting params
	DarkMean          *float64 `json:"dark_mean,omitempty"`
	LowContrastStdDev *float64 `json:"low_contrast_std_dev,omitempty"`
	LightInterval     *int     `json:"light_interval,omitempty"`

	// Overlay params
	NormalColor   *string `json:"normal_color,omitempty"`
	AutoScanColor *string `json:"auto_scan_color,omitempty"`
	LineThickness *int    `json:"line_thickness,omitempty"`

	// Pipeline params
	FrameInterval *string `json:"frame_interval,omitempty"` // duration string like "100ms"
	PluginTimeout *string `json:"plugin_timeout,omitempty"` // duration string like "10s"
	AutoShutter   *bool   `json:"auto_shutter,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ResolveTuningConfig loads path when it is set. With an empty path it loads
// DefaultConfigPath if that file exists and otherwise returns an empty config.
// The returned source names the file that was loaded, or is empty.
func ResolveTuningConfig(path string) (cfg *TuningConfig, source string, err error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err != nil {
			if os.IsNotExist(err) {
				return EmptyTuningConfig(), "", nil
			}
			return nil, "", fmt.Errorf("failed to stat default config: %w", err)
		}
		path = DefaultConfigPath
	}

	cfg, err = LoadTuningConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if err := c.Funnel().Validate(); err != nil {
		return err
	}

	if c.LightInterval != nil && *c.LightInterval < 1 {
		return fmt.Errorf("light_interval must be at least 1, got %d", *c.LightInterval)
	}
	if c.LineThickness != nil && *c.LineThickness < 1 {
		return fmt.Errorf("line_thickness must be at least 1, got %d", *c.LineThickness)
	}

	if _, err := c.Palette(); err != nil {
		return err
	}

	for name, v := range map[string]*string{
		"frame_interval": c.FrameInterval,
		"plugin_timeout": c.PluginTimeout,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	return nil
}

// Funnel returns the funnel configuration with overrides applied.
func (c *TuningConfig) Funnel() funnel.Config {
	cfg := funnel.DefaultConfig()
	if c.WindowMin != nil {
		cfg.WindowMin = *c.WindowMin
	}
	if c.WindowMax != nil {
		cfg.WindowMax = *c.WindowMax
	}
	if c.MatchThreshold != nil {
		cfg.MatchThreshold = *c.MatchThreshold
	}
	if c.AutoScanMatchThreshold != nil {
		cfg.AutoScanMatchThreshold = *c.AutoScanMatchThreshold
	}
	if c.AutoScanPassThreshold != nil {
		cfg.AutoScanPassThreshold = *c.AutoScanPassThreshold
	}
	if c.MissThreshold != nil {
		cfg.MissThreshold = *c.MissThreshold
	}
	return cfg
}

// Light returns the light meter configuration with overrides applied.
func (c *TuningConfig) Light() capture.LightConfig {
	cfg := capture.DefaultLightConfig()
	if c.DarkMean != nil {
		cfg.DarkMean = *c.DarkMean
	}
	if c.LowContrastStdDev != nil {
		cfg.LowContrastStdDev = *c.LowContrastStdDev
	}
	if c.LightInterval != nil {
		cfg.Interval = *c.LightInterval
	}
	return cfg
}

// Palette returns the overlay colors with overrides applied.
func (c *TuningConfig) Palette() (overlay.Palette, error) {
	normal, autoScan := overlay.DefaultNormalColor, overlay.DefaultAutoScanColor
	if c.NormalColor != nil {
		normal = *c.NormalColor
	}
	if c.AutoScanColor != nil {
		autoScan = *c.AutoScanColor
	}
	return overlay.ParsePalette(normal, autoScan)
}

// GetLineThickness returns the outline thickness or the default.
func (c *TuningConfig) GetLineThickness() int {
	if c.LineThickness == nil {
		return overlay.DefaultThickness
	}
	return *c.LineThickness
}

// GetFrameInterval returns the pipeline frame interval or the default.
func (c *TuningConfig) GetFrameInterval() time.Duration {
	return parseDurationOr(c.FrameInterval, 100*time.Millisecond)
}

// GetPluginTimeout returns the plugin execution timeout or the default.
func (c *TuningConfig) GetPluginTimeout() time.Duration {
	return parseDurationOr(c.PluginTimeout, 10*time.Second)
}

// GetAutoShutter returns the initial auto-shutter state or the default.
func (c *TuningConfig) GetAutoShutter() bool {
	if c.AutoShutter == nil {
		return true
	}
	return *c.AutoShutter
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}
