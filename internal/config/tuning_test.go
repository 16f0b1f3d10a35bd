package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/docscan/internal/capture"
	"github.com/ayusman/docscan/internal/funnel"
	"github.com/ayusman/docscan/internal/overlay"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadTuningConfig_ShippedDefaults(t *testing.T) {
	cfg, err := LoadTuningConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("LoadTuningConfig() error = %v", err)
	}

	if got := cfg.Funnel(); got != funnel.DefaultConfig() {
		t.Errorf("Funnel() = %+v, want %+v", got, funnel.DefaultConfig())
	}
	if got := cfg.Light(); got != capture.DefaultLightConfig() {
		t.Errorf("Light() = %+v, want %+v", got, capture.DefaultLightConfig())
	}
	p, err := cfg.Palette()
	if err != nil {
		t.Fatalf("Palette() error = %v", err)
	}
	def := overlay.DefaultPalette()
	if overlay.RGBA(p.Normal) != overlay.RGBA(def.Normal) || overlay.RGBA(p.AutoScan) != overlay.RGBA(def.AutoScan) {
		t.Errorf("Palette() = %+v, want %+v", p, def)
	}
	if got := cfg.GetFrameInterval(); got != 100*time.Millisecond {
		t.Errorf("GetFrameInterval() = %v, want 100ms", got)
	}
	if !cfg.GetAutoShutter() {
		t.Error("GetAutoShutter() = false, want true")
	}
}

func TestLoadTuningConfig_Partial(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"auto_scan_pass_threshold": 10, "dark_mean": 50, "auto_shutter": false}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig() error = %v", err)
	}

	f := cfg.Funnel()
	if f.AutoScanPassThreshold != 10 {
		t.Errorf("AutoScanPassThreshold = %d, want 10", f.AutoScanPassThreshold)
	}
	if f.WindowMax != funnel.DefaultWindowMax {
		t.Errorf("WindowMax = %d, want default %d", f.WindowMax, funnel.DefaultWindowMax)
	}
	if l := cfg.Light(); l.DarkMean != 50 || l.LowContrastStdDev != capture.DefaultLowContrastStdDev {
		t.Errorf("Light() = %+v", l)
	}
	if cfg.GetAutoShutter() {
		t.Error("GetAutoShutter() = true, want false")
	}
	if got := cfg.GetPluginTimeout(); got != 10*time.Second {
		t.Errorf("GetPluginTimeout() = %v, want default 10s", got)
	}
	if got := cfg.GetLineThickness(); got != overlay.DefaultThickness {
		t.Errorf("GetLineThickness() = %d, want %d", got, overlay.DefaultThickness)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "tuning.yaml", `{}`, ".json extension"},
		{"bad json", "tuning.json", `{`, "parse config JSON"},
		{"window max below min", "tuning.json", `{"window_min": 5, "window_max": 4}`, "window max"},
		{"negative threshold", "tuning.json", `{"match_threshold": -1}`, "match thresholds"},
		{"zero light interval", "tuning.json", `{"light_interval": 0}`, "light_interval"},
		{"bad color", "tuning.json", `{"normal_color": "teal"}`, "normal color"},
		{"bad duration", "tuning.json", `{"frame_interval": "soon"}`, "frame_interval"},
		{"negative duration", "tuning.json", `{"plugin_timeout": "-1s"}`, "plugin_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadTuningConfig(path)
			if err == nil {
				t.Fatal("LoadTuningConfig() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTuningConfig_Missing(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadTuningConfig() should fail for a missing file")
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	big := `{"normal_color": "#6CAAEC"` + strings.Repeat(" ", maxFileSize) + `}`
	path := writeConfig(t, "big.json", big)

	_, err := LoadTuningConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("LoadTuningConfig() error = %v, want too large", err)
	}
}

func TestEmptyTuningConfig_Defaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := cfg.Funnel(); got != funnel.DefaultConfig() {
		t.Errorf("Funnel() = %+v, want defaults", got)
	}
	if got := cfg.GetFrameInterval(); got != 100*time.Millisecond {
		t.Errorf("GetFrameInterval() = %v, want 100ms", got)
	}
}

func TestResolveTuningConfig(t *testing.T) {
	tests := []struct {
		name        string
		defaultFile string // contents of DefaultConfigPath in the working dir, "" for none
		path        string // explicit path, relative to the working dir
		explicit    string // contents written at path
		wantSource  string
		wantPass    int
		wantErr     bool
	}{
		{
			name:       "no flag and no default file",
			wantSource: "",
			wantPass:   funnel.DefaultConfig().AutoScanPassThreshold,
		},
		{
			name:        "no flag loads default file",
			defaultFile: `{"auto_scan_pass_threshold": 7}`,
			wantSource:  DefaultConfigPath,
			wantPass:    7,
		},
		{
			name:        "flag wins over default file",
			defaultFile: `{"auto_scan_pass_threshold": 7}`,
			path:        "custom.json",
			explicit:    `{"auto_scan_pass_threshold": 4}`,
			wantSource:  "custom.json",
			wantPass:    4,
		},
		{
			name:        "broken default file",
			defaultFile: `{"auto_scan_pass_threshold": -1}`,
			wantErr:     true,
		},
		{
			name:    "missing explicit file",
			path:    "missing.json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)

			if tt.defaultFile != "" {
				if err := os.MkdirAll(filepath.Dir(DefaultConfigPath), 0755); err != nil {
					t.Fatalf("failed to create config dir: %v", err)
				}
				if err := os.WriteFile(DefaultConfigPath, []byte(tt.defaultFile), 0644); err != nil {
					t.Fatalf("failed to write default config: %v", err)
				}
			}
			if tt.explicit != "" {
				if err := os.WriteFile(tt.path, []byte(tt.explicit), 0644); err != nil {
					t.Fatalf("failed to write config: %v", err)
				}
			}

			cfg, source, err := ResolveTuningConfig(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ResolveTuningConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTuningConfig() error = %v", err)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
			if got := cfg.Funnel().AutoScanPassThreshold; got != tt.wantPass {
				t.Errorf("AutoScanPassThreshold = %d, want %d", got, tt.wantPass)
			}
		})
	}
}
