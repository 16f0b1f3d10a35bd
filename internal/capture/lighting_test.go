package capture

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewLightMeter_Interval(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		want     int
	}{
		{"default", DefaultLightInterval, DefaultLightInterval},
		{"zero measures every frame", 0, 1},
		{"negative measures every frame", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLightConfig()
			cfg.Interval = tt.interval
			m := NewLightMeter(cfg)
			if m.config.Interval != tt.want {
				t.Errorf("Interval = %d, want %d", m.config.Interval, tt.want)
			}
		})
	}
}

func TestLightMeter_BlackFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	m := NewLightMeter(DefaultLightConfig())
	h := m.Measure(&frame)

	if !h.Dark {
		t.Errorf("black frame Dark = false, mean = %f", h.Mean)
	}
	if !h.LowContrast {
		t.Errorf("black frame LowContrast = false, stddev = %f", h.StdDev)
	}
}

func TestLightMeter_SplitFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	// Left half white, right half black: mean ~127, stddev ~127.
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	left := frame.Region(image.Rect(0, 0, 320, 480))
	left.SetTo(gocv.NewScalar(255, 255, 255, 0))
	left.Close()

	m := NewLightMeter(DefaultLightConfig())
	h := m.Measure(&frame)

	if h.Dark {
		t.Errorf("split frame Dark = true, mean = %f", h.Mean)
	}
	if h.LowContrast {
		t.Errorf("split frame LowContrast = true, stddev = %f", h.StdDev)
	}
}

func TestLightMeter_ObserveInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	m := NewLightMeter(DefaultLightConfig())

	// Frame 1 is measured.
	if h := m.Observe(&black); !h.Dark {
		t.Fatal("first frame should be measured as dark")
	}
	// Frames 2-5 reuse the first measurement.
	for i := 2; i <= DefaultLightInterval; i++ {
		if h := m.Observe(&white); !h.Dark {
			t.Fatalf("frame %d was measured, want cached hints", i)
		}
	}
	// Frame 6 is measured again.
	if h := m.Observe(&white); h.Dark {
		t.Error("frame 6 should be measured as bright")
	}

	m.Reset()
	if got := m.Last(); got != (Hints{}) {
		t.Errorf("Last() after Reset = %+v, want zero", got)
	}
}

func TestLightMeter_EmptyFrame(t *testing.T) {
	m := NewLightMeter(DefaultLightConfig())
	if got := m.Measure(nil); got != (Hints{}) {
		t.Errorf("Measure(nil) = %+v, want zero", got)
	}
}
