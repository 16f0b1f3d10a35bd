// Package app wires the camera, detector, funnel session and capture hooks
// into the scanning pipeline.
package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/docscan/internal/capture"
	"github.com/ayusman/docscan/internal/detector"
	"github.com/ayusman/docscan/internal/funnel"
	"github.com/ayusman/docscan/internal/overlay"
	"github.com/ayusman/docscan/internal/plugin"
	"github.com/ayusman/docscan/internal/session"
	"github.com/ayusman/docscan/internal/store"
)

// Debug enables per-frame trace logging.
var Debug bool

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("[debug] "+format, args...)
	}
}

// ErrNotRunning is returned by operations that need the pipeline running.
var ErrNotRunning = errors.New("pipeline is not running")

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	SnapshotDir   string
	Camera        capture.Config
	Funnel        funnel.Config
	Light         capture.LightConfig
	Palette       overlay.Palette
	LineThickness int
	FrameInterval time.Duration
	PluginTimeout time.Duration
	AutoShutter   bool
}

// DefaultConfig returns a Config with default tuning and no storage.
func DefaultConfig() Config {
	return Config{
		Camera:        capture.DefaultConfig(),
		Funnel:        funnel.DefaultConfig(),
		Light:         capture.DefaultLightConfig(),
		Palette:       overlay.DefaultPalette(),
		LineThickness: overlay.DefaultThickness,
		FrameInterval: 100 * time.Millisecond,
		PluginTimeout: 10 * time.Second,
		AutoShutter:   true,
	}
}

// App is the main application that runs the scanning pipeline.
type App struct {
	config     Config
	camera     capture.Camera
	light      *capture.LightMeter
	detector   detector.Detector
	session    *session.Session
	pluginMgr  *plugin.Manager
	dispatcher *plugin.Dispatcher
	publisher  Publisher

	enabled       bool
	manualCapture bool
	lastScan      *store.Scan
	onCapture     []func(*store.Scan)
	mu            sync.RWMutex
	stopCh        chan struct{}
	doneCh        chan struct{}

	preview   *gocv.Mat
	previewMu sync.Mutex

	hooks sync.WaitGroup
	// hooksClosed is set under mu once Stop waits on hooks.
	hooksClosed bool
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	def := DefaultConfig()
	if config.FrameInterval <= 0 {
		config.FrameInterval = def.FrameInterval
	}
	if config.PluginTimeout <= 0 {
		config.PluginTimeout = def.PluginTimeout
	}
	if config.LineThickness <= 0 {
		config.LineThickness = def.LineThickness
	}
	if config.Funnel == (funnel.Config{}) {
		config.Funnel = def.Funnel
	}
	if config.Light == (capture.LightConfig{}) {
		config.Light = def.Light
	}
	if config.Palette == (overlay.Palette{}) {
		config.Palette = def.Palette
	}
	if config.SnapshotDir == "" {
		config.SnapshotDir = filepath.Join(os.TempDir(), "docscan", "scans")
	}

	autoShutter := config.AutoShutter
	if config.Store != nil {
		autoShutter = config.Store.Settings().GetBool(store.SettingAutoShutter, autoShutter)
	}

	pluginMgr := plugin.NewManager(config.PluginDir)
	a := &App{
		config:     config,
		camera:     capture.NewCameraWithConfig(config.Camera),
		light:      capture.NewLightMeter(config.Light),
		session:    session.New(config.Funnel, autoShutter),
		pluginMgr:  pluginMgr,
		dispatcher: plugin.NewDispatcher(pluginMgr, plugin.NewExecutor(int(config.PluginTimeout/time.Millisecond))),
		publisher:  nopPublisher{},
		enabled:    true,
	}

	return a
}

// UseDetector picks the external detector when cfg names one, falling back
// to a mock that never finds a document.
func (a *App) UseDetector(cfg detector.Config) {
	if d, err := detector.NewSubprocessDetector(cfg); err == nil {
		a.SetDetector(d)
		log.Printf("Using detector process %s", cfg.Command)
	} else {
		log.Printf("Detector not available (%v), using mock detector", err)
		a.SetDetector(detector.NewMockDetector())
	}
}

// SetDetector sets the document detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the document detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetCamera replaces the frame source. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// SetPublisher sets the receiver of pipeline events.
func (a *App) SetPublisher(p Publisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p == nil {
		p = nopPublisher{}
	}
	a.publisher = p
}

// OnCapture registers a callback invoked after each stored scan.
func (a *App) OnCapture(fn func(*store.Scan)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCapture = append(a.onCapture, fn)
}

// SetEnabled enables or disables scanning. Disabling drops the current
// selection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled && !enabled {
		a.session.Acknowledge()
		a.light.Reset()
	}
	a.enabled = enabled
}

// IsEnabled returns whether scanning is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetAutoShutter turns auto capture on or off and remembers the choice.
func (a *App) SetAutoShutter(enabled bool) error {
	a.session.SetAutoShutter(enabled)
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingAutoShutter, enabled); err != nil {
			return fmt.Errorf("save auto shutter setting: %w", err)
		}
	}
	log.Printf("Auto shutter set to %v", enabled)
	return nil
}

// AutoShutter reports whether auto capture is enabled.
func (a *App) AutoShutter() bool {
	return a.session.AutoShutter()
}

// SessionState returns the current funnel session state.
func (a *App) SessionState() session.State {
	return a.session.Snapshot()
}

// ResetSession drops the selection and the funnel history.
func (a *App) ResetSession() {
	a.session.Acknowledge()
}

// RequestCapture fires the shutter on the next processed frame.
func (a *App) RequestCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh == nil {
		return ErrNotRunning
	}
	a.manualCapture = true
	return nil
}

// LastScan returns the most recent scan captured by this process, or nil.
func (a *App) LastScan() *store.Scan {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastScan
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	log.Printf("Discovered %d plugins", len(a.pluginMgr.List()))
	return nil
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Start opens the camera and begins the scanning pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if a.detector == nil {
		a.detector = detector.NewMockDetector()
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.hooksClosed = false
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Scanning pipeline started")
	return nil
}

// Stop halts the pipeline, waits for running hooks and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	// No hook may be added once Wait has started.
	a.mu.Lock()
	a.hooksClosed = true
	a.mu.Unlock()
	a.hooks.Wait()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.previewMu.Lock()
	if a.preview != nil {
		a.preview.Close()
		a.preview = nil
	}
	a.previewMu.Unlock()

	log.Println("Scanning pipeline stopped")
}

// WaitHooks blocks until every running post-capture hook has finished.
func (a *App) WaitHooks() {
	a.hooks.Wait()
}

// Preview returns a copy of the latest annotated frame. The caller must
// close it. ok is false before the first frame.
func (a *App) Preview() (frame gocv.Mat, ok bool) {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()
	if a.preview == nil {
		return gocv.Mat{}, false
	}
	return a.preview.Clone(), true
}

func (a *App) setPreview(frame *gocv.Mat) {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()
	if a.preview != nil {
		a.preview.Close()
	}
	a.preview = frame
}
