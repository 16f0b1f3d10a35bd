// Package tray provides a macOS system tray interface for the document scanner.
package tray

import (
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle      func(enabled bool)
	onAutoShutter func(enabled bool)
	onCapture     func()
	onOpen        func()
	onQuit        func()
	enabled       bool
	autoShutter   bool
	lastScan      string
	mu            sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuAutoShutter *systray.MenuItem
	menuLastScan    *systray.MenuItem
}

// New creates a new Tray instance with scanning and auto shutter enabled.
func New() *Tray {
	return &Tray{
		enabled:     true,
		autoShutter: true,
	}
}

// OnToggle sets the callback function to be called when scanning is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnAutoShutter sets the callback function to be called when auto shutter is toggled.
func (t *Tray) OnAutoShutter(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAutoShutter = fn
}

// OnCapture sets the callback for the capture menu item.
func (t *Tray) OnCapture(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCapture = fn
}

// OnOpen sets the callback function to be called when the open menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("DocScan")
	systray.SetTooltip("DocScan Document Scanner")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(scanningTitle(t.enabled), "Toggle document scanning")
	t.menuAutoShutter = systray.AddMenuItem(autoShutterTitle(t.autoShutter), "Capture automatically when the document is steady")
	systray.AddSeparator()

	t.menuLastScan = systray.AddMenuItem(lastScanTitle(t.lastScan), "Most recent scan")
	t.menuLastScan.Disable()
	t.mu.Unlock()

	menuCapture := systray.AddMenuItem("Capture Now", "Capture the current frame")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Scanner...", "Open the scanner in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit DocScan")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuAutoShutter.ClickedCh:
				t.handleAutoShutter()
			case <-menuCapture.ClickedCh:
				t.handleCapture()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func scanningTitle(enabled bool) string {
	if enabled {
		return "● Scanning"
	}
	return "○ Paused"
}

func autoShutterTitle(enabled bool) string {
	if enabled {
		return "✓ Auto Capture"
	}
	return "   Auto Capture"
}

func lastScanTitle(label string) string {
	if label == "" {
		return "Last scan: none"
	}
	return "Last scan: " + label
}

// handleToggle handles the scanning menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(scanningTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleAutoShutter handles the auto capture menu item click.
func (t *Tray) handleAutoShutter() {
	t.mu.Lock()
	t.autoShutter = !t.autoShutter
	enabled := t.autoShutter

	if t.menuAutoShutter != nil {
		t.menuAutoShutter.SetTitle(autoShutterTitle(enabled))
	}

	callback := t.onAutoShutter
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

// handleCapture handles the capture menu item click.
func (t *Tray) handleCapture() {
	t.mu.RLock()
	callback := t.onCapture
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleOpen handles the open menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastScan updates the last scan display in the menu.
func (t *Tray) SetLastScan(trigger string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastScan = ""
	if !at.IsZero() {
		t.lastScan = at.Format("15:04:05") + " (" + trigger + ")"
	}
	if t.menuLastScan != nil {
		t.menuLastScan.SetTitle(lastScanTitle(t.lastScan))
	}
}

// SetAutoShutter sets the auto capture state without invoking the callback.
func (t *Tray) SetAutoShutter(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.autoShutter = enabled
	if t.menuAutoShutter != nil {
		t.menuAutoShutter.SetTitle(autoShutterTitle(enabled))
	}
}

// IsEnabled returns the current scanning state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// AutoShutter returns the current auto capture state.
func (t *Tray) AutoShutter() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.autoShutter
}
