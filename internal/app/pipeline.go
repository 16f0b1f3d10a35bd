package app

import (
	"context"
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/docscan/internal/capture"
	"github.com/ayusman/docscan/internal/overlay"
	"github.com/ayusman/docscan/internal/plugin"
	"github.com/ayusman/docscan/internal/quad"
	"github.com/ayusman/docscan/internal/store"
)

// Event types published by the pipeline.
const (
	EventFrame    = "frame"
	EventCaptured = "captured"
)

// Event describes one processed frame or a finished capture.
type Event struct {
	Type        string        `json:"type"`
	Action      string        `json:"action"`
	Corners     *quad.Quad    `json:"corners,omitempty"`
	PassCount   int           `json:"pass_count"`
	Progress    float64       `json:"progress"`
	Color       string        `json:"color"`
	AutoShutter bool          `json:"auto_shutter"`
	Hints       capture.Hints `json:"hints"`
	ScanID      string        `json:"scan_id,omitempty"`
	Trigger     string        `json:"trigger,omitempty"`
	Timestamp   int64         `json:"timestamp"`
}

// Publisher receives pipeline events. Publish is called from the pipeline
// goroutine and must not block.
type Publisher interface {
	Publish(Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// runPipeline is the frame loop. Each tick reads a frame and hands it to
// processFrame until stopCh is closed.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrNoFrames) {
					debugf("Camera has no frame: %v", err)
				} else {
					log.Printf("Error reading frame: %v", err)
				}
				continue
			}

			a.processFrame(frame)
			frame.Close()
		}
	}
}

// processFrame runs one frame through the lighting check, the detector and
// the funnel session, captures if the session or the operator asks for it,
// and publishes the outcome.
func (a *App) processFrame(frame *gocv.Mat) Event {
	hints := a.light.Observe(frame)
	candidate := a.detect(frame)
	fr := a.session.Process(candidate)

	a.mu.Lock()
	manual := a.manualCapture
	a.manualCapture = false
	a.mu.Unlock()

	autoShutter := a.session.AutoShutter()
	progress := 0.0
	if threshold := a.config.Funnel.AutoScanPassThreshold; threshold > 0 {
		progress = float64(fr.PassCount) / float64(threshold)
	}
	color := a.config.Palette.Pick(fr.Action, autoShutter, progress)

	preview := frame.Clone()
	overlay.Draw(&preview, fr.Displayed, color, a.config.LineThickness)
	a.setPreview(&preview)

	ev := Event{
		Type:        EventFrame,
		Action:      fr.Action.String(),
		Corners:     fr.Displayed,
		PassCount:   fr.PassCount,
		Progress:    progress,
		Color:       color.Hex(),
		AutoShutter: autoShutter,
		Hints:       hints,
		Timestamp:   time.Now().UnixMilli(),
	}
	a.publish(ev)

	switch {
	case fr.Capture:
		log.Printf("Auto capture after %d stable frames", a.config.Funnel.AutoScanPassThreshold)
		a.capture(frame, fr.Displayed, store.TriggerAuto)
	case manual:
		corners := fr.Displayed
		if corners == nil {
			// Nothing selected: keep the whole frame.
			full := quad.Inset(quad.Size{W: float64(frame.Cols()), H: float64(frame.Rows())}, 0)
			corners = &full
		}
		a.capture(frame, corners, store.TriggerManual)
	}

	return ev
}

// detect returns the candidate quad for frame, or nil when the detector
// found nothing usable.
func (a *App) detect(frame *gocv.Mat) *quad.Quad {
	d := a.Detector()
	if d == nil {
		return nil
	}

	points, err := d.Detect(frame)
	if err != nil {
		log.Printf("Error detecting document: %v", err)
		return nil
	}
	if points == nil {
		return nil
	}

	q, err := quad.New(points)
	if err != nil {
		debugf("Discarding polygon: %v", err)
		return nil
	}
	return &q
}

// capture stores frame as a scan, starts the post-capture hooks and resets
// the session so the next document starts from scratch.
func (a *App) capture(frame *gocv.Mat, corners *quad.Quad, trigger store.Trigger) {
	defer a.session.Acknowledge()

	if a.config.Store == nil {
		log.Printf("Capture (%s) dropped: no store configured", trigger)
		return
	}

	id := store.NewScanID()
	snap, err := capture.SaveSnapshot(frame, a.config.SnapshotDir, id)
	if err != nil {
		log.Printf("Error saving snapshot: %v", err)
		return
	}

	scan := &store.Scan{
		ID:        id,
		Trigger:   trigger,
		Corners:   *corners,
		ImagePath: snap.ImagePath,
		ThumbPath: snap.ThumbPath,
		Width:     snap.Width,
		Height:    snap.Height,
	}
	if err := a.config.Store.Scans().Create(scan); err != nil {
		log.Printf("Error storing scan: %v", err)
		capture.RemoveSnapshot(snap.ImagePath, snap.ThumbPath)
		return
	}
	log.Printf("Captured scan %s (%s)", scan.ID, trigger)

	a.mu.Lock()
	a.lastScan = scan
	callbacks := append([]func(*store.Scan){}, a.onCapture...)
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(scan)
	}

	a.publish(Event{
		Type:        EventCaptured,
		Corners:     corners,
		AutoShutter: a.session.AutoShutter(),
		ScanID:      scan.ID,
		Trigger:     string(trigger),
		Timestamp:   time.Now().UnixMilli(),
	})

	a.runHooks(plugin.EventScanCaptured, scan)
}

// runHooks dispatches event to plugins in the background and records the
// results against the scan.
func (a *App) runHooks(event string, scan *store.Scan) {
	if len(a.pluginMgr.Subscribers(event)) == 0 {
		return
	}

	corners := scan.Corners
	req := &plugin.Request{
		Event:     event,
		ScanID:    scan.ID,
		Trigger:   string(scan.Trigger),
		ImagePath: scan.ImagePath,
		ThumbPath: scan.ThumbPath,
		Width:     scan.Width,
		Height:    scan.Height,
		Corners:   &corners,
	}

	a.mu.Lock()
	if a.hooksClosed {
		a.mu.Unlock()
		log.Printf("Skipping %s hooks for %s: app stopped", event, scan.ID)
		return
	}
	a.hooks.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.hooks.Done()

		results := a.dispatcher.Dispatch(context.Background(), req)
		if event != plugin.EventScanCaptured || a.config.Store == nil {
			return
		}

		runs := make([]store.HookRun, len(results))
		for i, r := range results {
			runs[i] = store.HookRun{
				PluginName: r.Plugin,
				Success:    r.OK(),
				Message:    r.Message(),
			}
			if r.Response != nil {
				runs[i].Output = r.Response.Data
			}
		}
		if err := a.config.Store.HookRuns().Record(scan.ID, runs); err != nil {
			log.Printf("Error recording hook results for %s: %v", scan.ID, err)
		}
	}()
}

// DeleteScan removes a scan, its files and notifies plugins.
func (a *App) DeleteScan(id string) error {
	if a.config.Store == nil {
		return store.ErrNotFound
	}

	scan, err := a.config.Store.Scans().GetByID(id)
	if err != nil {
		return err
	}
	if err := a.config.Store.Scans().Delete(id); err != nil {
		return err
	}
	if err := capture.RemoveSnapshot(scan.ImagePath, scan.ThumbPath); err != nil {
		log.Printf("Error removing files of scan %s: %v", id, err)
	}

	a.mu.Lock()
	if a.lastScan != nil && a.lastScan.ID == id {
		a.lastScan = nil
	}
	a.mu.Unlock()

	a.runHooks(plugin.EventScanDeleted, scan)
	return nil
}

func (a *App) publish(ev Event) {
	a.mu.RLock()
	p := a.publisher
	a.mu.RUnlock()
	p.Publish(ev)
}
