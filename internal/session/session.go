// Package session tracks what a scanning view is showing and decides when to
// fire the shutter.
package session

import (
	"sync"

	"github.com/ayusman/docscan/internal/funnel"
	"github.com/ayusman/docscan/internal/quad"
)

// Frame is the outcome of processing one camera frame.
type Frame struct {
	// Displayed is the quad the view should draw, or nil.
	Displayed *quad.Quad
	// Action is the last action the funnel emitted for Displayed.
	Action funnel.Action
	// Capture is set when the shutter should fire for this frame.
	Capture bool
	// PassCount is the funnel's auto capture progress after this frame.
	PassCount int
}

// State is a read-only snapshot of a session.
type State struct {
	Displayed   *quad.Quad    `json:"displayed,omitempty"`
	Action      string        `json:"action"`
	AutoShutter bool          `json:"auto_shutter"`
	PassCount   int           `json:"pass_count"`
	History     int           `json:"history"`
	Config      funnel.Config `json:"-"`
}

// Session owns the displayed quad and the funnel that updates it. Process
// is called from the frame loop; the remaining methods may be called from
// other goroutines.
type Session struct {
	mu          sync.Mutex
	funnel      *funnel.Funnel
	displayed   *quad.Quad
	action      funnel.Action
	autoShutter bool
}

// New creates a Session with the given funnel configuration.
func New(cfg funnel.Config, autoShutter bool) *Session {
	s := &Session{autoShutter: autoShutter}
	s.funnel = funnel.New(cfg, s.onDirective)
	return s
}

// onDirective is the funnel listener. It runs inside Process with mu held.
func (s *Session) onDirective(q quad.Quad, action funnel.Action) {
	s.displayed = &q
	s.action = action
}

// Process feeds one frame's candidate into the funnel. candidate is nil
// when the detector found no document.
func (s *Session) Process(candidate *quad.Quad) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *quad.Quad
	if s.displayed != nil {
		q := *s.displayed
		prev = &q
	}

	d := s.funnel.Add(candidate, prev)
	if d.Clear {
		s.displayed = nil
		s.action = funnel.ActionNone
	}

	return Frame{
		Displayed: s.displayedCopy(),
		Action:    s.action,
		Capture:   d.Action == funnel.ActionShowAndAutoCapture && s.autoShutter,
		PassCount: s.funnel.PassCount(),
	}
}

// Acknowledge marks a capture as finalized: the funnel starts over and the
// selection is dropped so consecutive captures never share progress.
func (s *Session) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funnel.Reset()
	s.displayed = nil
	s.action = funnel.ActionNone
}

// SetAutoShutter turns auto capture on or off. Turning it on restarts the
// auto capture progress.
func (s *Session) SetAutoShutter(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled && !s.autoShutter {
		s.funnel.ResetPassCount()
	}
	s.autoShutter = enabled
}

// AutoShutter reports whether auto capture is enabled.
func (s *Session) AutoShutter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoShutter
}

// Displayed returns the quad currently on screen, or nil.
func (s *Session) Displayed() *quad.Quad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayedCopy()
}

// Snapshot returns the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Displayed:   s.displayedCopy(),
		Action:      s.action.String(),
		AutoShutter: s.autoShutter,
		PassCount:   s.funnel.PassCount(),
		History:     s.funnel.Len(),
		Config:      s.funnel.Config(),
	}
}

func (s *Session) displayedCopy() *quad.Quad {
	if s.displayed == nil {
		return nil
	}
	q := *s.displayed
	return &q
}
