// Package funnel stabilizes a noisy per-frame stream of detected quads.
//
// Every candidate enters a bounded history. Once enough candidates are
// present, each entry is scored by how many other entries it agrees with and
// the best-scoring entry becomes the selection. A second, tighter agreement
// check against the quad currently on screen drives auto capture.
//
// A Funnel is not safe for concurrent use; it expects one call to Add per
// processed frame from a single goroutine.
package funnel

import "github.com/ayusman/docscan/internal/quad"

// Action is the funnel's per-tick instruction to its consumer.
type Action int

const (
	// ActionNone leaves the display unchanged.
	ActionNone Action = iota
	// ActionShow displays the selected quad.
	ActionShow
	// ActionShowAndAutoCapture displays the selected quad and triggers a capture.
	ActionShowAndAutoCapture
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionShow:
		return "show"
	case ActionShowAndAutoCapture:
		return "show_and_auto_capture"
	}
	return "unknown"
}

// Directive is the result of one Add call.
type Directive struct {
	Action Action
	// Quad is the selected quad. Only set when Action is not ActionNone.
	Quad quad.Quad
	// Clear is set when too many consecutive frames had no candidate and
	// the consumer should drop the quad it is displaying.
	Clear bool
}

// Listener receives every directive other than ActionNone.
type Listener func(q quad.Quad, action Action)

// ContourMatch is a history entry: a candidate and its agreement score.
type ContourMatch struct {
	Quad  quad.Quad
	Score int
}

// Funnel selects a stable quad from a stream of candidates.
type Funnel struct {
	cfg       Config
	listener  Listener
	history   []ContourMatch
	passCount int
	misses    int
}

// New creates a Funnel. The listener may be nil when the caller only uses
// the returned directives.
func New(cfg Config, listener Listener) *Funnel {
	return &Funnel{
		cfg:      cfg,
		listener: listener,
		history:  make([]ContourMatch, 0, cfg.WindowMax+1),
	}
}

// Add feeds one frame's result into the funnel. candidate is nil when the
// detector found nothing; displayed is the quad the consumer is currently
// showing, or nil.
func (f *Funnel) Add(candidate, displayed *quad.Quad) Directive {
	if candidate == nil {
		return f.miss()
	}
	f.misses = 0

	f.history = append(f.history, ContourMatch{Quad: *candidate})
	if len(f.history) > f.cfg.WindowMax {
		copy(f.history, f.history[1:])
		f.history = f.history[:f.cfg.WindowMax]
	}
	if len(f.history) < f.cfg.WindowMin {
		return Directive{}
	}

	f.rescore()
	best := f.best(displayed)
	if best == nil {
		return Directive{}
	}

	if displayed != nil && quad.Matches(best.Quad, *displayed, f.cfg.AutoScanMatchThreshold) {
		f.passCount++
		if f.passCount <= f.cfg.AutoScanPassThreshold {
			// Holding steady on the displayed quad; nothing to redraw yet.
			return Directive{}
		}
		f.passCount = 0
		return f.emit(best.Quad, ActionShowAndAutoCapture)
	}

	// Auto capture needs consecutive tight matches, so a loose one restarts the count.
	f.passCount = 0
	return f.emit(best.Quad, ActionShow)
}

// Reset clears the history and the auto capture progress. Call it once a
// capture has been taken or the scanning session restarts.
func (f *Funnel) Reset() {
	f.history = f.history[:0]
	f.passCount = 0
	f.misses = 0
}

// ResetPassCount restarts auto capture progress without dropping history.
func (f *Funnel) ResetPassCount() {
	f.passCount = 0
}

// PassCount returns the number of consecutive tight matches so far.
func (f *Funnel) PassCount() int {
	return f.passCount
}

// Len returns the number of candidates in the history.
func (f *Funnel) Len() int {
	return len(f.history)
}

// History returns a copy of the current history, oldest first.
func (f *Funnel) History() []ContourMatch {
	out := make([]ContourMatch, len(f.history))
	copy(out, f.history)
	return out
}

// Config returns the funnel's configuration.
func (f *Funnel) Config() Config {
	return f.cfg
}

func (f *Funnel) miss() Directive {
	f.misses++
	if f.misses > f.cfg.MissThreshold {
		f.passCount = 0
		return Directive{Clear: true}
	}
	return Directive{}
}

func (f *Funnel) emit(q quad.Quad, action Action) Directive {
	if f.listener != nil {
		f.listener(q, action)
	}
	return Directive{Action: action, Quad: q}
}

// rescore sets every entry's score to one plus the number of other entries
// it matches within MatchThreshold.
func (f *Funnel) rescore() {
	for i := range f.history {
		f.history[i].Score = 1
	}
	for i := 0; i < len(f.history); i++ {
		for j := i + 1; j < len(f.history); j++ {
			if quad.Matches(f.history[i].Quad, f.history[j].Quad, f.cfg.MatchThreshold) {
				f.history[i].Score++
				f.history[j].Score++
			}
		}
	}
}

// best scans newest to oldest. A higher score always wins; an equal score
// goes through breakTie when there is a displayed quad, otherwise the newer
// entry is kept.
func (f *Funnel) best(displayed *quad.Quad) *ContourMatch {
	var best *ContourMatch
	for i := len(f.history) - 1; i >= 0; i-- {
		m := &f.history[i]
		switch {
		case best == nil:
			best = m
		case m.Score > best.Score:
			best = m
		case m.Score == best.Score && displayed != nil:
			best = f.breakTie(best, m, *displayed)
		}
	}
	return best
}

// breakTie prefers whichever of current and challenger matches displayed,
// checking current first.
func (f *Funnel) breakTie(current, challenger *ContourMatch, displayed quad.Quad) *ContourMatch {
	if quad.Matches(current.Quad, displayed, f.cfg.MatchThreshold) {
		return current
	}
	if quad.Matches(challenger.Quad, displayed, f.cfg.MatchThreshold) {
		return challenger
	}
	return current
}
