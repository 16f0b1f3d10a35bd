package api

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/docscan/internal/app"
	"github.com/ayusman/docscan/internal/funnel"
	"github.com/ayusman/docscan/internal/quad"
	"github.com/ayusman/docscan/internal/quad/quadtest"
	"github.com/ayusman/docscan/internal/session"
	"github.com/ayusman/docscan/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// createScan stores a scan whose image and thumbnail are small files in a
// temp dir.
func createScan(t *testing.T, s *store.Store, id string) *store.Scan {
	t.Helper()

	dir := t.TempDir()
	image := filepath.Join(dir, id+".jpg")
	thumb := filepath.Join(dir, id+"_thumb.jpg")
	if err := os.WriteFile(image, []byte("full"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	if err := os.WriteFile(thumb, []byte("thumb"), 0644); err != nil {
		t.Fatalf("failed to write thumb: %v", err)
	}

	sc := &store.Scan{
		ID:        id,
		Trigger:   store.TriggerAuto,
		Corners:   quadtest.Rect(10, 20, 300, 400),
		ImagePath: image,
		ThumbPath: thumb,
		Width:     640,
		Height:    480,
	}
	if err := s.Scans().Create(sc); err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}
	return sc
}

// fakeController records calls made by the handlers.
type fakeController struct {
	mu          sync.Mutex
	enabled     bool
	autoShutter bool
	displayed   *quad.Quad
	resets      int
	captures    int
	running     bool
	deleted     []string
	store       *store.Store
	shutterErr  error
}

func newFakeController(s *store.Store) *fakeController {
	return &fakeController{enabled: true, autoShutter: true, running: true, store: s}
}

func (c *fakeController) SessionState() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.State{
		Displayed:   c.displayed,
		Action:      funnel.ActionShow.String(),
		AutoShutter: c.autoShutter,
		PassCount:   4,
		History:     8,
		Config:      funnel.DefaultConfig(),
	}
}

func (c *fakeController) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *fakeController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *fakeController) AutoShutter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoShutter
}

func (c *fakeController) SetAutoShutter(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutterErr != nil {
		return c.shutterErr
	}
	c.autoShutter = enabled
	return nil
}

func (c *fakeController) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	c.displayed = nil
}

func (c *fakeController) RequestCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return app.ErrNotRunning
	}
	c.captures++
	return nil
}

func (c *fakeController) DeleteScan(id string) error {
	c.mu.Lock()
	c.deleted = append(c.deleted, id)
	c.mu.Unlock()
	if c.store == nil {
		return store.ErrNotFound
	}
	return c.store.Scans().Delete(id)
}
