package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/docscan/internal/app"
	"github.com/ayusman/docscan/internal/quad/quadtest"
	"github.com/ayusman/docscan/internal/store"
)

func newTestApp(t *testing.T) (*app.App, *store.Store) {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := app.DefaultConfig()
	cfg.Store = s
	cfg.SnapshotDir = filepath.Join(tmpDir, "scans")
	return app.New(cfg), s
}

func TestAPI_ScanWorkflow(t *testing.T) {
	a, s := newTestApp(t)

	image := filepath.Join(t.TempDir(), "scan.jpg")
	if err := os.WriteFile(image, []byte("jpeg"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	sc := &store.Scan{
		Trigger:   store.TriggerManual,
		Corners:   quadtest.Rect(0, 0, 640, 480),
		ImagePath: image,
		Width:     640,
		Height:    480,
	}
	if err := s.Scans().Create(sc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	srv := New(Config{Store: s, App: a})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List scans
	resp, err := client.Get(ts.URL + "/api/scans")
	if err != nil {
		t.Fatalf("GET /api/scans error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/scans status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Scans []struct {
			ID string `json:"id"`
		} `json:"scans"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Scans) != 1 || listed.Scans[0].ID != sc.ID {
		t.Fatalf("listed scans = %+v, want [%s]", listed.Scans, sc.ID)
	}

	// 2. Fetch the image
	resp, _ = client.Get(ts.URL + "/api/scans/" + sc.ID + "/image")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET image status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 3. Delete through the app
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/scans/"+sc.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	if _, err := os.Stat(image); !os.IsNotExist(err) {
		t.Error("image file not removed on delete")
	}

	// 4. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/scans/" + sc.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_SessionWorkflow(t *testing.T) {
	a, s := newTestApp(t)

	srv := New(Config{Store: s, App: a})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Auto shutter starts on
	resp, err := client.Get(ts.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET /api/session error = %v", err)
	}
	var state struct {
		Scanning    bool `json:"scanning"`
		AutoShutter bool `json:"auto_shutter"`
	}
	json.NewDecoder(resp.Body).Decode(&state)
	resp.Body.Close()

	if !state.Scanning || !state.AutoShutter {
		t.Fatalf("initial state = %+v, want scanning with auto shutter", state)
	}

	// 2. Turn auto shutter off; the choice is persisted
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/session", bytes.NewBufferString(`{"auto_shutter": false}`))
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/session status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	if s.Settings().GetBool(store.SettingAutoShutter, true) {
		t.Error("auto shutter setting not persisted")
	}

	// 3. Capture is refused while the pipeline is stopped
	resp, _ = client.Post(ts.URL+"/api/session/capture", "application/json", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("POST capture status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	srv := New(Config{Hub: hub})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/directives"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	q := quadtest.Rect(1, 2, 30, 40)
	hub.Publish(app.Event{Type: app.EventFrame, Action: "show", Corners: &q, PassCount: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got app.Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if got.Type != app.EventFrame || got.Action != "show" || got.PassCount != 3 {
		t.Errorf("event = %+v", got)
	}
	if got.Corners == nil || got.Corners.LeftTop().X != 1 {
		t.Errorf("corners = %v, want left top at x=1", got.Corners)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub()
	hub.Publish(app.Event{Type: app.EventCaptured, ScanID: "x"})
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", hub.Clients())
	}
}
