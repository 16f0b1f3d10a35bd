package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/docscan/internal/store"
)

func TestScansHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewScansHandler(s, nil)

	createScan(t, s, "older")
	createScan(t, s, "newer")

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listScansResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Total != 2 || len(response.Scans) != 2 {
		t.Fatalf("expected 2 scans, got %d (total %d)", len(response.Scans), response.Total)
	}
	if response.Scans[0].ID != "newer" {
		t.Errorf("expected newest scan first, got %s", response.Scans[0].ID)
	}
	if response.Scans[0].ImageURL != "/api/scans/newer/image" {
		t.Errorf("unexpected image url %s", response.Scans[0].ImageURL)
	}
	if got := response.Scans[0].Corners.LeftTop(); got.X != 10 || got.Y != 20 {
		t.Errorf("unexpected left top corner %v", got)
	}
}

func TestScansHandler_ListLimit(t *testing.T) {
	s := newTestStore(t)
	handler := NewScansHandler(s, nil)

	for _, id := range []string{"a", "b", "c"} {
		createScan(t, s, id)
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{"no limit", "", http.StatusOK, 3},
		{"limit 2", "?limit=2", http.StatusOK, 2},
		{"zero means all", "?limit=0", http.StatusOK, 3},
		{"negative", "?limit=-1", http.StatusBadRequest, 0},
		{"not a number", "?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scans"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var response listScansResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(response.Scans) != tt.wantCount {
				t.Errorf("expected %d scans, got %d", tt.wantCount, len(response.Scans))
			}
			if response.Total != 3 {
				t.Errorf("expected total 3, got %d", response.Total)
			}
		})
	}
}

func TestScansHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewScansHandler(s, nil)
	createScan(t, s, "scan-1")

	t.Run("existing scan", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scans/scan-1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response scanResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Trigger != "auto" {
			t.Errorf("expected trigger auto, got %s", response.Trigger)
		}
		if response.Width != 640 || response.Height != 480 {
			t.Errorf("expected 640x480, got %dx%d", response.Width, response.Height)
		}
	})

	t.Run("missing scan", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scans/nope", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestScansHandler_Files(t *testing.T) {
	s := newTestStore(t)
	handler := NewScansHandler(s, nil)
	createScan(t, s, "scan-1")

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/api/scans/scan-1/image", http.StatusOK, "full"},
		{"/api/scans/scan-1/thumb", http.StatusOK, "thumb"},
		{"/api/scans/nope/image", http.StatusNotFound, ""},
		{"/api/scans/scan-1/other", http.StatusNotFound, ""},
		{"/api/scans/scan-1/image/extra", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody == "" {
				return
			}
			body, _ := io.ReadAll(rec.Body)
			if string(body) != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
				t.Errorf("expected Content-Type image/jpeg, got %s", ct)
			}
		})
	}
}

func TestScansHandler_Hooks(t *testing.T) {
	s := newTestStore(t)
	handler := NewScansHandler(s, nil)
	createScan(t, s, "scan-1")
	createScan(t, s, "scan-2")

	runs := []store.HookRun{
		{PluginName: "archive", Success: true, Output: []byte(`{"path":"/tmp/a.jpg"}`)},
		{PluginName: "notify", Success: false, Message: "exit status 1"},
	}
	if err := s.HookRuns().Record("scan-1", runs); err != nil {
		t.Fatalf("failed to record hook runs: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/scans/scan-1/hooks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response hookRunsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(response.Runs))
	}

	// A scan with no runs returns an empty list, not null.
	req = httptest.NewRequest(http.MethodGet, "/api/scans/scan-2/hooks", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["runs"]) != "[]" {
		t.Errorf("expected empty runs array, got %s", raw["runs"])
	}
}

func TestScansHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	ctrl := newFakeController(s)
	handler := NewScansHandler(s, ctrl)
	createScan(t, s, "scan-1")

	req := httptest.NewRequest(http.MethodDelete, "/api/scans/scan-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if len(ctrl.deleted) != 1 || ctrl.deleted[0] != "scan-1" {
		t.Errorf("expected delete through controller, got %v", ctrl.deleted)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/scans/scan-1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d on second delete, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestScansHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewScansHandler(s, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/scans"},
		{http.MethodPut, "/api/scans/scan-1"},
		{http.MethodPost, "/api/scans/scan-1/image"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
