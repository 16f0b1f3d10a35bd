package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/docscan/internal/quad"
	"github.com/ayusman/docscan/internal/store"
)

// ScansHandler handles HTTP requests for scan resources.
type ScansHandler struct {
	store *store.Store
	ctrl  Controller
}

// NewScansHandler creates a new ScansHandler. ctrl may be nil, in which case
// scans are deleted from the store directly and plugins are not notified.
func NewScansHandler(s *store.Store, ctrl Controller) *ScansHandler {
	return &ScansHandler{store: s, ctrl: ctrl}
}

// ServeHTTP routes requests for the paths
//
//	/api/scans
//	/api/scans/{id}
//	/api/scans/{id}/image
//	/api/scans/{id}/thumb
//	/api/scans/{id}/hooks
func (h *ScansHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/scans")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch parts[1] {
	case "image":
		h.file(w, r, id, false)
	case "thumb":
		h.file(w, r, id, true)
	case "hooks":
		h.hooks(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type scanResponse struct {
	ID        string    `json:"id"`
	Trigger   string    `json:"trigger"`
	Corners   quad.Quad `json:"corners"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	ImageURL  string    `json:"image_url"`
	ThumbURL  string    `json:"thumb_url"`
	CreatedAt string    `json:"created_at"`
}

type listScansResponse struct {
	Scans []scanResponse `json:"scans"`
	Total int            `json:"total"`
}

type hookRunsResponse struct {
	Runs []store.HookRun `json:"runs"`
}

func toResponse(sc *store.Scan) scanResponse {
	return scanResponse{
		ID:        sc.ID,
		Trigger:   string(sc.Trigger),
		Corners:   sc.Corners,
		Width:     sc.Width,
		Height:    sc.Height,
		ImageURL:  "/api/scans/" + sc.ID + "/image",
		ThumbURL:  "/api/scans/" + sc.ID + "/thumb",
		CreatedAt: sc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/scans?limit=N, newest first.
func (h *ScansHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	scans, err := h.store.Scans().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scans")
		return
	}
	total, err := h.store.Scans().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count scans")
		return
	}

	response := listScansResponse{
		Scans: make([]scanResponse, 0, len(scans)),
		Total: total,
	}
	for _, sc := range scans {
		response.Scans = append(response.Scans, toResponse(sc))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/scans/{id}.
func (h *ScansHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sc, err := h.store.Scans().GetByID(id)
	if err != nil {
		writeErr(w, err, "Failed to get scan")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sc))
}

// delete handles DELETE /api/scans/{id}.
func (h *ScansHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	var err error
	if h.ctrl != nil {
		err = h.ctrl.DeleteScan(id)
	} else {
		err = h.store.Scans().Delete(id)
	}
	if err != nil {
		writeErr(w, err, "Failed to delete scan")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// file handles GET /api/scans/{id}/image and /api/scans/{id}/thumb.
func (h *ScansHandler) file(w http.ResponseWriter, r *http.Request, id string, thumb bool) {
	sc, err := h.store.Scans().GetByID(id)
	if err != nil {
		writeErr(w, err, "Failed to get scan")
		return
	}

	path := sc.ImagePath
	if thumb {
		path = sc.ThumbPath
	}
	if path == "" {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// hooks handles GET /api/scans/{id}/hooks.
func (h *ScansHandler) hooks(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Scans().GetByID(id); err != nil {
		writeErr(w, err, "Failed to get scan")
		return
	}

	runs, err := h.store.HookRuns().ListByScan(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hook runs")
		return
	}
	if runs == nil {
		runs = []store.HookRun{}
	}

	writeJSON(w, http.StatusOK, hookRunsResponse{Runs: runs})
}
