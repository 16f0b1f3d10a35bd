package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/docscan/internal/quad"
)

// SessionHandler exposes the live scanning session.
type SessionHandler struct {
	ctrl Controller
}

// NewSessionHandler creates a new SessionHandler driving ctrl.
func NewSessionHandler(ctrl Controller) *SessionHandler {
	return &SessionHandler{ctrl: ctrl}
}

// ServeHTTP routes /api/session, /api/session/reset and /api/session/capture.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r)
		case http.MethodPut:
			h.update(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "reset":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ctrl.ResetSession()
		h.get(w, r)
	case "capture":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := h.ctrl.RequestCapture(); err != nil {
			writeErr(w, err, "Failed to request capture")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sessionResponse struct {
	Scanning    bool       `json:"scanning"`
	AutoShutter bool       `json:"auto_shutter"`
	Action      string     `json:"action"`
	Displayed   *quad.Quad `json:"displayed"`
	PassCount   int        `json:"pass_count"`
	PassTarget  int        `json:"pass_target"`
	History     int        `json:"history"`
}

type updateSessionRequest struct {
	AutoShutter *bool `json:"auto_shutter"`
	Scanning    *bool `json:"scanning"`
}

// get handles GET /api/session.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	st := h.ctrl.SessionState()
	writeJSON(w, http.StatusOK, sessionResponse{
		Scanning:    h.ctrl.IsEnabled(),
		AutoShutter: st.AutoShutter,
		Action:      st.Action,
		Displayed:   st.Displayed,
		PassCount:   st.PassCount,
		PassTarget:  st.Config.AutoScanPassThreshold,
		History:     st.History,
	})
}

// update handles PUT /api/session. Omitted fields are left unchanged.
func (h *SessionHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.AutoShutter == nil && req.Scanning == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if req.Scanning != nil {
		h.ctrl.SetEnabled(*req.Scanning)
	}
	if req.AutoShutter != nil {
		if err := h.ctrl.SetAutoShutter(*req.AutoShutter); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update auto shutter")
			return
		}
	}

	h.get(w, r)
}
