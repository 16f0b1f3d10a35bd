// Package api provides HTTP API handlers for the document scanner.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/docscan/internal/app"
	"github.com/ayusman/docscan/internal/session"
	"github.com/ayusman/docscan/internal/store"
)

// Controller is the part of the scanning pipeline the API drives.
// *app.App implements it.
type Controller interface {
	SessionState() session.State
	IsEnabled() bool
	SetEnabled(enabled bool)
	AutoShutter() bool
	SetAutoShutter(enabled bool) error
	ResetSession()
	RequestCapture() error
	DeleteScan(id string) error
}

var _ Controller = (*app.App)(nil)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeErr maps known errors to a status code, falling back to 500 with
// fallback as the message.
func writeErr(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Scan not found")
	case errors.Is(err, app.ErrNotRunning):
		writeError(w, http.StatusConflict, "Scanning pipeline is not running")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
