// Package plugin provides discovery and execution of post-capture hooks.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// For every event a plugin subscribes to, the executable is started with a
// JSON Request on stdin and must print a JSON Response on stdout.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/docscan/internal/quad"
)

// Events delivered to plugins.
const (
	EventScanCaptured = "scan.captured"
	EventScanDeleted  = "scan.deleted"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	Config       json.RawMessage `json:"config,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Event     string          `json:"event"`
	ScanID    string          `json:"scan_id"`
	Trigger   string          `json:"trigger,omitempty"`
	ImagePath string          `json:"image_path,omitempty"`
	ThumbPath string          `json:"thumb_path,omitempty"`
	Width     int             `json:"width,omitempty"`
	Height    int             `json:"height,omitempty"`
	Corners   *quad.Quad      `json:"corners,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribes to event.
func (p *Plugin) Handles(event string) bool {
	return slices.Contains(p.Manifest.Events, event)
}
