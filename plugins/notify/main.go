// Package main provides a notification plugin for macOS.
// It announces captured scans via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event   string          `json:"event"`
	ScanID  string          `json:"scan_id"`
	Trigger string          `json:"trigger"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config is the plugin configuration.
type Config struct {
	Sound string `json:"sound"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		json.Unmarshal(req.Config, &cfg)
	}

	writeResponse(notify(req, cfg))
}

func notify(req Request, cfg Config) error {
	title := "Document captured"
	if req.Trigger == "auto" {
		title = "Document auto-captured"
	}

	script := fmt.Sprintf(`display notification %s with title %s`, quote("Scan "+req.ScanID), quote(title))
	if cfg.Sound != "" {
		script += " sound name " + quote(cfg.Sound)
	}
	return runAppleScript(script)
}

// quote returns s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
