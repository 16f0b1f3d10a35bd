// Package main provides a plugin that archives captured scans.
// The image is copied into the configured directory next to a JSON sidecar
// holding the scan ID and the selected corners.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	ScanID    string          `json:"scan_id"`
	ImagePath string          `json:"image_path"`
	Corners   json.RawMessage `json:"corners,omitempty"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the plugin configuration.
type Config struct {
	Dir string `json:"dir"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "scan.captured" {
		writeErrorResponse(fmt.Sprintf("unsupported event: %s", req.Event))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}
	if cfg.Dir == "" {
		writeErrorResponse("config.dir is required")
		return
	}

	dest, err := archive(req, expandHome(cfg.Dir))
	if err != nil {
		writeErrorResponse(fmt.Sprintf("archive %s failed: %v", req.ScanID, err))
		return
	}

	data, _ := json.Marshal(map[string]string{"path": dest})
	writeSuccessResponse(data)
}

func archive(req Request, dir string) (string, error) {
	if req.ScanID == "" || req.ImagePath == "" {
		return "", fmt.Errorf("scan_id and image_path are required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, req.ScanID+filepath.Ext(req.ImagePath))
	if err := copyFile(req.ImagePath, dest); err != nil {
		return "", err
	}

	sidecar, err := json.MarshalIndent(map[string]json.RawMessage{
		"scan_id": mustJSON(req.ScanID),
		"corners": req.Corners,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, req.ScanID+".json"), sidecar, 0644); err != nil {
		return "", err
	}

	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
