package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/docscan/internal/app"
	"github.com/ayusman/docscan/internal/capture"
	"github.com/ayusman/docscan/internal/config"
	"github.com/ayusman/docscan/internal/detector"
	"github.com/ayusman/docscan/internal/server"
	"github.com/ayusman/docscan/internal/store"
	"github.com/ayusman/docscan/internal/tray"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		dataDir     = flag.String("data", "", "data directory (default ~/.docscan)")
		cameraID    = flag.Int("camera", 0, "camera device ID")
		tuningPath  = flag.String("tuning", "", "tuning config JSON file (default "+config.DefaultConfigPath+" when present)")
		detectorCmd = flag.String("detector", "", "document detector command line")
		pluginDir   = flag.String("plugins", "", "plugin directory (default <data>/plugins)")
		webDir      = flag.String("web", "", "static web directory")
		useTray     = flag.Bool("tray", runtime.GOOS == "darwin", "show the system tray menu")
		showVersion = flag.Bool("version", false, "print version information")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "docscan - live document scanner")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage: docscan [options]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Environment variables:")
		fmt.Fprintln(os.Stderr, "  DOCSCAN_LOG_LEVEL=debug    Enable per-frame debug logging")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("docscan %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if os.Getenv("DOCSCAN_LOG_LEVEL") == "debug" {
		app.Debug = true
		log.Printf("docscan %s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	// Initialize the store
	dir := *dataDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dir = filepath.Join(homeDir, ".docscan")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dir, "docscan.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	tuning, tuningSource, err := config.ResolveTuningConfig(*tuningPath)
	if err != nil {
		log.Fatalf("Failed to load tuning config: %v", err)
	}
	if tuningSource != "" {
		log.Printf("Loaded tuning from %s", tuningSource)
	}
	palette, err := tuning.Palette()
	if err != nil {
		log.Fatalf("Invalid overlay colors: %v", err)
	}

	plugins := *pluginDir
	if plugins == "" {
		plugins = filepath.Join(dir, "plugins")
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = *cameraID

	a := app.New(app.Config{
		Store:         st,
		PluginDir:     plugins,
		SnapshotDir:   filepath.Join(dir, "scans"),
		Camera:        camCfg,
		Funnel:        tuning.Funnel(),
		Light:         tuning.Light(),
		Palette:       palette,
		LineThickness: tuning.GetLineThickness(),
		FrameInterval: tuning.GetFrameInterval(),
		PluginTimeout: tuning.GetPluginTimeout(),
		AutoShutter:   tuning.GetAutoShutter(),
	})

	detCfg := detector.DefaultConfig()
	if fields := strings.Fields(*detectorCmd); len(fields) > 0 {
		detCfg.Command = fields[0]
		detCfg.Args = fields[1:]
	}
	a.UseDetector(detCfg)

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	hub := server.NewHub()
	a.SetPublisher(hub)

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start scanner: %v", err)
	}

	static := *webDir
	if static == "" {
		static = findWebDir(dir)
	}
	if static != "" {
		log.Printf("Serving static files from: %s", static)
	}

	srv := server.New(server.Config{
		StaticDir: static,
		Store:     st,
		App:       a,
		Preview:   a,
		Hub:       hub,
	})

	go func() {
		log.Printf("Starting server on %s", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdown := func() {
		a.Stop()
		hub.Close()
	}

	if *useTray {
		t := tray.New()
		t.SetAutoShutter(a.AutoShutter())
		t.OnToggle(a.SetEnabled)
		t.OnAutoShutter(func(enabled bool) {
			if err := a.SetAutoShutter(enabled); err != nil {
				log.Printf("Error saving auto shutter: %v", err)
			}
		})
		t.OnCapture(func() {
			if err := a.RequestCapture(); err != nil {
				log.Printf("Capture request failed: %v", err)
			}
		})
		t.OnOpen(func() { openBrowser(browserURL(*addr)) })
		t.OnQuit(shutdown)
		a.OnCapture(func(sc *store.Scan) {
			t.SetLastScan(string(sc.Trigger), sc.CreatedAt.Local())
		})
		if last, err := st.Scans().Latest(); err == nil {
			t.SetLastScan(string(last.Trigger), last.CreatedAt.Local())
		}
		t.Run()
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down")
	shutdown()
}

// browserURL turns a listen address like ":8080" into a local URL.
func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		log.Printf("Unsupported platform: %s", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
