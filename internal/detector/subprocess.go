package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/docscan/internal/quad"
)

// SubprocessDetector implements Detector by talking to an external process.
//
// Each frame is written to the process stdin as a 4-byte big-endian length
// followed by JPEG bytes. The process answers with one JSON line:
//
//	{"polygon": [[x, y], [x, y], ...]}
//
// An empty or null polygon means no document was found.
type SubprocessDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewSubprocessDetector creates a detector backed by config.Command.
// The process is started lazily on first detection.
func NewSubprocessDetector(config Config) (*SubprocessDetector, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("%w: no command configured", ErrDetectorUnavailable)
	}
	if _, err := exec.LookPath(config.Command); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = DefaultConfig().JPEGQuality
	}
	if config.ResponseTimeout <= 0 {
		config.ResponseTimeout = DefaultConfig().ResponseTimeout
	}

	return &SubprocessDetector{
		config: config,
	}, nil
}

// Detect encodes frame and returns the polygon reported by the process.
func (d *SubprocessDetector) Detect(frame *gocv.Mat) ([]quad.Point, error) {
	buf, err := gocv.IMEncodeWithParams(".jpg", *frame, []int{int(gocv.IMWriteJpegQuality), d.config.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return d.detectEncoded(buf.GetBytes())
}

func (d *SubprocessDetector) detectEncoded(data []byte) ([]quad.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	points, err := d.roundTrip(data)
	if err != nil {
		// The stream is out of sync; restart on the next frame.
		d.shutdown()
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return points, nil
}

func (d *SubprocessDetector) roundTrip(data []byte) ([]quad.Point, error) {
	type result struct {
		points []quad.Point
		err    error
	}
	done := make(chan result, 1)
	stdin, stdout := d.stdin, d.stdout
	go func() {
		points, err := exchange(stdin, stdout, data)
		done <- result{points, err}
	}()

	timer := time.NewTimer(d.config.ResponseTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.points, res.err
	case <-timer.C:
		// Unblocks the exchange and lets shutdown reap the process.
		d.cmd.Process.Kill()
		return nil, fmt.Errorf("%w after %v", ErrResponseTimeout, d.config.ResponseTimeout)
	}
}

// exchange writes one length-prefixed frame and reads the JSON answer line.
func exchange(w io.Writer, r *bufio.Reader, data []byte) ([]quad.Point, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseResponse([]byte(line))
}

// Running reports whether the detector process is currently alive.
func (d *SubprocessDetector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Close shuts down the detector process.
func (d *SubprocessDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *SubprocessDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.config.Command, d.config.Args...)
	if len(d.config.Env) > 0 {
		d.cmd.Env = append(os.Environ(), d.config.Env...)
	}

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start detector process: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *SubprocessDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *SubprocessDetector) resetIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if time.Since(d.lastUsed) >= d.config.IdleTimeout {
			d.shutdown()
		}
	})
}

// jsonResponse is one line written by the detector process.
type jsonResponse struct {
	Polygon [][]float64 `json:"polygon"`
	Error   string      `json:"error,omitempty"`
}

func parseResponse(line []byte) ([]quad.Point, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector process: %s", resp.Error)
	}
	if len(resp.Polygon) == 0 {
		return nil, nil
	}

	points := make([]quad.Point, len(resp.Polygon))
	for i, p := range resp.Polygon {
		if len(p) != 2 {
			return nil, fmt.Errorf("parse response: vertex %d has %d coordinates", i, len(p))
		}
		points[i] = quad.Point{X: p[0], Y: p[1]}
	}
	return points, nil
}
