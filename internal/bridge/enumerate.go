package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/peterparker57/WSLSnapit-MCP/internal/capture"
	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

// Enumerator gathers monitor and window inventories through the bridge.
// It implements capture.Enumerator.
type Enumerator struct {
	runner Runner
	log    *slog.Logger
}

// NewEnumerator wraps a Runner for inventory queries.
func NewEnumerator(runner Runner) *Enumerator {
	return &Enumerator{
		runner: runner,
		log:    logging.L("bridge"),
	}
}

// Monitors fetches the monitor inventory. Each line has the form
// MONITOR:index|x|y|width|height|primary|device with primary as 1 or 0.
func (e *Enumerator) Monitors(ctx context.Context) ([]capture.Monitor, error) {
	res, err := e.runner.Run(ctx, MonitorsScript())
	if err != nil {
		return nil, fmt.Errorf("enumerate monitors: %w", err)
	}
	if msg, failed := scriptError(res); failed {
		return nil, fmt.Errorf("enumerate monitors: %s", msg)
	}

	var monitors []capture.Monitor
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "MONITOR:") {
			continue
		}
		m, err := parseMonitorLine(strings.TrimPrefix(line, "MONITOR:"))
		if err != nil {
			e.log.Warn("skipping malformed monitor line", "line", line, "error", err)
			continue
		}
		monitors = append(monitors, m)
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("enumerate monitors: bridge reported none")
	}
	return monitors, nil
}

// Windows fetches the visible top-level window inventory. Each line has
// the form WINDOW:handle|process|title; the title is last because it may
// itself contain the separator.
func (e *Enumerator) Windows(ctx context.Context) ([]capture.WindowMatch, error) {
	res, err := e.runner.Run(ctx, WindowsScript())
	if err != nil {
		return nil, fmt.Errorf("enumerate windows: %w", err)
	}
	if msg, failed := scriptError(res); failed {
		return nil, fmt.Errorf("enumerate windows: %s", msg)
	}

	var windows []capture.WindowMatch
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "WINDOW:") {
			continue
		}
		w, err := parseWindowLine(strings.TrimPrefix(line, "WINDOW:"))
		if err != nil {
			e.log.Warn("skipping malformed window line", "line", line, "error", err)
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// scriptError reports whether the run hit the script-level error marker.
func scriptError(res *ExecResult) (string, bool) {
	combined := res.Stdout + "\n" + res.Stderr
	if i := strings.Index(combined, markerError); i >= 0 {
		return restOfLine(combined[i+len(markerError):]), true
	}
	return "", false
}

func parseMonitorLine(payload string) (capture.Monitor, error) {
	fields := strings.SplitN(payload, "|", 7)
	if len(fields) != 7 {
		return capture.Monitor{}, fmt.Errorf("want 7 fields, got %d", len(fields))
	}

	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return capture.Monitor{}, fmt.Errorf("index: %w", err)
	}
	var dims [4]int
	for i, f := range fields[1:5] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return capture.Monitor{}, fmt.Errorf("geometry field %d: %w", i, err)
		}
		dims[i] = v
	}
	if dims[2] <= 0 || dims[3] <= 0 {
		return capture.Monitor{}, fmt.Errorf("degenerate bounds %dx%d", dims[2], dims[3])
	}

	return capture.Monitor{
		Index:   index,
		Rect:    capture.Rect{X: dims[0], Y: dims[1], Width: dims[2], Height: dims[3]},
		Primary: fields[5] == "1",
		Device:  fields[6],
	}, nil
}

func parseWindowLine(payload string) (capture.WindowMatch, error) {
	fields := strings.SplitN(payload, "|", 3)
	if len(fields) != 3 {
		return capture.WindowMatch{}, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	handle, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return capture.WindowMatch{}, fmt.Errorf("handle: %w", err)
	}
	return capture.WindowMatch{
		Handle:  handle,
		Process: fields[1],
		Title:   fields[2],
	}, nil
}
