package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterparker57/WSLSnapit-MCP/internal/archive"
	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
	"github.com/peterparker57/WSLSnapit-MCP/internal/capture"
	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
)

type fakeRunner struct {
	fn      func(script bridge.Script) (*bridge.ExecResult, error)
	scripts []bridge.Script
}

func (f *fakeRunner) Run(_ context.Context, s bridge.Script) (*bridge.ExecResult, error) {
	f.scripts = append(f.scripts, s)
	if f.fn == nil {
		return &bridge.ExecResult{}, nil
	}
	return f.fn(s)
}

type fakeEnum struct {
	monitors []capture.Monitor
	windows  []capture.WindowMatch
}

func (f *fakeEnum) Monitors(context.Context) ([]capture.Monitor, error) {
	return append([]capture.Monitor(nil), f.monitors...), nil
}

func (f *fakeEnum) Windows(context.Context) ([]capture.WindowMatch, error) {
	return append([]capture.WindowMatch(nil), f.windows...), nil
}

type fakeTranslator struct{}

func (fakeTranslator) ToWindows(_ context.Context, posixPath string) (string, error) {
	return `C:\captures\` + filepath.Base(posixPath), nil
}

type fakeStore struct {
	keys []string
	err  error
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Store(_ context.Context, _, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

func newTestToolbox(runner bridge.Runner, enum capture.Enumerator, store archive.Provider) *Toolbox {
	tb := New(config.Default(), runner, enum, fakeTranslator{}, store)
	tb.now = func() time.Time { return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC) }
	return tb
}

func singleMonitor() *fakeEnum {
	return &fakeEnum{monitors: []capture.Monitor{
		{Index: 0, Rect: capture.Rect{Width: 1920, Height: 1080}, Primary: true, Device: `\\.\DISPLAY1`},
	}}
}

func dualMonitors() *fakeEnum {
	return &fakeEnum{monitors: []capture.Monitor{
		{Index: 0, Rect: capture.Rect{X: 0, Y: 0, Width: 2560, Height: 1440}, Primary: true},
		{Index: 1, Rect: capture.Rect{X: -1920, Y: 0, Width: 1920, Height: 1080}},
	}}
}

func browserEnum() *fakeEnum {
	return &fakeEnum{
		monitors: singleMonitor().monitors,
		windows: []capture.WindowMatch{
			{Handle: 11, Title: "Inbox - Google Chrome", Process: "chrome"},
			{Handle: 22, Title: "Docs - Google Chrome", Process: "chrome"},
		},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 60, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func imageSentinel(t *testing.T, w, h int) string {
	t.Helper()
	return "BASE64:" + base64.StdEncoding.EncodeToString(pngBytes(t, w, h)) + "\n"
}

func TestTakeScreenshotSavesFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "shot.png")
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		if err := os.WriteFile(dest, []byte("png!"), 0o644); err != nil {
			t.Fatalf("fake save: %v", err)
		}
		return &bridge.ExecResult{}, nil
	}}
	tb := newTestToolbox(runner, singleMonitor(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"folder":   dir,
		"filename": "shot.png",
	})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if !strings.Contains(result.Message, dest) {
		t.Fatalf("message = %q", result.Message)
	}
	detail, ok := result.Detail.(SavedDetail)
	if !ok {
		t.Fatalf("detail type = %T", result.Detail)
	}
	if detail.WindowsPath != `C:\captures\shot.png` {
		t.Fatalf("windows path = %q", detail.WindowsPath)
	}
	if detail.SizeBytes != 4 {
		t.Fatalf("size = %d", detail.SizeBytes)
	}
	if len(runner.scripts) != 1 || runner.scripts[0].Purpose() != bridge.PurposeCaptureScreen {
		t.Fatalf("unexpected scripts: %d", len(runner.scripts))
	}
	body := runner.scripts[0].Body()
	if !strings.Contains(body, `'C:\captures\shot.png'`) {
		t.Fatal("translated destination missing from script")
	}
	if strings.Contains(body, "BASE64:") {
		t.Fatal("file mode must not stream the bitmap")
	}
}

func TestTakeScreenshotDefaultFilename(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "screenshot_20250314_150926.png")
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
			t.Fatalf("fake save: %v", err)
		}
		return &bridge.ExecResult{}, nil
	}}
	tb := newTestToolbox(runner, singleMonitor(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{"folder": dir})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if !strings.Contains(result.Message, "screenshot_20250314_150926.png") {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestTakeScreenshotDirectReturnsImage(t *testing.T) {
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		return &bridge.ExecResult{Stdout: imageSentinel(t, 100, 80)}, nil
	}}
	tb := newTestToolbox(runner, singleMonitor(), nil)
	tb.cfg.DefaultFolder = filepath.Join(t.TempDir(), "never-created")

	result := tb.TakeScreenshot(context.Background(), map[string]any{"returnDirect": true})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if _, err := os.Stat(tb.cfg.DefaultFolder); !os.IsNotExist(err) {
		t.Fatal("direct mode must not create the destination folder")
	}
	if strings.Contains(runner.scripts[0].Body(), `C:\captures`) {
		t.Fatal("direct mode script should not carry a save destination")
	}
	if result.MIMEType != "image/jpeg" {
		t.Fatalf("mime = %q", result.MIMEType)
	}
	raw, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("decode inline image: %v", err)
	}
	if len(raw) < 2 || raw[0] != 0xff || raw[1] != 0xd8 {
		t.Fatal("inline payload is not a JPEG")
	}
	detail, ok := result.Detail.(ImageDetail)
	if !ok {
		t.Fatalf("detail type = %T", result.Detail)
	}
	if detail.Width != 100 || detail.Height != 80 {
		t.Fatalf("dimensions = %dx%d", detail.Width, detail.Height)
	}
	if detail.Quality != 80 {
		t.Fatalf("quality = %d", detail.Quality)
	}
	if !detail.WithinBudget {
		t.Fatal("tiny flat image should fit the budget")
	}
	if !strings.Contains(result.Message, "100x80") {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestTakeScreenshotMonitorByNumber(t *testing.T) {
	for _, monitor := range []any{float64(2), "2"} {
		runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
			return &bridge.ExecResult{Stdout: imageSentinel(t, 10, 10)}, nil
		}}
		tb := newTestToolbox(runner, dualMonitors(), nil)

		result := tb.TakeScreenshot(context.Background(), map[string]any{
			"monitor":      monitor,
			"returnDirect": true,
		})

		if result.Status != StatusCompleted {
			t.Fatalf("monitor %v: %q", monitor, result.Error)
		}
		body := runner.scripts[0].Body()
		if !strings.Contains(body, "System.Drawing.Size(2560, 1440)") {
			t.Fatalf("monitor %v resolved to the wrong display", monitor)
		}
	}
}

func TestTakeScreenshotInvalidMonitorIndex(t *testing.T) {
	tb := newTestToolbox(&fakeRunner{}, dualMonitors(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{"monitor": "7"})

	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}
	if !strings.Contains(result.Error, "only 2 monitors are connected (valid: 1-2)") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestTakeScreenshotAmbiguousTitle(t *testing.T) {
	runner := &fakeRunner{}
	tb := newTestToolbox(runner, browserEnum(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{"windowTitle": "chrome"})

	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}
	if !strings.Contains(result.Error, `Multiple windows found matching "chrome"`) {
		t.Fatalf("error = %q", result.Error)
	}
	if !strings.Contains(result.Error, "windowIndex") {
		t.Fatal("retry guidance missing")
	}
	if !strings.Contains(result.Error, "3. Cancel capture") {
		t.Fatal("cancel option missing")
	}
	if len(runner.scripts) != 0 {
		t.Fatal("no capture script should run for an ambiguous target")
	}
}

func TestTakeScreenshotWindowIndexPicks(t *testing.T) {
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		return &bridge.ExecResult{Stdout: imageSentinel(t, 10, 10)}, nil
	}}
	tb := newTestToolbox(runner, browserEnum(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"windowTitle":  "chrome",
		"windowIndex":  float64(2),
		"returnDirect": true,
	})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if runner.scripts[0].Purpose() != bridge.PurposeCaptureWindow {
		t.Fatalf("purpose = %q", runner.scripts[0].Purpose())
	}
	if !strings.Contains(runner.scripts[0].Body(), "[IntPtr]::new([int64]22)") {
		t.Fatal("second match's handle not embedded")
	}
}

func TestTakeScreenshotStaleWindowSentinel(t *testing.T) {
	enum := &fakeEnum{
		monitors: singleMonitor().monitors,
		windows:  []capture.WindowMatch{{Handle: 11, Title: "Inbox - Google Chrome", Process: "chrome"}},
	}
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		return &bridge.ExecResult{Stdout: "WINDOW_NOT_FOUND:chrome\n"}, nil
	}}
	tb := newTestToolbox(runner, enum, nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"windowTitle":  "chrome",
		"returnDirect": true,
	})

	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}
	if !strings.Contains(result.Error, `no visible window found with title containing "chrome"`) {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestTakeScreenshotBridgeDisambiguation(t *testing.T) {
	enum := &fakeEnum{
		monitors: singleMonitor().monitors,
		windows:  []capture.WindowMatch{{Handle: 11, Title: "Inbox - Google Chrome", Process: "chrome"}},
	}
	stdout := strings.Join([]string{
		"MULTIPLE_WINDOWS_FOUND:chrome:",
		"1. Inbox - Google Chrome (chrome)",
		"2. Docs - Google Chrome (chrome)",
		"3. Cancel capture",
		"",
	}, "\n")
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		return &bridge.ExecResult{Stdout: stdout}, nil
	}}
	tb := newTestToolbox(runner, enum, nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"windowTitle":  "chrome",
		"returnDirect": true,
	})

	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}
	if !strings.Contains(result.Error, `Multiple windows found matching "chrome"`) {
		t.Fatalf("error = %q", result.Error)
	}
	if !strings.Contains(result.Error, "1. Inbox - Google Chrome (chrome)") {
		t.Fatal("bridge match lines missing")
	}
	if !strings.Contains(result.Error, "3. Cancel capture") {
		t.Fatal("cancel line missing")
	}
}

func TestTakeScreenshotArchivesSavedCapture(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "shot.png")
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		if err := os.WriteFile(dest, []byte("png!"), 0o644); err != nil {
			t.Fatalf("fake save: %v", err)
		}
		return &bridge.ExecResult{}, nil
	}}
	store := &fakeStore{}
	tb := newTestToolbox(runner, singleMonitor(), store)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"folder":   dir,
		"filename": "shot.png",
	})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if len(store.keys) != 1 || store.keys[0] != "shot.png" {
		t.Fatalf("store keys = %v", store.keys)
	}
	if detail := result.Detail.(SavedDetail); detail.Archived != "fake" {
		t.Fatalf("archived = %q", detail.Archived)
	}
}

func TestTakeScreenshotArchiveFailureDoesNotFailCapture(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "shot.png")
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		if err := os.WriteFile(dest, []byte("png!"), 0o644); err != nil {
			t.Fatalf("fake save: %v", err)
		}
		return &bridge.ExecResult{}, nil
	}}
	store := &fakeStore{err: errors.New("bucket gone")}
	tb := newTestToolbox(runner, singleMonitor(), store)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"folder":   dir,
		"filename": "shot.png",
	})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if detail := result.Detail.(SavedDetail); detail.Archived != "" {
		t.Fatalf("archived = %q, want empty after failed mirror", detail.Archived)
	}
}

func TestTakeScreenshotMissingSavedFile(t *testing.T) {
	tb := newTestToolbox(&fakeRunner{}, singleMonitor(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"folder":   t.TempDir(),
		"filename": "never-written.png",
	})

	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}
	if !strings.Contains(result.Error, "did not appear") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestTakeScreenshotBridgeFailure(t *testing.T) {
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		return &bridge.ExecResult{ExitCode: -1, TimedOut: true}, errors.New("bridge timed out after 1m0s")
	}}
	tb := newTestToolbox(runner, singleMonitor(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{"returnDirect": true})

	if result.Status != StatusFailed {
		t.Fatalf("status = %q", result.Status)
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestTakeScreenshotQualityClamped(t *testing.T) {
	runner := &fakeRunner{fn: func(bridge.Script) (*bridge.ExecResult, error) {
		return &bridge.ExecResult{Stdout: imageSentinel(t, 10, 10)}, nil
	}}
	tb := newTestToolbox(runner, singleMonitor(), nil)

	result := tb.TakeScreenshot(context.Background(), map[string]any{
		"returnDirect": true,
		"quality":      float64(250),
	})

	if result.Status != StatusCompleted {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if detail := result.Detail.(ImageDetail); detail.Quality != 100 {
		t.Fatalf("quality = %d, want clamped 100", detail.Quality)
	}
}
