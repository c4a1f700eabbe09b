package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
	"github.com/peterparker57/WSLSnapit-MCP/internal/capture"
	"github.com/peterparker57/WSLSnapit-MCP/internal/compress"
	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

func handleTakeScreenshot(ctx context.Context, tb *Toolbox, payload map[string]any) CommandResult {
	return tb.TakeScreenshot(ctx, payload)
}

// TakeScreenshot resolves the requested target, captures it through the
// bridge, and either saves a lossless PNG or returns a budget-fitted
// JPEG inline.
func (tb *Toolbox) TakeScreenshot(ctx context.Context, payload map[string]any) CommandResult {
	req, err := tb.parseRequest(payload)
	if err != nil {
		return NewErrorResult(err, 0)
	}

	target, err := tb.resolver.Resolve(ctx, req.Spec)
	if err != nil {
		return NewErrorResult(err, 0)
	}

	var posixDest, winDest string
	if req.Mode == capture.ModeFile {
		posixDest, winDest, err = tb.resolveDestination(ctx, req)
		if err != nil {
			return NewErrorResult(err, 0)
		}
	}

	var script bridge.Script
	if target.Kind == capture.TargetWindow {
		script = bridge.WindowCaptureScript(target, req.Mode, winDest)
	} else {
		script = bridge.ScreenCaptureScript(target.Rect, req.Mode, winDest)
	}

	expect := bridge.ExpectSaved
	if req.Mode == capture.ModeDirect {
		expect = bridge.ExpectImage
	}

	res, err := tb.runner.Run(ctx, script)
	if err != nil {
		return NewErrorResult(err, 0)
	}
	parsed, err := bridge.Parse(res, expect)
	if err != nil {
		return NewErrorResult(err, 0)
	}

	switch parsed.Outcome {
	case bridge.OutcomeSaved:
		return tb.savedResult(ctx, posixDest, winDest)
	case bridge.OutcomeImage:
		return tb.inlineImageResult("Screenshot captured", parsed.Image, req.Quality)
	case bridge.OutcomeWindowNotFound:
		return NewErrorResult(&capture.NotFoundError{Kind: capture.NotFoundWindow, Query: parsed.Term}, 0)
	case bridge.OutcomeProcessNotFound:
		return NewErrorResult(&capture.NotFoundError{Kind: capture.NotFoundProcess, Query: parsed.Term}, 0)
	case bridge.OutcomeAmbiguous:
		return NewErrorResult(errors.New(capture.FormatAmbiguousRaw(parsed.Term, parsed.Matches, parsed.Cancel)), 0)
	case bridge.OutcomeError:
		return NewErrorResult(errors.New(parsed.Text), 0)
	default:
		return NewErrorResult(fmt.Errorf("unexpected bridge outcome %d for screenshot", parsed.Outcome), 0)
	}
}

// parseRequest lifts the wire payload into the domain request form.
func (tb *Toolbox) parseRequest(payload map[string]any) (capture.Request, error) {
	spec, err := capture.ParseSpec(
		monitorSelector(payload),
		GetPayloadString(payload, "windowTitle", ""),
		GetPayloadString(payload, "processName", ""),
		GetPayloadIntPtr(payload, "windowIndex"),
	)
	if err != nil {
		return capture.Request{}, err
	}

	mode := capture.ModeFile
	if GetPayloadBool(payload, "returnDirect", false) {
		mode = capture.ModeDirect
	}

	return capture.Request{
		Spec:     spec,
		Mode:     mode,
		Quality:  GetPayloadInt(payload, "quality", tb.cfg.DefaultQuality),
		Filename: GetPayloadString(payload, "filename", ""),
		Folder:   GetPayloadString(payload, "folder", ""),
	}, nil
}

// monitorSelector renders the monitor field, which may arrive as a
// string ("all", "primary", "2") or a JSON number (2).
func monitorSelector(payload map[string]any) string {
	v, ok := payload["monitor"]
	if !ok {
		return ""
	}
	switch m := v.(type) {
	case string:
		return m
	case int:
		return strconv.Itoa(m)
	case int64:
		return strconv.FormatInt(m, 10)
	case float64:
		return strconv.Itoa(int(m))
	}
	return ""
}

// resolveDestination picks the save location: requested folder, then
// the configured default, then the working directory. Returns the POSIX
// path for bookkeeping and its Windows translation for the script.
func (tb *Toolbox) resolveDestination(ctx context.Context, req capture.Request) (posix, win string, err error) {
	folder := req.Folder
	if folder == "" {
		folder = tb.cfg.DefaultFolder
	}
	if folder == "" {
		folder = "."
	}
	filename := req.Filename
	if filename == "" {
		filename = "screenshot_" + tb.now().Format("20060102_150405") + ".png"
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", "", fmt.Errorf("create destination folder: %w", err)
	}
	posix = filepath.Join(folder, filename)
	win, err = tb.translate.ToWindows(ctx, posix)
	if err != nil {
		return "", "", fmt.Errorf("translate destination %s: %w", posix, err)
	}
	return posix, win, nil
}

// savedResult verifies the bridge really produced the file, mirrors it
// to the archive when one is configured, and reports the saved path.
func (tb *Toolbox) savedResult(ctx context.Context, posixDest, winDest string) CommandResult {
	info, err := os.Stat(posixDest)
	if err != nil {
		return NewErrorResult(fmt.Errorf("capture completed but %s did not appear: %w", posixDest, err), 0)
	}

	detail := SavedDetail{
		Path:        posixDest,
		WindowsPath: winDest,
		Format:      "png",
		SizeBytes:   info.Size(),
	}

	if tb.store != nil {
		key := filepath.Base(posixDest)
		if err := tb.store.Store(ctx, posixDest, key); err != nil {
			tb.log.Warn("archive mirror failed",
				"provider", tb.store.Name(), logging.KeyError, err.Error())
		} else {
			detail.Archived = tb.store.Name()
			tb.log.Info("capture archived", "provider", tb.store.Name(), "key", key)
		}
	}

	result := NewSuccessResult("Screenshot saved to "+posixDest, 0)
	result.Detail = detail
	return result
}

// inlineImageResult compresses lossless capture bytes to the inline
// budget and packages them with honest achieved-size metadata.
func (tb *Toolbox) inlineImageResult(label string, pngData []byte, quality int) CommandResult {
	out, err := compress.PNGToBudget(pngData, quality)
	if err != nil {
		return NewErrorResult(fmt.Errorf("compress capture: %w", err), 0)
	}

	msg := fmt.Sprintf("%s: %dx%d JPEG, quality %d, %d bytes",
		label, out.Width, out.Height, out.Quality, len(out.Data))
	if !out.WithinBudget {
		msg += " (still above the inline budget after all fallbacks)"
	}

	result := NewSuccessResult(msg, 0)
	result.ImageBase64 = base64.StdEncoding.EncodeToString(out.Data)
	result.MIMEType = "image/jpeg"
	result.Detail = ImageDetail{
		Width:        out.Width,
		Height:       out.Height,
		Quality:      out.Quality,
		SizeBytes:    len(out.Data),
		WithinBudget: out.WithinBudget,
		Format:       "jpeg",
	}
	return result
}
