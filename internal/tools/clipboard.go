package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
)

func handleReadClipboard(ctx context.Context, tb *Toolbox, payload map[string]any) CommandResult {
	return tb.ReadClipboard(ctx, payload)
}

// ReadClipboard fetches the Windows clipboard as text, image, or
// whichever is present (auto). A format mismatch or an empty clipboard
// is an ordinary result, not a failure.
func (tb *Toolbox) ReadClipboard(ctx context.Context, payload map[string]any) CommandResult {
	format := GetPayloadString(payload, "format", "auto")
	switch format {
	case "auto", "text", "image":
	default:
		return NewErrorResult(fmt.Errorf("format %q is not valid: use auto, text, or image", format), 0)
	}

	res, err := tb.runner.Run(ctx, bridge.ClipboardScript(format))
	if err != nil {
		return NewErrorResult(err, 0)
	}
	parsed, err := bridge.Parse(res, bridge.ExpectClipboard)
	if err != nil {
		return NewErrorResult(err, 0)
	}

	switch parsed.Outcome {
	case bridge.OutcomeText:
		return NewSuccessResult(parsed.Text, 0)
	case bridge.OutcomeImage:
		return tb.inlineImageResult("Clipboard image", parsed.Image, tb.cfg.DefaultQuality)
	case bridge.OutcomeClipboardEmpty:
		return NewSuccessResult("Clipboard is empty", 0)
	case bridge.OutcomeNoText:
		return NewSuccessResult("No text in clipboard", 0)
	case bridge.OutcomeNoImage:
		return NewSuccessResult("No image in clipboard", 0)
	case bridge.OutcomeError:
		return NewErrorResult(errors.New(parsed.Text), 0)
	default:
		return NewErrorResult(fmt.Errorf("unexpected bridge outcome %d for clipboard", parsed.Outcome), 0)
	}
}
