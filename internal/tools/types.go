// Package tools implements the tool surface shared by every transport:
// payload decoding, the capture and clipboard pipelines, and
// transport-neutral results.
package tools

// Tool names as they appear on the wire.
const (
	CmdTakeScreenshot = "take_screenshot"
	CmdReadClipboard  = "read_clipboard"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CommandResult is the outcome of one tool invocation. Message carries
// the human-readable content (status line or clipboard text);
// ImageBase64 carries inline image data when a flow returns one.
type CommandResult struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	Detail      any    `json:"detail,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	DurationMs  int64  `json:"durationMs,omitempty"`
}

// SavedDetail reports a file-mode capture.
type SavedDetail struct {
	Path        string `json:"path"`
	WindowsPath string `json:"windowsPath"`
	Format      string `json:"format"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
	Archived    string `json:"archived,omitempty"`
}

// ImageDetail reports an inline image return, including how far the
// compressor had to go.
type ImageDetail struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Quality      int    `json:"quality"`
	SizeBytes    int    `json:"sizeBytes"`
	WithinBudget bool   `json:"withinBudget"`
	Format       string `json:"format"`
}

// NewSuccessResult creates a completed result carrying a message.
func NewSuccessResult(message string, durationMs int64) CommandResult {
	return CommandResult{Status: StatusCompleted, Message: message, DurationMs: durationMs}
}

// NewErrorResult creates a failed command result.
func NewErrorResult(err error, durationMs int64) CommandResult {
	return CommandResult{Status: StatusFailed, Error: err.Error(), DurationMs: durationMs}
}

// Payload helpers
func GetPayloadString(payload map[string]any, key string, defaultVal string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

func GetPayloadInt(payload map[string]any, key string, defaultVal int) int {
	if v, ok := payload[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

func GetPayloadBool(payload map[string]any, key string, defaultVal bool) bool {
	if v, ok := payload[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetPayloadIntPtr returns the value as *int, or nil when the key is
// absent or not numeric. For fields where "not supplied" means
// something different from every supplied value.
func GetPayloadIntPtr(payload map[string]any, key string) *int {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case int:
		val := n
		return &val
	case int64:
		val := int(n)
		return &val
	case float64:
		val := int(n)
		return &val
	}
	return nil
}
