package server

import "github.com/peterparker57/WSLSnapit-MCP/internal/tools"

// Tool describes one callable tool for tools/list. Field names follow
// the MCP wire format (inputSchema is camelCase).
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Tools returns the registered tool descriptors in a stable order.
func Tools() []Tool {
	return []Tool{
		{
			Name: tools.CmdTakeScreenshot,
			Description: "Capture a Windows screenshot from WSL. Targets all monitors (default), " +
				"the primary or a numbered monitor, or a specific window by title or process name. " +
				"Saves a PNG to the given folder, or returns the image inline as a compressed JPEG " +
				"when returnDirect is set.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filename": map[string]any{
						"type":        "string",
						"description": "Name for the saved file. Defaults to screenshot_<timestamp>.png.",
					},
					"folder": map[string]any{
						"type":        "string",
						"description": "Destination folder (WSL path). Defaults to the configured folder, then the working directory.",
					},
					"monitor": map[string]any{
						"type":        []string{"string", "integer"},
						"description": "Which display to capture: \"all\" (default), \"primary\", or a 1-based monitor number.",
					},
					"windowTitle": map[string]any{
						"type":        "string",
						"description": "Capture the window whose title contains this text (case-insensitive).",
					},
					"processName": map[string]any{
						"type":        "string",
						"description": "Capture the window of this process (case-insensitive, .exe optional).",
					},
					"windowIndex": map[string]any{
						"type":        "integer",
						"description": "Pick one window when a title or process query matches several (1-based).",
					},
					"returnDirect": map[string]any{
						"type":        "boolean",
						"description": "Return the image inline instead of saving a file.",
					},
					"quality": map[string]any{
						"type":        "integer",
						"minimum":     1,
						"maximum":     100,
						"description": "JPEG quality for inline images (default 80).",
					},
				},
			},
		},
		{
			Name: tools.CmdReadClipboard,
			Description: "Read the Windows clipboard from WSL: text, an image, or whichever is present.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"format": map[string]any{
						"type":        "string",
						"enum":        []string{"auto", "text", "image"},
						"description": "What to read: auto (default) prefers text, then image.",
					},
				},
			},
		},
	}
}
