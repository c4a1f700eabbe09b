package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/peterparker57/WSLSnapit-MCP/internal/archive"
	"github.com/peterparker57/WSLSnapit-MCP/internal/bridge"
	"github.com/peterparker57/WSLSnapit-MCP/internal/capture"
	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
	"github.com/peterparker57/WSLSnapit-MCP/internal/winpath"
)

// Handler processes one tool invocation.
type Handler func(ctx context.Context, tb *Toolbox, payload map[string]any) CommandResult

// handlerRegistry maps tool names to their handlers. Written during
// package init, read-only thereafter.
var handlerRegistry = map[string]Handler{
	CmdTakeScreenshot: handleTakeScreenshot,
	CmdReadClipboard:  handleReadClipboard,
}

// Toolbox wires the capture pipeline behind the tool surface: request
// parsing, target resolution, bridge execution, and result shaping.
type Toolbox struct {
	cfg       *config.Config
	runner    bridge.Runner
	resolver  *capture.Resolver
	translate winpath.Translator
	store     archive.Provider
	log       *slog.Logger
	now       func() time.Time
}

// New assembles a Toolbox. store may be nil when archiving is disabled.
func New(cfg *config.Config, runner bridge.Runner, enum capture.Enumerator, translator winpath.Translator, store archive.Provider) *Toolbox {
	return &Toolbox{
		cfg:       cfg,
		runner:    runner,
		resolver:  capture.NewResolver(enum),
		translate: translator,
		store:     store,
		log:       logging.L("tools"),
		now:       time.Now,
	}
}

// Dispatch looks up the handler for a tool and executes it,
// centralizing timing. Returns false if the tool is unknown.
func (tb *Toolbox) Dispatch(ctx context.Context, tool string, payload map[string]any) (CommandResult, bool) {
	handler, ok := handlerRegistry[tool]
	if !ok {
		tb.log.Warn("no handler registered for tool", logging.KeyTool, tool)
		return CommandResult{}, false
	}
	start := time.Now()
	result := handler(ctx, tb, payload)
	if result.DurationMs <= 0 {
		result.DurationMs = time.Since(start).Milliseconds()
	}
	// The request-scoped logger carries the request id and tool name
	// when a server host attached one.
	logging.FromContext(ctx).Info("tool call finished",
		"status", result.Status, logging.KeyDurationMs, result.DurationMs)
	return result, true
}
