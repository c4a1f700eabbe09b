// Package server exposes the capture tools to clients: a stdio
// JSON-RPC host speaking the MCP subset (initialize, tools/list,
// tools/call) and an optional WebSocket host speaking command frames.
// Hosts stay thin; all capture behavior lives behind the Dispatcher.
package server

import (
	"context"

	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
)

// Dispatcher routes one tool invocation to its handler. Implemented by
// tools.Toolbox; tests substitute fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, tool string, payload map[string]any) (tools.CommandResult, bool)
}

// Info identifies the server to clients during the MCP handshake.
type Info struct {
	Name    string
	Version string
}
