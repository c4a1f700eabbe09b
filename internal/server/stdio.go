package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
)

const protocolVersion = "2024-11-05"

// Stdio serves JSON-RPC over stdin/stdout, one message per line.
// Requests run sequentially; logs go to stderr so stdout stays a clean
// protocol stream.
type Stdio struct {
	tb   Dispatcher
	info Info
	in   io.Reader
	out  io.Writer
	log  *slog.Logger
}

func NewStdio(tb Dispatcher, info Info) *Stdio {
	return &Stdio{
		tb:   tb,
		info: info,
		in:   os.Stdin,
		out:  os.Stdout,
		log:  logging.L("stdio"),
	}
}

// Serve reads requests until stdin closes or ctx is cancelled.
func (s *Stdio) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.write(errorResponse(nil, codeParseError, "request is not valid JSON"))
			continue
		}
		if resp, reply := s.handle(ctx, &req); reply {
			s.write(resp)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	s.log.Info("stdin closed, shutting down")
	return nil
}

func (s *Stdio) handle(ctx context.Context, req *rpcRequest) (rpcResponse, bool) {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo": map[string]any{
				"name":    s.info.Name,
				"version": s.info.Version,
			},
		}), true
	case "ping":
		return resultResponse(req.ID, map[string]any{}), true
	case "tools/list":
		return resultResponse(req.ID, map[string]any{"tools": Tools()}), true
	case "tools/call":
		return s.call(ctx, req), true
	default:
		if req.isNotification() {
			// notifications/initialized and friends need no reply
			return rpcResponse{}, false
		}
		return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method)), true
	}
}

func (s *Stdio) call(ctx context.Context, req *rpcRequest) rpcResponse {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "tools/call params need a tool name")
	}

	reqLog := logging.WithRequest(s.log, uuid.New().String(), params.Name)
	reqLog.Info("tool call received")

	result, ok := s.tb.Dispatch(logging.NewContext(ctx, reqLog), params.Name, params.Arguments)
	if !ok {
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("unknown tool %q", params.Name))
	}
	return resultResponse(req.ID, callResult(result))
}

// contentBlock is one entry in a tools/call result.
type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

type callResultBody struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// callResult shapes a tool outcome as MCP content: a text block, plus
// an image block when the flow produced one. Failures become a text
// block flagged isError rather than a protocol-level error.
func callResult(res tools.CommandResult) callResultBody {
	if res.Status == tools.StatusFailed {
		return callResultBody{
			Content: []contentBlock{{Type: "text", Text: res.Error}},
			IsError: true,
		}
	}
	blocks := []contentBlock{{Type: "text", Text: res.Message}}
	if res.ImageBase64 != "" {
		blocks = append(blocks, contentBlock{
			Type:     "image",
			Data:     res.ImageBase64,
			MIMEType: res.MIMEType,
		})
	}
	return callResultBody{Content: blocks}
}

func (s *Stdio) write(resp rpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response", logging.KeyError, err.Error())
		return
	}
	data = append(data, '\n')
	if _, err := s.out.Write(data); err != nil {
		s.log.Error("write response", logging.KeyError, err.Error())
	}
}
