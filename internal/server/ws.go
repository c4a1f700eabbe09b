package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
	"github.com/peterparker57/WSLSnapit-MCP/internal/workerpool"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512 * 1024
	wsSendBuffer     = 64
)

// wsCommand is an inbound command frame.
type wsCommand struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// wsResult is the reply frame for one command.
type wsResult struct {
	Type      string               `json:"type"`
	CommandID string               `json:"commandId"`
	Status    string               `json:"status"`
	Result    *tools.CommandResult `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// WS hosts the WebSocket transport. Each connected client sends command
// frames and gets one result frame per command. Commands run on a
// bounded worker pool so a burst cannot stack bridge processes.
type WS struct {
	tb       Dispatcher
	pool     *workerpool.Pool
	log      *slog.Logger
	upgrader websocket.Upgrader
	srv      *http.Server
}

func NewWS(tb Dispatcher, pool *workerpool.Pool, addr string) *WS {
	s := &WS{
		tb:   tb,
		pool: pool,
		log:  logging.L("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks until Shutdown or a listener error.
func (s *WS) ListenAndServe() error {
	s.log.Info("websocket host listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, then drains in-flight commands.
func (s *WS) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.pool.Shutdown(ctx)
	return err
}

func (s *WS) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", logging.KeyError, err.Error())
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
		log:  s.log.With("client", uuid.New().String()),
	}
	client.log.Info("client connected", "remote", conn.RemoteAddr().String())

	go client.writePump()
	s.readPump(client)
	client.log.Info("client disconnected")
}

func (s *WS) readPump(c *wsClient) {
	defer c.close()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", logging.KeyError, err.Error())
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.log.Warn("unparseable frame", logging.KeyError, err.Error())
			continue
		}
		// Frames without an id and type are acks or other chatter.
		if cmd.ID == "" || cmd.Type == "" {
			continue
		}

		s.dispatchCommand(c, cmd)
	}
}

// dispatchCommand hands one command to the pool. A full queue answers
// immediately instead of blocking the read pump.
func (s *WS) dispatchCommand(c *wsClient, cmd wsCommand) {
	reqLog := logging.WithRequest(c.log, cmd.ID, cmd.Type)
	accepted := s.pool.Submit(func() {
		reqLog.Info("processing command")
		ctx := logging.NewContext(s.pool.Context(), reqLog)

		res, ok := s.tb.Dispatch(ctx, cmd.Type, cmd.Payload)
		if !ok {
			c.reply(wsResult{
				Type:      "command_result",
				CommandID: cmd.ID,
				Status:    tools.StatusFailed,
				Error:     fmt.Sprintf("unknown command type %q", cmd.Type),
			})
			return
		}

		frame := wsResult{Type: "command_result", CommandID: cmd.ID, Status: res.Status}
		if res.Status == tools.StatusFailed {
			frame.Error = res.Error
		} else {
			frame.Result = &res
		}
		c.reply(frame)
	})
	if !accepted {
		c.reply(wsResult{
			Type:      "command_result",
			CommandID: cmd.ID,
			Status:    tools.StatusFailed,
			Error:     "server is at capacity, try again shortly",
		})
	}
}

// wsClient is one connected WebSocket peer. All writes go through the
// send channel so the write pump is the only goroutine touching the
// connection's write side.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  *slog.Logger
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) reply(frame wsResult) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.log.Error("marshal result frame", logging.KeyError, err.Error())
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, dropping result", "commandId", frame.CommandID)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Warn("write error", logging.KeyError, err.Error())
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
