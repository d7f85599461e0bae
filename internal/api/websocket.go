package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/editor"
	"github.com/seat-planner/backend/internal/session"
	"go.uber.org/zap"
)

// WebSocket message types for the change feed
const (
	// Client -> Server messages
	MsgTypePing      = "ping"
	MsgTypeKeepAlive = "keepalive"
	MsgTypeEvents    = "events"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeChange    = "change"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
	MsgTypeHandled   = "handled"
)

const (
	// changeBuffer is how many changes may queue for a slow client before
	// the connection is dropped.
	changeBuffer = 256
	writeWait    = 10 * time.Second
)

// WSMessage is the envelope of every change feed frame.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error frame.
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams editor changes of one session to the client and
// accepts input event batches from it.
type WebSocketHandler struct {
	sessions       SessionManager
	upgrader       websocket.Upgrader
	clock          clockwork.Clock
	logger         *zap.Logger
	maxMessageSize int64
}

// NewWebSocketHandler creates a change feed handler. A non-positive
// maxMessageSize leaves incoming frames unbounded.
func NewWebSocketHandler(sessions SessionManager, maxMessageSize int64, clock clockwork.Clock, logger *zap.Logger) *WebSocketHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		clock:          clock,
		logger:         logger,
		maxMessageSize: maxMessageSize,
	}
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu    sync.Mutex
	ws    *websocket.Conn
	clock clockwork.Clock
}

func (c *wsConn) send(msg WSMessage) error {
	msg.Timestamp = c.clock.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(c.clock.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

func (c *wsConn) sendPayload(typ, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.send(WSMessage{Type: typ, ID: id, Payload: data})
}

func (c *wsConn) sendError(message, code string) error {
	return c.sendPayload(MsgTypeError, "", WSErrorResponse{Message: message, Code: code})
}

// HandleChangeFeed upgrades the connection and streams changes until the
// client disconnects or the session is closed.
func (wsh *WebSocketHandler) HandleChangeFeed(c echo.Context) error {
	s, err := findSession(wsh.sessions, c)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	if wsh.maxMessageSize > 0 {
		ws.SetReadLimit(wsh.maxMessageSize)
	}

	log := wsh.logger.With(zap.String("session_id", s.ID))
	log.Info("change feed connected", zap.String("remote", c.RealIP()))
	conn := &wsConn{ws: ws, clock: wsh.clock}

	// Subscribers run on the editor's goroutine and must not block or call
	// back into the editor, so changes are only queued here.
	changes := make(chan editor.Change, changeBuffer)
	overflow := make(chan struct{})
	var once sync.Once
	s.Lock()
	unsubscribe := s.Editor.Subscribe(func(ch editor.Change) {
		select {
		case changes <- ch:
		default:
			once.Do(func() { close(overflow) })
		}
	})
	hello := map[string]interface{}{
		"layout":   s.Editor.Document(s.Name),
		"viewport": s.Editor.Viewport().State(),
	}
	s.Unlock()
	defer unsubscribe()

	if err := conn.sendPayload(MsgTypeConnected, s.ID, hello); err != nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wsh.readLoop(conn, s, log)
	}()

	for {
		select {
		case ch := <-changes:
			if err := conn.sendPayload(MsgTypeChange, s.ID, ch); err != nil {
				log.Debug("change feed write failed", zap.Error(err))
				return nil
			}
		case <-overflow:
			log.Warn("change feed client too slow, closing")
			_ = conn.sendError("too many pending changes", "OVERFLOW")
			return nil
		case <-done:
			log.Info("change feed disconnected")
			return nil
		}
	}
}

// readLoop handles client frames until the connection fails.
func (wsh *WebSocketHandler) readLoop(conn *wsConn, s *session.Session, log *zap.Logger) {
	for {
		var msg WSMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("change feed connection error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case MsgTypePing:
			// Respond with pong to keep connection alive
			_ = conn.send(WSMessage{Type: MsgTypePong})
		case MsgTypeKeepAlive:
			if !wsh.sessions.TouchSession(s.ID) {
				_ = conn.sendError("session not found: "+s.ID, "SESSION_NOT_FOUND")
				return
			}
			_ = conn.send(WSMessage{Type: MsgTypePong})
		case MsgTypeEvents:
			var req eventsRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				_ = conn.sendError("Invalid events payload: "+err.Error(), "INVALID_PAYLOAD")
				continue
			}
			if err := req.validate(); err != nil {
				_ = conn.sendError(err.Error(), "INVALID_PAYLOAD")
				continue
			}
			s.Lock()
			handled := s.Editor.Dispatch(req.Events)
			s.Unlock()
			_ = conn.sendPayload(MsgTypeHandled, msg.ID, map[string]int{
				"received": len(req.Events),
				"handled":  handled,
			})
		default:
			_ = conn.sendError("Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}
}
