package llmchat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/domain"
)

const (
	wsReadTimeout    = 60 * time.Second
	wsWriteTimeout   = 10 * time.Second
	wsPingInterval   = 54 * time.Second
	wsMaxMessageSize = 64 * 1024
	wsQueueSize      = 16
)

type wsServer struct {
	upgrader websocket.Upgrader
}

func newWSServer() *wsServer {
	return &wsServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// wsConn is one websocket client bound to one chat session.
type wsConn struct {
	conn      *websocket.Conn
	send      chan []byte
	queries   chan string
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (c *wsConn) close() {
	c.once.Do(func() {
		c.cancel()
		c.conn.Close()
	})
}

// enqueue hands a frame to the write pump unless the connection is gone.
func (c *wsConn) enqueue(frame domain.WSFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode websocket frame")
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

// HandleWebSocket upgrades the request and serves chat turns over it.
// GET /api/llmchat/ws
func (h *Handler) HandleWebSocket(c echo.Context) error {
	sessionID := resolveSessionID(c, c.QueryParam("session_id"))

	ws, err := h.ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade websocket")
		return err
	}
	ws.SetReadLimit(wsMaxMessageSize)

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	conn := &wsConn{
		conn:      ws,
		send:      make(chan []byte, wsQueueSize),
		queries:   make(chan string, wsQueueSize),
		sessionID: sessionID,
		ctx:       ctx,
		cancel:    cancel,
	}

	go h.writePump(conn)
	go h.turnWorker(conn)
	go h.readPump(conn)

	return nil
}

// readPump reads query frames and queues them for the turn worker.
func (h *Handler) readPump(conn *wsConn) {
	defer func() {
		close(conn.queries)
	}()

	conn.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			conn.close()
			return
		}
		conn.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg domain.WSQuery
		if err := json.Unmarshal(message, &msg); err != nil {
			conn.enqueue(domain.WSFrame{Type: domain.FrameTypeError, Error: &domain.APIError{
				Code:    domain.ErrorCodeBadRequest,
				Message: "invalid JSON message",
			}})
			continue
		}

		select {
		case conn.queries <- msg.Query:
		default:
			conn.enqueue(domain.WSFrame{Type: domain.FrameTypeError, Error: &domain.APIError{
				Code:      domain.ErrorCodeBadRequest,
				Message:   "too many queued queries",
				Retryable: true,
			}})
		}
	}
}

// turnWorker answers queued queries one at a time, in arrival order.
func (h *Handler) turnWorker(conn *wsConn) {
	for query := range conn.queries {
		ctx, cancel := h.turnContext(conn.ctx)
		result, sessionID, err := h.service.Chat(ctx, conn.sessionID, query)
		cancel()

		if sessionID != "" {
			conn.sessionID = sessionID
		}
		if err != nil {
			_, apiErr := toAPIError(err)
			conn.enqueue(domain.WSFrame{Type: domain.FrameTypeError, SessionID: conn.sessionID, Error: &apiErr})
			continue
		}
		conn.enqueue(domain.WSFrame{
			Type:      domain.FrameTypeAnswer,
			SessionID: conn.sessionID,
			Response:  result.Response,
			DBLookup:  result.DBLookup,
		})
	}
}

// writePump writes frames and keeps the connection alive with pings.
func (h *Handler) writePump(conn *wsConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.close()
	}()

	for {
		select {
		case <-conn.ctx.Done():
			conn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			conn.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
