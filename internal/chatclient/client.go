// Package chatclient talks to the websocket chat endpoint.
package chatclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/worldrag/internal/domain"
)

// Client represents a WebSocket client bound to one conversation.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	timeout   time.Duration
}

// Dial connects to the chat endpoint at addr. A non-empty sessionID resumes
// that conversation.
func Dial(ctx context.Context, addr, sessionID string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	if sessionID != "" {
		q := u.Query()
		q.Set("session_id", sessionID)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{conn: conn, sessionID: sessionID, timeout: timeout}, nil
}

// SessionID returns the conversation id, known after the first answer.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Ask sends one query and waits for its frame. Error frames are returned
// as *FrameError.
func (c *Client) Ask(query string) (domain.WSFrame, error) {
	if c.timeout > 0 {
		deadline := time.Now().Add(c.timeout)
		c.conn.SetWriteDeadline(deadline)
		c.conn.SetReadDeadline(deadline)
	}

	if err := c.conn.WriteJSON(domain.WSQuery{Query: query}); err != nil {
		return domain.WSFrame{}, fmt.Errorf("write query: %w", err)
	}

	var frame domain.WSFrame
	if err := c.conn.ReadJSON(&frame); err != nil {
		return domain.WSFrame{}, fmt.Errorf("read answer: %w", err)
	}
	if frame.SessionID != "" {
		c.sessionID = frame.SessionID
	}
	if frame.Type == domain.FrameTypeError {
		if frame.Error == nil {
			return frame, &FrameError{APIError: domain.APIError{Code: domain.ErrorCodeInternal, Message: "error frame without details"}}
		}
		return frame, &FrameError{APIError: *frame.Error}
	}
	return frame, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return errors.Join(werr, c.conn.Close())
}

// FrameError is an error reported by the server.
type FrameError struct {
	domain.APIError
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
