package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned by [Conn.ReadMessage] when the peer closed the socket normally.
var ErrClosed = errors.New("connection closed")

// Conn is one room socket. Close may be called concurrently with ReadMessage.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens room sockets.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket. A nil Dialer uses [websocket.DefaultDialer].
type WebSocketDialer struct {
	Dialer *websocket.Dialer
}

func (d WebSocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	c, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: websocket handshake: status %d", shared.ErrAPIRequest, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.c.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil, fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return data, err
}

func (w *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.c.Close()
}

// RoomURL returns the room-scoped socket URL under base.
func RoomURL(base, roomID string) string {
	return strings.TrimRight(base, "/") + "/api/v1/ws/" + url.PathEscape(roomID)
}

// authHeader carries the session both as the cookie and as a bearer token.
func authHeader(token string) http.Header {
	h := http.Header{}
	if token == "" {
		return h
	}
	h.Set("Cookie", (&http.Cookie{Name: services.SessionCookie, Value: token}).String())
	h.Set("Authorization", "Bearer "+token)
	return h
}
