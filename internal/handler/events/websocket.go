package events

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleWebSocket 通过WebSocket推送会话变更
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.broker.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.readLoop(conn, cancel)
	go h.pingLoop(ctx, conn)

	if err := h.send(conn, "ready", map[string]int{"subscribers": h.broker.Subscribers()}); err != nil {
		return
	}

	h.logger.Debug("websocket subscriber attached", zap.String("remote", r.RemoteAddr))

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("websocket subscriber detached", zap.String("remote", r.RemoteAddr))
			return
		case evt, open := <-events:
			if !open {
				return
			}
			if !filter.match(evt) {
				continue
			}
			if err := h.send(conn, string(evt.Type), evt); err != nil {
				return
			}
		}
	}
}

// readLoop 丢弃客户端消息，仅用于处理pong与关闭帧
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, typ string, data any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := outgoingMessage{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", zap.String("type", typ), zap.Error(err))
		return err
	}
	return nil
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
