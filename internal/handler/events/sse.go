package events

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	eventService "github.com/zhouzirui/moodflow/backend/internal/service/events"
	"github.com/zhouzirui/moodflow/backend/pkg/utils"
)

const defaultKeepAlive = 25 * time.Second

// Handler 会话事件推送处理器，支持SSE与WebSocket两种订阅方式
type Handler struct {
	broker    *eventService.Broker
	logger    *zap.Logger
	upgrader  websocket.Upgrader
	keepAlive time.Duration
}

// New 创建事件处理器
func New(broker *eventService.Broker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		broker: broker,
		logger: logger.Named("events"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		keepAlive: defaultKeepAlive,
	}
}

// RegisterRoutes 注册事件订阅路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(er chi.Router) {
		er.Get("/stream", h.handleStream)
		er.Get("/ws", h.handleWebSocket)
	})
}

// handleStream 通过Server-Sent Events推送会话变更
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := h.broker.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	utils.SendSSEEvent(w, flusher, "ready", map[string]int{"subscribers": h.broker.Subscribers()})

	h.logger.Debug("sse subscriber attached", zap.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("sse subscriber detached", zap.String("remote", r.RemoteAddr))
			return
		case <-ticker.C:
			utils.SendSSEComment(w, flusher, "keepalive")
		case evt, open := <-events:
			if !open {
				return
			}
			if !filter.match(evt) {
				continue
			}
			utils.SendSSEEvent(w, flusher, string(evt.Type), evt)
		}
	}
}

// sessionFilter 按会话 ID 过滤事件，零值表示不过滤
type sessionFilter struct {
	id  int64
	set bool
}

func (f sessionFilter) match(evt eventService.Event) bool {
	return !f.set || evt.Session.ID == f.id
}

func parseFilter(w http.ResponseWriter, r *http.Request) (sessionFilter, bool) {
	raw := r.URL.Query().Get("session")
	if raw == "" {
		return sessionFilter{}, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid session id")
		return sessionFilter{}, false
	}
	return sessionFilter{id: id, set: true}, true
}
