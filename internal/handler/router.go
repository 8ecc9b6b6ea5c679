package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/moodflow/backend/internal/config"
	contentHandler "github.com/zhouzirui/moodflow/backend/internal/handler/content"
	eventsHandler "github.com/zhouzirui/moodflow/backend/internal/handler/events"
	sessionHandler "github.com/zhouzirui/moodflow/backend/internal/handler/session"
	middlewarePkg "github.com/zhouzirui/moodflow/backend/internal/middleware"
	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	eventService "github.com/zhouzirui/moodflow/backend/internal/service/events"
	sessionService "github.com/zhouzirui/moodflow/backend/internal/service/session"
	"github.com/zhouzirui/moodflow/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. A nil broker disables the live event feeds.
func NewRouter(sessions sessionService.Store, contents content.Store, broker *eventService.Broker, serverCfg config.ServerConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(serverCfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(sessions, logger).RegisterRoutes(api)
		contentHandler.New(contents).RegisterRoutes(api)

		if broker != nil {
			eventsHandler.New(broker, logger).RegisterRoutes(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
