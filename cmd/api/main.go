package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/moodflow/backend/internal/config"
	"github.com/zhouzirui/moodflow/backend/internal/handler"
	"github.com/zhouzirui/moodflow/backend/internal/logging"
	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	eventService "github.com/zhouzirui/moodflow/backend/internal/service/events"
	sessionService "github.com/zhouzirui/moodflow/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	store, err := sessionService.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		logger.Fatal("failed to open session store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close session store", zap.Error(err))
		}
	}()
	logger.Info("session store ready", zap.String("driver", cfg.Store.Driver))

	var broker *eventService.Broker
	if cfg.Events.Enabled {
		broker = eventService.NewBroker(cfg.Events.Buffer, logger.Named("events"))
		store = eventService.Wrap(store, broker)
		logger.Info("live session events enabled", zap.Int("buffer", cfg.Events.Buffer))
	} else {
		logger.Info("live session events disabled by configuration")
	}

	contents := content.NewMemoryStore(content.Seed())

	router := handler.NewRouter(store, contents, broker, cfg.Server, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("moodflow backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", zap.Error(err))
		return
	}
	logger.Info("moodflow backend stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
