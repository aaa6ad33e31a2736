package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radityaharya/bus-tracker/internal/config"
	"github.com/radityaharya/bus-tracker/internal/handler"
	"github.com/radityaharya/bus-tracker/internal/logging"
	"github.com/radityaharya/bus-tracker/internal/notifier"
	"github.com/radityaharya/bus-tracker/internal/scraper"
	"github.com/radityaharya/bus-tracker/internal/store"
	"github.com/radityaharya/bus-tracker/internal/tracker"
	"github.com/radityaharya/bus-tracker/internal/transport"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting bus tracker",
		zap.Int("port", cfg.ListeningPort),
		zap.String("booking_site", cfg.BookingSiteBaseURL),
		zap.Bool("tracker_enabled", cfg.EnableTracker),
	)

	s, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer s.Close()

	client, err := transport.NewClient(cfg.BookingSiteBaseURL, logger,
		transport.WithMaxConcurrentScrapes(cfg.MaxConcurrentScrapes),
		transport.WithTimeout(time.Duration(cfg.RequestTimeoutSeconds)*time.Second))
	if err != nil {
		logger.Fatal("failed to initialize transport client", zap.Error(err))
	}

	orch := scraper.NewOrchestrator(client, cfg.BookingSiteBaseURL, logger)
	notify := notifier.NewWebhookNotifier(s, cfg.StartupWebhookURL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var supervisor *tracker.Supervisor
	if cfg.EnableTracker {
		supervisor = tracker.NewSupervisor(s, orch, notify, logger, tracker.Config{
			DefaultIntervalSeconds: cfg.DefaultPollIntervalSeconds,
			MinIntervalSeconds:     cfg.MinPollIntervalSeconds,
			ShutdownDrainTimeout:   time.Duration(cfg.ShutdownDrainSeconds) * time.Second,
		})
		if err := supervisor.Start(ctx); err != nil {
			logger.Fatal("failed to start tracker supervisor", zap.Error(err))
		}
	} else {
		logger.Info("tracker disabled via configuration")
	}

	h := handler.NewRouter(s, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/api/v1/status", h.HandleStatus)

	addr := fmt.Sprintf(":%d", cfg.ListeningPort)
	httpServer := &http.Server{Addr: addr, Handler: handler.CORSMiddleware(mux.ServeHTTP, logger)}

	go func() {
		logger.Info("admin server listening", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownDrainSeconds)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin server shutdown error", zap.Error(err))
	}

	if supervisor != nil {
		if err := supervisor.Shutdown(time.Duration(cfg.ShutdownDrainSeconds) * time.Second); err != nil {
			logger.Warn("tracker supervisor shutdown error", zap.Error(err))
		}
	}

	logger.Info("bus tracker stopped")
}
