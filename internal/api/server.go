package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/gotrackarr/internal/api/handlers"
	"github.com/amaumene/gotrackarr/internal/api/middleware"
	"github.com/amaumene/gotrackarr/internal/config"
	"github.com/amaumene/gotrackarr/internal/controllers"
	"github.com/amaumene/gotrackarr/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server        *http.Server
	store         *storage.Store
	progressCtrl  *controllers.ProgressController
	reconcileCtrl *controllers.ReconcileController
	logger        *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, store *storage.Store, progressCtrl *controllers.ProgressController, reconcileCtrl *controllers.ReconcileController, logger *logrus.Logger) *Server {
	s := &Server{
		store:         store,
		progressCtrl:  progressCtrl,
		reconcileCtrl: reconcileCtrl,
		logger:        logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux, cfg)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux, cfg *config.Config) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.Handle("GET /health", healthHandler)

	// Status endpoint
	statusHandler := handlers.NewStatusHandler(s.store, cfg.UserID, s.logger)
	mux.Handle("GET /status", statusHandler)

	// Title records
	recordsHandler := handlers.NewRecordsHandler(s.progressCtrl, s.logger)
	mux.HandleFunc("POST /api/records", recordsHandler.Create)
	mux.HandleFunc("GET /api/records/{kind}/{id}", recordsHandler.Get)
	mux.HandleFunc("PATCH /api/records/{kind}/{id}", recordsHandler.Update)
	mux.HandleFunc("POST /api/records/series/{id}/episodes/toggle", recordsHandler.ToggleEpisode)
	mux.HandleFunc("PUT /api/records/series/{id}/seasons/{season}", recordsHandler.SetSeason)
	mux.HandleFunc("DELETE /api/records/series/{id}/seasons/{season}", recordsHandler.ClearSeason)

	// Notification history
	notificationsHandler := handlers.NewNotificationsHandler(s.store, cfg.UserID, s.logger)
	mux.Handle("GET /api/notifications", notificationsHandler)

	// Manual reconciliation trigger
	reconcileHandler := handlers.NewReconcileHandler(s.reconcileCtrl, s.logger)
	mux.Handle("POST /api/reconcile", reconcileHandler)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
