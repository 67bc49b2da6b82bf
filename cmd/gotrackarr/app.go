package main

import (
	"fmt"

	"github.com/amaumene/gotrackarr/internal/config"
	"github.com/amaumene/gotrackarr/internal/controllers"
	"github.com/amaumene/gotrackarr/internal/services/catalog"
	"github.com/amaumene/gotrackarr/internal/services/notify"
	"github.com/amaumene/gotrackarr/internal/storage"
	"github.com/amaumene/gotrackarr/internal/utils"
	"github.com/sirupsen/logrus"
)

// app holds the wired-up components shared by the CLI commands
type app struct {
	cfg           *config.Config
	logger        *logrus.Logger
	store         *storage.Store
	cache         *storage.Cache
	progressCtrl  *controllers.ProgressController
	reconcileCtrl *controllers.ReconcileController
}

// newApp loads configuration and constructs all collaborators
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	store, err := storage.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	cache, err := storage.NewCache(cfg.CacheFile)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize episode cache: %w", err)
	}

	catalogClient, err := catalog.NewClient(cfg, logger)
	if err != nil {
		store.Close()
		cache.Close()
		return nil, fmt.Errorf("failed to initialize catalog client: %w", err)
	}

	dispatchers := []notify.Dispatcher{notify.NewLogDispatcher(logger)}
	if cfg.WebhookURL != "" {
		dispatchers = append(dispatchers, notify.NewWebhookDispatcher(cfg.WebhookURL, logger))
	}
	sink := notify.NewService(store, cfg.UserID, logger, dispatchers...)

	progressCtrl := controllers.NewProgressController(store, cache, catalogClient, cfg.UserID, logger)
	reconcileCtrl := controllers.NewReconcileController(store, catalogClient, sink, cfg.UserID, logger)

	return &app{
		cfg:           cfg,
		logger:        logger,
		store:         store,
		cache:         cache,
		progressCtrl:  progressCtrl,
		reconcileCtrl: reconcileCtrl,
	}, nil
}

// close releases the app's resources
func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing episode cache")
	}
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing store")
	}
}
