package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/amaumene/gotrackarr/internal/controllers"
	"github.com/sirupsen/logrus"
)

// ReconcileHandler triggers a manual reconciliation pass
type ReconcileHandler struct {
	reconcileCtrl *controllers.ReconcileController
	logger        *logrus.Logger
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(reconcileCtrl *controllers.ReconcileController, logger *logrus.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconcileCtrl: reconcileCtrl,
		logger:        logger,
	}
}

// ServeHTTP handles POST /api/reconcile. The pass runs in the
// background and is best-effort: it is not drained on shutdown.
// Overlap with a scheduled pass is prevented by the engine's
// in-flight guard.
func (h *ReconcileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.reconcileCtrl.RunPass(context.Background()); err != nil {
			h.logger.WithError(err).Error("Manual reconciliation pass failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "reconciliation started",
	})
}
