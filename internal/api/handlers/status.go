package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/sirupsen/logrus"
)

// RecordLister lists title records for the status endpoint
type RecordLister interface {
	ListRecords(userID string, kind models.Kind, categories ...models.Category) ([]*models.TitleRecord, error)
}

// StatusHandler handles status requests
type StatusHandler struct {
	store  RecordLister
	userID string
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store RecordLister, userID string, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		store:  store,
		userID: userID,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalRecords      int            `json:"total_records"`
	RecordsByKind     map[string]int `json:"records_by_kind"`
	RecordsByCategory map[string]int `json:"records_by_category"`
	PendingMovies     int            `json:"pending_movie_releases"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		RecordsByKind:     make(map[string]int),
		RecordsByCategory: make(map[string]int),
	}

	for _, kind := range []models.Kind{models.KindMovie, models.KindSeries} {
		records, err := h.store.ListRecords(h.userID, kind)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list records")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		for _, record := range records {
			response.TotalRecords++
			response.RecordsByKind[string(record.Kind)]++
			if record.Category != "" {
				response.RecordsByCategory[string(record.Category)]++
			}
			if record.Kind == models.KindMovie && record.Category == models.CategoryWatched && !record.ReleaseNotified {
				response.PendingMovies++
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
