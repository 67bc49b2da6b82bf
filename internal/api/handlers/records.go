package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/amaumene/gotrackarr/internal/controllers"
	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/sirupsen/logrus"
)

// RecordsHandler handles title record requests
type RecordsHandler struct {
	progress *controllers.ProgressController
	logger   *logrus.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(progress *controllers.ProgressController, logger *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{
		progress: progress,
		logger:   logger,
	}
}

// CreateRequest is the body for record creation
type CreateRequest struct {
	TitleID  int64  `json:"title_id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// UpdateRequest is the body for record updates; absent fields are left
// untouched
type UpdateRequest struct {
	Category *string  `json:"category,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Review   *string  `json:"review,omitempty"`
}

// ToggleRequest is the body for episode toggles
type ToggleRequest struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// SeasonRequest is the body for whole-season updates
type SeasonRequest struct {
	Episodes []int `json:"episodes"`
}

// RecordResponse wraps a record with its derived aggregates
type RecordResponse struct {
	Record     *models.TitleRecord `json:"record"`
	Aggregates *models.Aggregates  `json:"aggregates,omitempty"`
}

// Create handles POST /api/records
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind, err := models.ParseKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.progress.CreateRecord(req.TitleID, kind, req.Title, models.Category(req.Category))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RecordResponse{Record: record})
}

// Get handles GET /api/records/{kind}/{id}
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, titleID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}

	record, err := h.progress.Record(titleID, kind)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := RecordResponse{Record: record}
	if kind == models.KindSeries {
		agg, err := h.progress.Aggregates(r.Context(), titleID)
		if err == nil {
			response.Aggregates = &agg
		} else {
			h.logger.WithError(err).Warn("Failed to compute aggregates")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Update handles PATCH /api/records/{kind}/{id}
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, titleID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	update := controllers.UpdateFields{
		Rating: req.Rating,
		Review: req.Review,
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		update.Category = &category
	}

	record, err := h.progress.UpdateRecord(titleID, kind, update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecordResponse{Record: record})
}

// ToggleEpisode handles POST /api/records/series/{id}/episodes/toggle
func (h *RecordsHandler) ToggleEpisode(w http.ResponseWriter, r *http.Request) {
	titleID, ok := h.pathTitleID(w, r)
	if !ok {
		return
	}

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.progress.ToggleEpisodeWatched(titleID, req.Season, req.Episode)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecordResponse{Record: record})
}

// SetSeason handles PUT /api/records/series/{id}/seasons/{season}
func (h *RecordsHandler) SetSeason(w http.ResponseWriter, r *http.Request) {
	titleID, ok := h.pathTitleID(w, r)
	if !ok {
		return
	}
	season, err := strconv.Atoi(r.PathValue("season"))
	if err != nil {
		http.Error(w, "Invalid season number", http.StatusBadRequest)
		return
	}

	var req SeasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.progress.SetSeasonWatched(titleID, season, req.Episodes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecordResponse{Record: record})
}

// ClearSeason handles DELETE /api/records/series/{id}/seasons/{season}
func (h *RecordsHandler) ClearSeason(w http.ResponseWriter, r *http.Request) {
	titleID, ok := h.pathTitleID(w, r)
	if !ok {
		return
	}
	season, err := strconv.Atoi(r.PathValue("season"))
	if err != nil {
		http.Error(w, "Invalid season number", http.StatusBadRequest)
		return
	}

	record, err := h.progress.ClearSeasonWatched(titleID, season)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecordResponse{Record: record})
}

func (h *RecordsHandler) pathIdentity(w http.ResponseWriter, r *http.Request) (models.Kind, int64, bool) {
	kind, err := models.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", 0, false
	}
	titleID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid title id", http.StatusBadRequest)
		return "", 0, false
	}
	return kind, titleID, true
}

func (h *RecordsHandler) pathTitleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	titleID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid title id", http.StatusBadRequest)
		return 0, false
	}
	return titleID, true
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.WithError(err).Error("Record operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
