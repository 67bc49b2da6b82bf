package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

// NotificationLister lists notification history entries
type NotificationLister interface {
	ListNotifications(userID string, unreadOnly bool, limit int) ([]*models.NotificationRecord, error)
}

// NotificationsHandler handles notification history requests
type NotificationsHandler struct {
	store  NotificationLister
	userID string
	logger *logrus.Logger
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(store NotificationLister, userID string, logger *logrus.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		store:  store,
		userID: userID,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/notifications
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.store.ListNotifications(h.userID, unreadOnly, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list notifications")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": records,
		"count":         len(records),
	})
}
