package notify

import (
	"context"
	"fmt"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HistoryStore persists the per-user notification history
type HistoryStore interface {
	AppendNotification(record *models.NotificationRecord) error
}

// Dispatcher delivers a notification to a user-visible channel
type Dispatcher interface {
	Dispatch(ctx context.Context, event *models.NotificationEvent) error
}

// Service is the notification sink: it appends each event to the
// durable history, then fans it out to the configured dispatchers.
type Service struct {
	store       HistoryStore
	dispatchers []Dispatcher
	userID      string
	logger      *logrus.Logger
}

// NewService creates a notification sink
func NewService(store HistoryStore, userID string, logger *logrus.Logger, dispatchers ...Dispatcher) *Service {
	return &Service{
		store:       store,
		dispatchers: dispatchers,
		userID:      userID,
		logger:      logger,
	}
}

// RecordHistory appends the event to the notification history with
// read=false
func (s *Service) RecordHistory(event *models.NotificationEvent) error {
	record := &models.NotificationRecord{
		ID:        uuid.NewString(),
		UserID:    s.userID,
		TitleID:   event.TitleID,
		Kind:      event.Kind,
		Type:      event.Type,
		Title:     event.Title,
		Body:      bodyFor(event),
		Season:    event.Season,
		Episode:   event.Episode,
		Read:      false,
		CreatedAt: event.CreatedAt,
	}
	return s.store.AppendNotification(record)
}

// Dispatch hands the event to every configured dispatcher. Individual
// dispatcher failures are logged; the last one is returned.
func (s *Service) Dispatch(ctx context.Context, event *models.NotificationEvent) error {
	var lastErr error
	for _, d := range s.dispatchers {
		if err := d.Dispatch(ctx, event); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"title_id": event.TitleID,
				"type":     event.Type,
			}).Error("Failed to dispatch notification")
			lastErr = err
		}
	}
	return lastErr
}

// bodyFor composes the user-visible notification body
func bodyFor(event *models.NotificationEvent) string {
	switch event.Type {
	case models.NotificationNewEpisode:
		return fmt.Sprintf("Season %d, Episode %d of %s is now available", event.Season, event.Episode, event.Title)
	case models.NotificationNewTheatrical:
		if event.ReleaseDate != nil {
			return fmt.Sprintf("%s is in theaters since %s", event.Title, event.ReleaseDate.Format("January 2, 2006"))
		}
		return fmt.Sprintf("%s is now in theaters", event.Title)
	}
	return event.Title
}

// LogDispatcher writes notifications to the application log. It is
// always registered so every event leaves a trace even without a
// configured push channel.
type LogDispatcher struct {
	logger *logrus.Logger
}

// NewLogDispatcher creates a log-backed dispatcher
func NewLogDispatcher(logger *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the notification
func (d *LogDispatcher) Dispatch(_ context.Context, event *models.NotificationEvent) error {
	d.logger.WithFields(logrus.Fields{
		"title_id": event.TitleID,
		"kind":     event.Kind,
		"type":     event.Type,
		"title":    event.Title,
	}).Info("Notification: " + bodyFor(event))
	return nil
}
