package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/gotrackarr/internal/metrics"
	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ReconcileController runs reconciliation passes: for every eligible
// title it compares the stored watermark against the current catalog
// state, emits at most one notification per new unit of content, and
// advances the watermark.
//
// The watermark is advanced regardless of sink success: a notification
// lost to a dispatch failure is accepted over the risk of re-firing the
// same event on the next pass.
type ReconcileController struct {
	store   RemoteStore
	catalog Catalog
	sink    Sink
	userID  string
	logger  *logrus.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewReconcileController creates a new reconcile controller
func NewReconcileController(store RemoteStore, catalogClient Catalog, sink Sink, userID string, logger *logrus.Logger) *ReconcileController {
	return &ReconcileController{
		store:    store,
		catalog:  catalogClient,
		sink:     sink,
		userID:   userID,
		logger:   logger,
		inFlight: make(map[string]bool),
	}
}

// RunPass evaluates every eligible title once. Per-title failures are
// logged and skipped; the pass continues with the remaining titles.
func (c *ReconcileController) RunPass(ctx context.Context) error {
	c.logger.Info("Starting reconciliation pass")

	series, err := c.store.ListRecords(c.userID, models.KindSeries, models.CategoryWatched, models.CategoryInProgress)
	if err != nil {
		return fmt.Errorf("failed to list series: %w", err)
	}

	movies, err := c.store.ListRecords(c.userID, models.KindMovie, models.CategoryWatched)
	if err != nil {
		return fmt.Errorf("failed to list movies: %w", err)
	}

	checked, failed := 0, 0

	for _, record := range series {
		if err := c.checkTitle(ctx, record, c.checkSeries); err != nil {
			c.logger.WithError(err).WithField("title_id", record.TitleID).Error("Series check failed")
			metrics.TitleCheckFailures.WithLabelValues(string(models.KindSeries)).Inc()
			failed++
			continue
		}
		metrics.TitlesChecked.WithLabelValues(string(models.KindSeries)).Inc()
		checked++
	}

	for _, record := range movies {
		if record.ReleaseNotified {
			continue
		}
		if err := c.checkTitle(ctx, record, c.checkMovie); err != nil {
			c.logger.WithError(err).WithField("title_id", record.TitleID).Error("Movie check failed")
			metrics.TitleCheckFailures.WithLabelValues(string(models.KindMovie)).Inc()
			failed++
			continue
		}
		metrics.TitlesChecked.WithLabelValues(string(models.KindMovie)).Inc()
		checked++
	}

	metrics.ReconcilePasses.Inc()
	c.logger.WithFields(logrus.Fields{
		"checked": checked,
		"failed":  failed,
	}).Info("Reconciliation pass completed")

	return nil
}

// checkTitle runs one title's check under the in-flight guard: a title
// still being evaluated by a previous pass is skipped, not re-entered.
func (c *ReconcileController) checkTitle(ctx context.Context, record *models.TitleRecord, check func(context.Context, *models.TitleRecord) error) error {
	key := string(record.Kind) + ":" + fmt.Sprint(record.TitleID)

	c.mu.Lock()
	if c.inFlight[key] {
		c.mu.Unlock()
		c.logger.WithField("title_id", record.TitleID).Warn("Check already in flight, skipping")
		return nil
	}
	c.inFlight[key] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, key)
		c.mu.Unlock()
	}()

	return check(ctx, record)
}

// checkSeries compares the stored watermark against the latest aired
// season. When new content exists it emits one new_episode event
// reporting the episode right after the last known one, then advances
// the watermark to the fetched values.
func (c *ReconcileController) checkSeries(ctx context.Context, record *models.TitleRecord) error {
	info, err := c.catalog.GetLatestSeasonInfo(ctx, record.TitleID)
	if err != nil {
		return fmt.Errorf("failed to get latest season info: %w", err)
	}

	now := time.Now()
	hasNew := info.Season > record.LastKnownSeason ||
		(info.Season == record.LastKnownSeason && info.EpisodeCount > record.LastKnownEpisode)

	if !hasNew {
		return c.store.MergeRecord(c.userID, models.KindSeries, record.TitleID, map[string]interface{}{
			fieldLastChecked: now,
			fieldUpdatedAt:   now,
		})
	}

	event := &models.NotificationEvent{
		TitleID:   record.TitleID,
		Kind:      models.KindSeries,
		Type:      models.NotificationNewEpisode,
		Title:     record.Title,
		Season:    info.Season,
		Episode:   record.LastKnownEpisode + 1,
		CreatedAt: now,
	}
	c.deliver(ctx, event)

	return c.store.MergeRecord(c.userID, models.KindSeries, record.TitleID, map[string]interface{}{
		fieldLastKnownSeason:  info.Season,
		fieldLastKnownEpisode: info.EpisodeCount,
		fieldLastChecked:      now,
		fieldUpdatedAt:        now,
	})
}

// checkMovie emits one new_theatrical_release event once the movie's
// theatrical date has passed, then marks the title so it never fires
// again.
func (c *ReconcileController) checkMovie(ctx context.Context, record *models.TitleRecord) error {
	releaseDate, err := c.catalog.GetTheatricalReleaseDate(ctx, record.TitleID)
	if err != nil {
		return fmt.Errorf("failed to get theatrical release date: %w", err)
	}

	now := time.Now()
	if releaseDate == nil || releaseDate.After(now) {
		return c.store.MergeRecord(c.userID, models.KindMovie, record.TitleID, map[string]interface{}{
			fieldLastChecked: now,
			fieldUpdatedAt:   now,
		})
	}

	event := &models.NotificationEvent{
		TitleID:     record.TitleID,
		Kind:        models.KindMovie,
		Type:        models.NotificationNewTheatrical,
		Title:       record.Title,
		ReleaseDate: releaseDate,
		CreatedAt:   now,
	}
	c.deliver(ctx, event)

	return c.store.MergeRecord(c.userID, models.KindMovie, record.TitleID, map[string]interface{}{
		fieldReleaseNotified: true,
		fieldLastChecked:     now,
		fieldUpdatedAt:       now,
	})
}

// deliver records the event in history and dispatches it. Failures are
// logged only: the caller advances the watermark either way.
func (c *ReconcileController) deliver(ctx context.Context, event *models.NotificationEvent) {
	delivered := false

	if err := c.sink.RecordHistory(event); err != nil {
		c.logger.WithError(err).WithField("title_id", event.TitleID).Error("Failed to record notification history")
		metrics.DispatchFailures.Inc()
	} else {
		delivered = true
	}
	if err := c.sink.Dispatch(ctx, event); err != nil {
		c.logger.WithError(err).WithField("title_id", event.TitleID).Error("Failed to dispatch notification")
		metrics.DispatchFailures.Inc()
	} else {
		delivered = true
	}

	if !delivered {
		return
	}

	metrics.NotificationsDispatched.WithLabelValues(string(event.Type)).Inc()
	c.logger.WithFields(logrus.Fields{
		"title_id": event.TitleID,
		"type":     event.Type,
		"title":    event.Title,
	}).Info("Notification emitted")
}
