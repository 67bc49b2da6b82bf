package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Column names used for partial-merge writes against the remote store
const (
	fieldCategory         = "category"
	fieldRating           = "rating"
	fieldReview           = "review"
	fieldWatchedEpisodes  = "watched_episodes"
	fieldLastKnownSeason  = "last_known_season"
	fieldLastKnownEpisode = "last_known_episode"
	fieldLastChecked      = "last_checked"
	fieldReleaseNotified  = "release_notified"
	fieldUpdatedAt        = "updated_at"
)

// ProgressController handles user-driven mutations of a title's watch
// state: category, rating, review and the per-season watched-episode
// sets. All writes are partial merges so concurrent engine watermark
// updates are never clobbered.
type ProgressController struct {
	store   RemoteStore
	cache   EpisodeCache
	catalog Catalog
	userID  string
	logger  *logrus.Logger
}

// NewProgressController creates a new progress controller
func NewProgressController(store RemoteStore, cache EpisodeCache, catalogClient Catalog, userID string, logger *logrus.Logger) *ProgressController {
	return &ProgressController{
		store:   store,
		cache:   cache,
		catalog: catalogClient,
		userID:  userID,
		logger:  logger,
	}
}

// UpdateFields carries a partial update; nil pointers leave the stored
// value untouched
type UpdateFields struct {
	Category *models.Category
	Rating   *float64
	Review   *string
}

// CreateRecord creates a new title record with the given category and
// all other fields defaulted
func (c *ProgressController) CreateRecord(titleID int64, kind models.Kind, title string, category models.Category) (*models.TitleRecord, error) {
	if !category.Valid() {
		return nil, models.NewValidationError("category", "must be one of watched, in_progress, plan_to_watch")
	}

	_, err := c.store.GetRecord(c.userID, kind, titleID)
	if err == nil {
		return nil, models.NewValidationError("title_id", "record already exists, use update instead")
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	record := &models.TitleRecord{
		UserID:          c.userID,
		Kind:            kind,
		TitleID:         titleID,
		Title:           title,
		Category:        category,
		Rating:          0,
		Review:          "",
		WatchedEpisodes: models.EpisodeSet{},
	}

	if err := c.store.CreateRecord(record); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"title_id": titleID,
		"kind":     kind,
		"category": category,
	}).Info("Created title record")

	return record, nil
}

// UpdateRecord merge-writes only the provided fields into an existing
// record. Invalid input is rejected and the stored state retained.
func (c *ProgressController) UpdateRecord(titleID int64, kind models.Kind, update UpdateFields) (*models.TitleRecord, error) {
	record, err := c.store.GetRecord(c.userID, kind, titleID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	if update.Category != nil {
		if !update.Category.Valid() {
			return nil, models.NewValidationError("category", "must be one of watched, in_progress, plan_to_watch")
		}
		fields[fieldCategory] = *update.Category
		record.Category = *update.Category
	}
	if update.Rating != nil {
		if *update.Rating < models.RatingMin || *update.Rating > models.RatingMax {
			return nil, models.NewValidationError("rating", "must be between 0 and 5")
		}
		fields[fieldRating] = *update.Rating
		record.Rating = *update.Rating
	}
	if update.Review != nil {
		fields[fieldReview] = *update.Review
		record.Review = *update.Review
	}

	if len(fields) == 0 {
		return record, nil
	}
	fields[fieldUpdatedAt] = time.Now()

	if err := c.store.MergeRecord(c.userID, kind, titleID, fields); err != nil {
		return nil, err
	}
	return record, nil
}

// ToggleEpisodeWatched flips membership of the episode in the season's
// watched set. When the remote store is unreachable the toggle is still
// applied to the local mirror so the device state keeps moving.
func (c *ProgressController) ToggleEpisodeWatched(titleID int64, season, episode int) (*models.TitleRecord, error) {
	if season < 1 {
		return nil, models.NewValidationError("season", "must be a positive season number")
	}
	if episode < 1 {
		return nil, models.NewValidationError("episode", "must be a positive episode number")
	}

	record, err := c.store.GetRecord(c.userID, models.KindSeries, titleID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		// Remote unreachable: toggle the mirror only. The next
		// successful remote read overwrites the mirror again.
		c.toggleMirror(titleID, season, episode)
		return nil, err
	}

	set := record.WatchedEpisodes.Clone()
	if set == nil {
		set = models.EpisodeSet{}
	}
	set.Toggle(season, episode)

	fields := map[string]interface{}{
		fieldWatchedEpisodes: set,
		fieldUpdatedAt:       time.Now(),
	}
	if err := c.store.MergeRecord(c.userID, models.KindSeries, titleID, fields); err != nil {
		return nil, err
	}

	record.WatchedEpisodes = set
	c.mirrorSeason(titleID, season, set[season])
	return record, nil
}

// SetSeasonWatched replaces the season's watched set with the given
// episode numbers
func (c *ProgressController) SetSeasonWatched(titleID int64, season int, episodes []int) (*models.TitleRecord, error) {
	return c.replaceSeason(titleID, season, episodes)
}

// ClearSeasonWatched removes all watched episodes for the season
func (c *ProgressController) ClearSeasonWatched(titleID int64, season int) (*models.TitleRecord, error) {
	return c.replaceSeason(titleID, season, nil)
}

func (c *ProgressController) replaceSeason(titleID int64, season int, episodes []int) (*models.TitleRecord, error) {
	if season < 1 {
		return nil, models.NewValidationError("season", "must be a positive season number")
	}

	record, err := c.store.GetRecord(c.userID, models.KindSeries, titleID)
	if err != nil {
		return nil, err
	}

	set := record.WatchedEpisodes.Clone()
	if set == nil {
		set = models.EpisodeSet{}
	}
	if len(episodes) == 0 {
		set.ClearSeason(season)
	} else {
		set.SetSeason(season, episodes)
	}

	fields := map[string]interface{}{
		fieldWatchedEpisodes: set,
		fieldUpdatedAt:       time.Now(),
	}
	if err := c.store.MergeRecord(c.userID, models.KindSeries, titleID, fields); err != nil {
		return nil, err
	}

	record.WatchedEpisodes = set
	c.mirrorSeason(titleID, season, set[season])
	return record, nil
}

// Record retrieves a title record and refreshes the local mirror from
// the authoritative copy
func (c *ProgressController) Record(titleID int64, kind models.Kind) (*models.TitleRecord, error) {
	record, err := c.store.GetRecord(c.userID, kind, titleID)
	if err != nil {
		return nil, err
	}

	for season, episodes := range record.WatchedEpisodes {
		c.mirrorSeason(titleID, season, episodes)
	}
	return record, nil
}

// Aggregates computes derived progress counts for a series, fetching
// episode counts from the catalog. Seasons whose count cannot be
// fetched are treated as not fully watched.
func (c *ProgressController) Aggregates(ctx context.Context, titleID int64) (models.Aggregates, error) {
	record, err := c.store.GetRecord(c.userID, models.KindSeries, titleID)
	if err != nil {
		return models.Aggregates{}, err
	}

	counts := make(map[int]int, len(record.WatchedEpisodes))
	for season := range record.WatchedEpisodes {
		count, err := c.catalog.GetSeasonEpisodeCount(ctx, titleID, season)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"title_id": titleID,
				"season":   season,
			}).Warn("Failed to get episode count, season counted as unfinished")
			continue
		}
		counts[season] = count
	}

	return models.ComputeAggregates(record, counts), nil
}

func (c *ProgressController) toggleMirror(titleID int64, season, episode int) {
	episodes, _, err := c.cache.GetSeason(titleID, season)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read episode mirror")
		return
	}

	set := models.EpisodeSet{season: episodes}
	set.Toggle(season, episode)
	c.mirrorSeason(titleID, season, set[season])
}

func (c *ProgressController) mirrorSeason(titleID int64, season int, episodes []int) {
	if err := c.cache.PutSeason(titleID, season, episodes); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"title_id": titleID,
			"season":   season,
		}).Warn("Failed to update episode mirror")
	}
}
