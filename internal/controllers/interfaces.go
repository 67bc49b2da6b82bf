package controllers

import (
	"context"
	"time"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/amaumene/gotrackarr/internal/services/catalog"
)

// RemoteStore is the authoritative per-user document store for title
// records. Merge writes touch only the provided fields.
type RemoteStore interface {
	GetRecord(userID string, kind models.Kind, titleID int64) (*models.TitleRecord, error)
	CreateRecord(record *models.TitleRecord) error
	MergeRecord(userID string, kind models.Kind, titleID int64, fields map[string]interface{}) error
	ListRecords(userID string, kind models.Kind, categories ...models.Category) ([]*models.TitleRecord, error)
}

// EpisodeCache is the durable on-device mirror of watched-episode sets.
// It is never authoritative while the remote store is reachable.
type EpisodeCache interface {
	GetSeason(titleID int64, season int) ([]int, bool, error)
	PutSeason(titleID int64, season int, episodes []int) error
}

// Catalog is the read-only gateway to the upstream metadata API
type Catalog interface {
	GetTitleSummary(ctx context.Context, titleID int64, kind models.Kind) (*catalog.TitleSummary, error)
	GetSeasonEpisodeCount(ctx context.Context, seriesID int64, season int) (int, error)
	GetLatestSeasonInfo(ctx context.Context, seriesID int64) (*catalog.SeasonInfo, error)
	GetTheatricalReleaseDate(ctx context.Context, movieID int64) (*time.Time, error)
}

// Sink records and dispatches notifications. The engine calls both
// methods as one logical unit and advances its watermark regardless of
// their outcome.
type Sink interface {
	RecordHistory(event *models.NotificationEvent) error
	Dispatch(ctx context.Context, event *models.NotificationEvent) error
}
