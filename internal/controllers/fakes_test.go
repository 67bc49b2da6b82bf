package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/amaumene/gotrackarr/internal/services/catalog"
)

var errUpstream = errors.New("upstream unavailable")

type fakeStore struct {
	records   map[string]*models.TitleRecord
	getErr    error
	mergeErr  error
	mergeLog  []map[string]interface{}
	createLog []*models.TitleRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.TitleRecord)}
}

func recordKey(userID string, kind models.Kind, titleID int64) string {
	return fmt.Sprintf("%s/%s/%d", userID, kind, titleID)
}

func (f *fakeStore) put(record *models.TitleRecord) {
	copy := *record
	f.records[recordKey(record.UserID, record.Kind, record.TitleID)] = &copy
}

func (f *fakeStore) get(userID string, kind models.Kind, titleID int64) *models.TitleRecord {
	return f.records[recordKey(userID, kind, titleID)]
}

func (f *fakeStore) GetRecord(userID string, kind models.Kind, titleID int64) (*models.TitleRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[recordKey(userID, kind, titleID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	copy := *record
	copy.WatchedEpisodes = record.WatchedEpisodes.Clone()
	return &copy, nil
}

func (f *fakeStore) CreateRecord(record *models.TitleRecord) error {
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	f.put(record)
	f.createLog = append(f.createLog, record)
	return nil
}

func (f *fakeStore) MergeRecord(userID string, kind models.Kind, titleID int64, fields map[string]interface{}) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	record, ok := f.records[recordKey(userID, kind, titleID)]
	if !ok {
		return models.ErrNotFound
	}

	for column, value := range fields {
		switch column {
		case fieldCategory:
			record.Category = value.(models.Category)
		case fieldRating:
			record.Rating = value.(float64)
		case fieldReview:
			record.Review = value.(string)
		case fieldWatchedEpisodes:
			record.WatchedEpisodes = value.(models.EpisodeSet).Clone()
		case fieldLastKnownSeason:
			record.LastKnownSeason = value.(int)
		case fieldLastKnownEpisode:
			record.LastKnownEpisode = value.(int)
		case fieldLastChecked:
			t := value.(time.Time)
			record.LastChecked = &t
		case fieldReleaseNotified:
			record.ReleaseNotified = value.(bool)
		case fieldUpdatedAt:
			record.UpdatedAt = value.(time.Time)
		default:
			return fmt.Errorf("unexpected merge column %q", column)
		}
	}

	f.mergeLog = append(f.mergeLog, fields)
	return nil
}

func (f *fakeStore) ListRecords(userID string, kind models.Kind, categories ...models.Category) ([]*models.TitleRecord, error) {
	var out []*models.TitleRecord
	for _, record := range f.records {
		if record.UserID != userID || record.Kind != kind {
			continue
		}
		if len(categories) > 0 {
			match := false
			for _, category := range categories {
				if record.Category == category {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		copy := *record
		copy.WatchedEpisodes = record.WatchedEpisodes.Clone()
		out = append(out, &copy)
	}
	return out, nil
}

type fakeCache struct {
	seasons map[string][]int
	putErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{seasons: make(map[string][]int)}
}

func cacheKey(titleID int64, season int) string {
	return fmt.Sprintf("%d:%d", titleID, season)
}

func (f *fakeCache) GetSeason(titleID int64, season int) ([]int, bool, error) {
	episodes, ok := f.seasons[cacheKey(titleID, season)]
	return episodes, ok, nil
}

func (f *fakeCache) PutSeason(titleID int64, season int, episodes []int) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.seasons[cacheKey(titleID, season)] = append([]int(nil), episodes...)
	return nil
}

type fakeCatalog struct {
	latest       map[int64]*catalog.SeasonInfo
	latestErr    map[int64]error
	releases     map[int64]*time.Time
	releasesErr  map[int64]error
	seasonCounts map[int64]map[int]int
	countErr     map[int64]error
	calls        int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		latest:       make(map[int64]*catalog.SeasonInfo),
		latestErr:    make(map[int64]error),
		releases:     make(map[int64]*time.Time),
		releasesErr:  make(map[int64]error),
		seasonCounts: make(map[int64]map[int]int),
		countErr:     make(map[int64]error),
	}
}

func (f *fakeCatalog) GetTitleSummary(_ context.Context, titleID int64, kind models.Kind) (*catalog.TitleSummary, error) {
	return &catalog.TitleSummary{ID: titleID, Kind: kind}, nil
}

func (f *fakeCatalog) GetSeasonEpisodeCount(_ context.Context, seriesID int64, season int) (int, error) {
	f.calls++
	if err := f.countErr[seriesID]; err != nil {
		return 0, err
	}
	return f.seasonCounts[seriesID][season], nil
}

func (f *fakeCatalog) GetLatestSeasonInfo(_ context.Context, seriesID int64) (*catalog.SeasonInfo, error) {
	f.calls++
	if err := f.latestErr[seriesID]; err != nil {
		return nil, err
	}
	info, ok := f.latest[seriesID]
	if !ok {
		return nil, errUpstream
	}
	return info, nil
}

func (f *fakeCatalog) GetTheatricalReleaseDate(_ context.Context, movieID int64) (*time.Time, error) {
	f.calls++
	if err := f.releasesErr[movieID]; err != nil {
		return nil, err
	}
	return f.releases[movieID], nil
}

type fakeSink struct {
	events      []*models.NotificationEvent
	historyErr  error
	dispatchErr error
	dispatched  int
}

func (f *fakeSink) RecordHistory(event *models.NotificationEvent) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSink) Dispatch(_ context.Context, event *models.NotificationEvent) error {
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatched++
	return nil
}
