package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/amaumene/gotrackarr/internal/metrics"
	"github.com/amaumene/gotrackarr/internal/models"
	"github.com/amaumene/gotrackarr/internal/services/catalog"
	"github.com/amaumene/gotrackarr/internal/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileController(store *fakeStore, cat *fakeCatalog, sink *fakeSink) *ReconcileController {
	return NewReconcileController(store, cat, sink, testUser, utils.NewLogger("error"))
}

func watchedSeries(titleID int64, lastSeason, lastEpisode int) *models.TitleRecord {
	record := seriesRecord(titleID, models.CategoryWatched)
	record.LastKnownSeason = lastSeason
	record.LastKnownEpisode = lastEpisode
	return record
}

func watchedMovie(titleID int64) *models.TitleRecord {
	return &models.TitleRecord{
		UserID:   testUser,
		Kind:     models.KindMovie,
		TitleID:  titleID,
		Title:    "Some Movie",
		Category: models.CategoryWatched,
	}
}

func TestAtMostOnceNotification(t *testing.T) {
	store := newFakeStore()
	store.put(watchedSeries(42, 1, 5))

	cat := newFakeCatalog()
	cat.latest[42] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 6}

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, models.NotificationNewEpisode, event.Type)
	assert.Equal(t, 1, event.Season)
	assert.Equal(t, 6, event.Episode, "reports the episode after the last known one")

	stored := store.get(testUser, models.KindSeries, 42)
	assert.Equal(t, 1, stored.LastKnownSeason)
	assert.Equal(t, 6, stored.LastKnownEpisode)
	require.NotNil(t, stored.LastChecked)

	// Second pass with unchanged upstream state emits nothing
	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Len(t, sink.events, 1)
}

func TestNewSeasonNotification(t *testing.T) {
	store := newFakeStore()
	store.put(watchedSeries(42, 1, 10))

	cat := newFakeCatalog()
	cat.latest[42] = &catalog.SeasonInfo{Season: 2, EpisodeCount: 3}

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	require.Len(t, sink.events, 1)
	assert.Equal(t, 2, sink.events[0].Season)
	assert.Equal(t, 11, sink.events[0].Episode, "single notification even for multi-episode gaps")

	stored := store.get(testUser, models.KindSeries, 42)
	assert.Equal(t, 2, stored.LastKnownSeason)
	assert.Equal(t, 3, stored.LastKnownEpisode)
}

func TestWatermarkMonotonic(t *testing.T) {
	store := newFakeStore()
	store.put(watchedSeries(42, 3, 8))

	cat := newFakeCatalog()
	// Upstream reporting older state than the watermark must not move
	// the watermark backwards
	cat.latest[42] = &catalog.SeasonInfo{Season: 2, EpisodeCount: 10}

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	assert.Empty(t, sink.events)
	stored := store.get(testUser, models.KindSeries, 42)
	assert.Equal(t, 3, stored.LastKnownSeason)
	assert.Equal(t, 8, stored.LastKnownEpisode)
	assert.NotNil(t, stored.LastChecked, "lastChecked still advances")
}

func TestPartialFailureIsolation(t *testing.T) {
	store := newFakeStore()
	store.put(watchedSeries(1, 1, 1))
	store.put(watchedSeries(2, 1, 1))
	store.put(watchedSeries(3, 1, 1))

	cat := newFakeCatalog()
	cat.latest[1] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 2}
	cat.latestErr[2] = errUpstream
	cat.latest[3] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 2}

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()), "per-title failures do not fail the pass")

	assert.Len(t, sink.events, 2)
	assert.Equal(t, 2, store.get(testUser, models.KindSeries, 1).LastKnownEpisode)
	assert.Equal(t, 2, store.get(testUser, models.KindSeries, 3).LastKnownEpisode)

	failed := store.get(testUser, models.KindSeries, 2)
	assert.Equal(t, 1, failed.LastKnownEpisode, "failed title's watermark untouched")
	assert.Nil(t, failed.LastChecked, "failed title's lastChecked not advanced")
}

func TestMovieReleaseNotifiesOnce(t *testing.T) {
	store := newFakeStore()
	store.put(watchedMovie(7))

	cat := newFakeCatalog()
	released := time.Now().Add(-48 * time.Hour)
	cat.releases[7] = &released

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	require.Len(t, sink.events, 1)
	assert.Equal(t, models.NotificationNewTheatrical, sink.events[0].Type)
	assert.True(t, store.get(testUser, models.KindMovie, 7).ReleaseNotified)

	// The notified movie is excluded from subsequent passes entirely
	calls := cat.calls
	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Len(t, sink.events, 1)
	assert.Equal(t, calls, cat.calls, "no catalog call for an already-notified movie")
}

func TestMovieNotYetReleased(t *testing.T) {
	store := newFakeStore()
	store.put(watchedMovie(7))

	cat := newFakeCatalog()
	future := time.Now().Add(30 * 24 * time.Hour)
	cat.releases[7] = &future

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	assert.Empty(t, sink.events)
	stored := store.get(testUser, models.KindMovie, 7)
	assert.False(t, stored.ReleaseNotified)
	assert.NotNil(t, stored.LastChecked)
}

func TestMovieWithoutReleaseDate(t *testing.T) {
	store := newFakeStore()
	store.put(watchedMovie(7))

	sink := &fakeSink{}
	ctrl := newReconcileController(store, newFakeCatalog(), sink)

	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Empty(t, sink.events)
	assert.False(t, store.get(testUser, models.KindMovie, 7).ReleaseNotified)
}

func TestCategoryFiltering(t *testing.T) {
	store := newFakeStore()
	store.put(seriesRecord(1, models.CategoryPlanToWatch))
	movie := watchedMovie(2)
	movie.Category = models.CategoryPlanToWatch
	store.put(movie)

	cat := newFakeCatalog()
	cat.latest[1] = &catalog.SeasonInfo{Season: 9, EpisodeCount: 9}
	released := time.Now().Add(-time.Hour)
	cat.releases[2] = &released

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	assert.Empty(t, sink.events, "plan_to_watch titles are not polled")
	assert.Equal(t, 0, cat.calls)
}

func TestWatermarkAdvancesDespiteDispatchFailure(t *testing.T) {
	store := newFakeStore()
	store.put(watchedSeries(42, 1, 5))

	cat := newFakeCatalog()
	cat.latest[42] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 6}

	sink := &fakeSink{historyErr: errUpstream, dispatchErr: errUpstream}
	ctrl := newReconcileController(store, cat, sink)

	require.NoError(t, ctrl.RunPass(context.Background()))

	stored := store.get(testUser, models.KindSeries, 42)
	assert.Equal(t, 6, stored.LastKnownEpisode, "silent loss preferred over duplicates")

	// A recovered sink must not receive a duplicate on the next pass
	sink.historyErr = nil
	sink.dispatchErr = nil
	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Empty(t, sink.events)
}

func TestDispatchedCounterSkipsFullyFailedDelivery(t *testing.T) {
	counter := metrics.NotificationsDispatched.WithLabelValues(string(models.NotificationNewEpisode))

	store := newFakeStore()
	store.put(watchedSeries(42, 1, 5))

	cat := newFakeCatalog()
	cat.latest[42] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 6}

	sink := &fakeSink{historyErr: errUpstream, dispatchErr: errUpstream}
	ctrl := newReconcileController(store, cat, sink)

	before := testutil.ToFloat64(counter)
	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Equal(t, before, testutil.ToFloat64(counter), "nothing reached the sink, nothing was dispatched")

	// A partially successful delivery still counts
	store.put(watchedSeries(43, 1, 5))
	cat.latest[43] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 6}
	sink.historyErr = nil

	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestInFlightGuard(t *testing.T) {
	store := newFakeStore()
	store.put(watchedSeries(42, 1, 5))

	cat := newFakeCatalog()
	cat.latest[42] = &catalog.SeasonInfo{Season: 1, EpisodeCount: 6}

	sink := &fakeSink{}
	ctrl := newReconcileController(store, cat, sink)

	// Simulate a check still in flight from a previous pass
	ctrl.mu.Lock()
	ctrl.inFlight["series:42"] = true
	ctrl.mu.Unlock()

	require.NoError(t, ctrl.RunPass(context.Background()))
	assert.Empty(t, sink.events, "guarded title is skipped, not re-entered")
	assert.Equal(t, 1, store.get(testUser, models.KindSeries, 42).LastKnownSeason)
}
