package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpisodeSetToggle(t *testing.T) {
	set := EpisodeSet{}

	set.Toggle(1, 3)
	assert.True(t, set.Contains(1, 3))
	assert.Equal(t, []int{3}, set[1])

	set.Toggle(1, 1)
	assert.Equal(t, []int{1, 3}, set[1], "episodes stay sorted")

	// Toggling twice is a net no-op
	set.Toggle(1, 5)
	set.Toggle(1, 5)
	assert.Equal(t, []int{1, 3}, set[1])
	assert.False(t, set.Contains(1, 5))
}

func TestEpisodeSetSetSeason(t *testing.T) {
	set := EpisodeSet{1: {1, 2}}

	set.SetSeason(1, []int{5, 3, 3, 1})
	assert.Equal(t, []int{1, 3, 5}, set[1], "replacement dedupes and sorts")

	set.ClearSeason(1)
	assert.NotContains(t, set, 1)
}

func TestEpisodeSetCount(t *testing.T) {
	set := EpisodeSet{
		1: {1, 2, 3},
		2: {1},
	}
	assert.Equal(t, 4, set.Count())
}

func TestEpisodeSetClone(t *testing.T) {
	set := EpisodeSet{1: {1, 2}}
	clone := set.Clone()

	clone.Toggle(1, 3)
	assert.Equal(t, []int{1, 2}, set[1], "clone mutations must not leak back")
	assert.Equal(t, []int{1, 2, 3}, clone[1])
}

func TestEpisodeSetSerialization(t *testing.T) {
	set := EpisodeSet{1: {1, 2}, 3: {4}}

	value, err := set.Value()
	require.NoError(t, err)

	var decoded EpisodeSet
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, set, decoded)

	var empty EpisodeSet
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestComputeAggregates(t *testing.T) {
	record := &TitleRecord{
		WatchedEpisodes: EpisodeSet{
			1: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			2: {1, 2, 3},
		},
	}
	counts := map[int]int{1: 10, 2: 8}

	agg := ComputeAggregates(record, counts)
	assert.Equal(t, 1, agg.WatchedSeasonsCount)
	assert.Equal(t, 13, agg.WatchedEpisodesCount)
}

func TestComputeAggregatesUnknownCount(t *testing.T) {
	record := &TitleRecord{
		WatchedEpisodes: EpisodeSet{
			1: {1, 2, 3},
		},
	}

	// No known episode count for season 1: episodes are counted but
	// the season is never considered fully watched
	agg := ComputeAggregates(record, map[int]int{})
	assert.Equal(t, 0, agg.WatchedSeasonsCount)
	assert.Equal(t, 3, agg.WatchedEpisodesCount)
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryWatched.Valid())
	assert.True(t, CategoryInProgress.Valid())
	assert.True(t, CategoryPlanToWatch.Valid())
	assert.False(t, Category("").Valid())
	assert.False(t, Category("favorite").Valid())
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("movie")
	require.NoError(t, err)
	assert.Equal(t, KindMovie, kind)

	_, err = ParseKind("show")
	assert.Error(t, err)
}
