package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// EpisodeSet maps a season number to the sorted set of watched episode
// numbers in that season. Season keys are bare integers; episode lists
// are kept sorted and free of duplicates.
type EpisodeSet map[int][]int

// Contains reports whether the episode is marked watched
func (s EpisodeSet) Contains(season, episode int) bool {
	for _, e := range s[season] {
		if e == episode {
			return true
		}
	}
	return false
}

// Toggle flips membership of the episode in the season's watched set,
// creating the season entry if absent
func (s EpisodeSet) Toggle(season, episode int) {
	episodes := s[season]
	for i, e := range episodes {
		if e == episode {
			s[season] = append(episodes[:i], episodes[i+1:]...)
			return
		}
	}
	episodes = append(episodes, episode)
	sort.Ints(episodes)
	s[season] = episodes
}

// SetSeason replaces the season's watched set with the given episodes
func (s EpisodeSet) SetSeason(season int, episodes []int) {
	seen := make(map[int]bool, len(episodes))
	set := make([]int, 0, len(episodes))
	for _, e := range episodes {
		if !seen[e] {
			seen[e] = true
			set = append(set, e)
		}
	}
	sort.Ints(set)
	s[season] = set
}

// ClearSeason removes all watched episodes for the season
func (s EpisodeSet) ClearSeason(season int) {
	delete(s, season)
}

// Count returns the total number of watched episodes across all seasons
func (s EpisodeSet) Count() int {
	total := 0
	for _, episodes := range s {
		total += len(episodes)
	}
	return total
}

// Clone returns a deep copy of the set
func (s EpisodeSet) Clone() EpisodeSet {
	out := make(EpisodeSet, len(s))
	for season, episodes := range s {
		out[season] = append([]int(nil), episodes...)
	}
	return out
}

// Value serializes the set as JSON for database storage
func (s EpisodeSet) Value() (driver.Value, error) {
	if s == nil {
		s = EpisodeSet{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode episode set: %w", err)
	}
	return string(data), nil
}

// Scan deserializes the set from its JSON database representation
func (s *EpisodeSet) Scan(src interface{}) error {
	if src == nil {
		*s = EpisodeSet{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported episode set source type %T", src)
	}

	if len(data) == 0 {
		*s = EpisodeSet{}
		return nil
	}

	return json.Unmarshal(data, s)
}

// TitleRecord is the per-user, per-title watch-state document.
//
// Category, rating, review and the watched-episode set are mutated by
// user actions. The watermark fields (LastKnownSeason, LastKnownEpisode,
// LastChecked, ReleaseNotified) are mutated only by the reconciliation
// engine, which never touches the user-owned fields. All writes go
// through partial-merge updates so the two sides cannot clobber each
// other.
type TitleRecord struct {
	UserID  string `gorm:"primaryKey;size:64" json:"user_id"`
	Kind    Kind   `gorm:"primaryKey;size:16" json:"kind"`
	TitleID int64  `gorm:"primaryKey" json:"title_id"`

	Title    string   `json:"title"`
	Category Category `gorm:"size:32;index" json:"category"`
	Rating   float64  `json:"rating"`
	Review   string   `json:"review"`

	// Series only
	WatchedEpisodes EpisodeSet `gorm:"type:text" json:"watched_episodes"`

	// Watermark: highest season/episode known as released at the last
	// successful reconciliation pass. Monotonically non-decreasing.
	LastKnownSeason  int        `json:"last_known_season"`
	LastKnownEpisode int        `json:"last_known_episode"`
	LastChecked      *time.Time `json:"last_checked,omitempty"`

	// Movies only: set once the theatrical-release notification has
	// fired, excluding the title from future passes.
	ReleaseNotified bool `json:"release_notified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for gorm
func (TitleRecord) TableName() string {
	return "title_records"
}

// Aggregates holds derived watch-progress counts for a series
type Aggregates struct {
	WatchedSeasonsCount  int `json:"watched_seasons_count"`
	WatchedEpisodesCount int `json:"watched_episodes_count"`
}

// ComputeAggregates derives progress counts from a record's watched set.
// A season counts as watched only when its set size equals the season's
// known episode count; seasons with an unknown count are never counted
// as fully watched.
func ComputeAggregates(record *TitleRecord, seasonEpisodeCounts map[int]int) Aggregates {
	var agg Aggregates
	for season, episodes := range record.WatchedEpisodes {
		agg.WatchedEpisodesCount += len(episodes)
		if count, ok := seasonEpisodeCounts[season]; ok && count > 0 && len(episodes) == count {
			agg.WatchedSeasonsCount++
		}
	}
	return agg
}
