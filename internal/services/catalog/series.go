package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/gotrackarr/internal/models"
)

// SeasonInfo describes the latest released season of a series: its
// number, how many episodes of it have aired, and the most recent air
// date.
type SeasonInfo struct {
	Season       int
	EpisodeCount int
	LastAirDate  *time.Time
}

// TitleSummary is the minimal catalog metadata for a title
type TitleSummary struct {
	ID       int64
	Kind     models.Kind
	Title    string
	Year     int
	Overview string
}

type tvDetailsResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	FirstAirDate string `json:"first_air_date"`

	LastEpisodeToAir *struct {
		SeasonNumber  int    `json:"season_number"`
		EpisodeNumber int    `json:"episode_number"`
		AirDate       string `json:"air_date"`
	} `json:"last_episode_to_air"`

	Seasons []struct {
		SeasonNumber int    `json:"season_number"`
		EpisodeCount int    `json:"episode_count"`
		AirDate      string `json:"air_date"`
	} `json:"seasons"`
}

type seasonDetailsResponse struct {
	SeasonNumber int `json:"season_number"`
	Episodes     []struct {
		EpisodeNumber int    `json:"episode_number"`
		AirDate       string `json:"air_date"`
	} `json:"episodes"`
}

// GetLatestSeasonInfo returns the latest released season of a series
// and the number of its episodes aired so far
func (c *Client) GetLatestSeasonInfo(ctx context.Context, seriesID int64) (*SeasonInfo, error) {
	var details tvDetailsResponse
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", seriesID), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get series %d: %w", seriesID, err)
	}

	last := details.LastEpisodeToAir
	if last == nil || last.SeasonNumber == 0 {
		return nil, fmt.Errorf("series %d has no aired episodes", seriesID)
	}

	return &SeasonInfo{
		Season:       last.SeasonNumber,
		EpisodeCount: last.EpisodeNumber,
		LastAirDate:  parseDate(last.AirDate),
	}, nil
}

// GetSeasonEpisodeCount returns the number of episodes in a season
func (c *Client) GetSeasonEpisodeCount(ctx context.Context, seriesID int64, season int) (int, error) {
	var details seasonDetailsResponse
	path := fmt.Sprintf("/tv/%d/season/%d", seriesID, season)
	if err := c.get(ctx, path, nil, &details); err != nil {
		return 0, fmt.Errorf("failed to get season %d of series %d: %w", season, seriesID, err)
	}
	return len(details.Episodes), nil
}

// GetTitleSummary returns basic catalog metadata for a title
func (c *Client) GetTitleSummary(ctx context.Context, titleID int64, kind models.Kind) (*TitleSummary, error) {
	switch kind {
	case models.KindSeries:
		var details tvDetailsResponse
		if err := c.get(ctx, fmt.Sprintf("/tv/%d", titleID), nil, &details); err != nil {
			return nil, fmt.Errorf("failed to get series %d: %w", titleID, err)
		}
		return &TitleSummary{
			ID:       details.ID,
			Kind:     models.KindSeries,
			Title:    details.Name,
			Year:     yearOf(details.FirstAirDate),
			Overview: details.Overview,
		}, nil

	case models.KindMovie:
		var details movieDetailsResponse
		if err := c.get(ctx, fmt.Sprintf("/movie/%d", titleID), nil, &details); err != nil {
			return nil, fmt.Errorf("failed to get movie %d: %w", titleID, err)
		}
		return &TitleSummary{
			ID:       details.ID,
			Kind:     models.KindMovie,
			Title:    details.Title,
			Year:     yearOf(details.ReleaseDate),
			Overview: details.Overview,
		}, nil
	}

	return nil, fmt.Errorf("unknown kind %q", kind)
}

func yearOf(date string) int {
	t := parseDate(date)
	if t == nil {
		return 0
	}
	return t.Year()
}
