package catalog

import (
	"context"
	"fmt"
	"time"
)

// TMDB release type 3 is the theatrical release
const releaseTypeTheatrical = 3

type movieDetailsResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
	Status      string `json:"status"`
}

type movieReleaseDatesResponse struct {
	Results []struct {
		ISO31661     string `json:"iso_3166_1"`
		ReleaseDates []struct {
			ReleaseDate string `json:"release_date"`
			Type        int    `json:"type"`
		} `json:"release_dates"`
	} `json:"results"`
}

// GetTheatricalReleaseDate returns the earliest theatrical release date
// of a movie, or nil when no date has been announced yet
func (c *Client) GetTheatricalReleaseDate(ctx context.Context, movieID int64) (*time.Time, error) {
	var releases movieReleaseDatesResponse
	path := fmt.Sprintf("/movie/%d/release_dates", movieID)
	if err := c.get(ctx, path, nil, &releases); err != nil {
		return nil, fmt.Errorf("failed to get release dates for movie %d: %w", movieID, err)
	}

	var earliest *time.Time
	for _, country := range releases.Results {
		for _, release := range country.ReleaseDates {
			if release.Type != releaseTypeTheatrical {
				continue
			}
			date := parseReleaseDate(release.ReleaseDate)
			if date == nil {
				continue
			}
			if earliest == nil || date.Before(*earliest) {
				earliest = date
			}
		}
	}
	if earliest != nil {
		return earliest, nil
	}

	// Fall back to the top-level release date when no per-country
	// theatrical entry exists
	var details movieDetailsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}
	return parseDate(details.ReleaseDate), nil
}

// parseReleaseDate handles the RFC3339 timestamps used by the
// release_dates endpoint as well as plain dates
func parseReleaseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return parseDate(s)
}
