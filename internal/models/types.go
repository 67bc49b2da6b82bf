package models

import "fmt"

// Kind represents the type of title (movie or series)
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind converts a string into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMovie:
		return KindMovie, nil
	case KindSeries:
		return KindSeries, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Category represents the user-assigned watch-list bucket for a title
type Category string

const (
	CategoryWatched     Category = "watched"
	CategoryInProgress  Category = "in_progress"
	CategoryPlanToWatch Category = "plan_to_watch"
)

// Valid reports whether the category is one of the accepted values
func (c Category) Valid() bool {
	switch c {
	case CategoryWatched, CategoryInProgress, CategoryPlanToWatch:
		return true
	}
	return false
}

// NotificationType represents the kind of release event being reported
type NotificationType string

const (
	NotificationNewEpisode    NotificationType = "new_episode"
	NotificationNewTheatrical NotificationType = "new_theatrical_release"
)

// Rating bounds accepted by UpdateRecord
const (
	RatingMin = 0.0
	RatingMax = 5.0
)
