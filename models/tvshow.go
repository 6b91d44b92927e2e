package models

import "time"

type TVShow struct {
	ID                int64      `json:"id"`
	CreatedAt         time.Time  `json:"createdAt"`
	TMDBID            int64      `json:"tmdbId"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	PosterPath        *string    `json:"posterPath"`
	FirstAirDate      *time.Time `json:"firstAirDate"`
	FetchStatus       string     `json:"fetchStatus"`
	MetadataUpdatedAt *time.Time `json:"metadataUpdatedAt"`

	// From the tv_show_states left join; false when never triaged.
	IsArchived     bool       `json:"isArchived"`
	IsStarted      bool       `json:"isStarted"`
	StateUpdatedAt *time.Time `json:"stateUpdatedAt"`

	// Derived per-show episode aggregates, computed once per query as named
	// derived tables so filters and sorts share them.
	NextAirDate  *time.Time `json:"nextAirDate"`
	LastAirDate  *time.Time `json:"lastAirDate"`
	EpisodeCount int64      `json:"episodeCount"`
	WatchedCount int64      `json:"watchedCount"`
}
