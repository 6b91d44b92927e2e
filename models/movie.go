package models

import "time"

type Movie struct {
	ID                int64      `json:"id"`
	CreatedAt         time.Time  `json:"createdAt"`
	TMDBID            int64      `json:"tmdbId"`
	IMDBID            *string    `json:"imdbId"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	PosterPath        *string    `json:"posterPath"`
	RuntimeMinutes    *int64     `json:"runtimeMinutes"`
	ReleaseDate       *time.Time `json:"releaseDate"`
	FetchStatus       string     `json:"fetchStatus"`
	MetadataUpdatedAt *time.Time `json:"metadataUpdatedAt"`

	// From the movie_states left join; all false when never triaged.
	IsArchived     bool       `json:"isArchived"`
	IsStarred      bool       `json:"isStarred"`
	IsWatched      bool       `json:"isWatched"`
	StateUpdatedAt *time.Time `json:"stateUpdatedAt"`
}
