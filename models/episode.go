package models

import "time"

// Episode is unique on (tv_show_id, season_number, episode_number); that
// triple is the conflict target when re-importing episode metadata.
type Episode struct {
	ID            int64      `json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	TVShowID      int64      `json:"tvShowId"`
	SeasonNumber  int64      `json:"seasonNumber"`
	EpisodeNumber int64      `json:"episodeNumber"`
	Title         string     `json:"title"`
	AirDate       *time.Time `json:"airDate"`
	IsWatched     bool       `json:"isWatched"`
	WatchedAt     *time.Time `json:"watchedAt"`
}
