package models

import "time"

// Video triage states. Transitions are a free set operation: any state is
// reachable from any other, including back out of archive.
const (
	VideoStateFeed    = "feed"
	VideoStateInbox   = "inbox"
	VideoStateArchive = "archive"
)

func ValidVideoState(s string) bool {
	switch s {
	case VideoStateFeed, VideoStateInbox, VideoStateArchive:
		return true
	default:
		return false
	}
}

// Metadata enrichment progress, tracked independently of triage state.
const (
	FetchStatusPending     = "pending"
	FetchStatusCompleted   = "completed"
	FetchStatusUnavailable = "unavailable"
	FetchStatusFailed      = "failed"
)

// PlaceholderTitle is written to a row created before its metadata has been
// fetched. A "completed" item still carrying it qualifies for re-fetch.
const PlaceholderTitle = "(pending)"

type Video struct {
	ID                int64      `json:"id"`
	CreatedAt         time.Time  `json:"createdAt"`
	YouTubeID         string     `json:"youtubeId"`
	ChannelExternalID string     `json:"channelExternalId"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	ThumbnailPath     *string    `json:"thumbnailPath"`
	DurationSeconds   *int64     `json:"durationSeconds"`
	PublishedAt       *time.Time `json:"publishedAt"`
	FetchStatus       string     `json:"fetchStatus"`
	MetadataUpdatedAt *time.Time `json:"metadataUpdatedAt"`

	// From the video_states left join; nil when the video has never been
	// triaged.
	State          *string    `json:"state"`
	StateUpdatedAt *time.Time `json:"stateUpdatedAt"`

	// Denormalized from the channels left join.
	ChannelTitle *string `json:"channelTitle"`
}
