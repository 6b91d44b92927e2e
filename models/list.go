package models

import "time"

// ChannelList is a named, colored, ordered collection of channels. Members
// carry an explicit position assigned by the store, never inferred from
// insertion order.
type ChannelList struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`

	ItemCount int64 `json:"itemCount"`
}

type ChannelListItem struct {
	ID                int64     `json:"id"`
	ListID            int64     `json:"listId"`
	ChannelExternalID string    `json:"channelExternalId"`
	Position          int64     `json:"position"`
	AddedAt           time.Time `json:"addedAt"`
}

type MoviePlaylist struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`

	ItemCount int64 `json:"itemCount"`
}

type MoviePlaylistItem struct {
	ID         int64     `json:"id"`
	PlaylistID int64     `json:"playlistId"`
	MovieID    int64     `json:"movieId"`
	Position   int64     `json:"position"`
	AddedAt    time.Time `json:"addedAt"`
}
