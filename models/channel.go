package models

import "time"

// Channel is always referenced by its external id, not its row id; videos and
// list memberships carry channel_external_id.
type Channel struct {
	ID                int64      `json:"id"`
	CreatedAt         time.Time  `json:"createdAt"`
	ExternalID        string     `json:"externalId"`
	Title             string     `json:"title"`
	IsSubscribed      bool       `json:"isSubscribed"`
	SubscriberCount   *int64     `json:"subscriberCount"`
	ThumbnailURL      *string    `json:"thumbnailUrl"`
	MetadataUpdatedAt *time.Time `json:"metadataUpdatedAt"`

	VideoCount *int64 `json:"videoCount"`
}
