package models

import "time"

type Tag struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	VideoID   int64     `json:"videoId"`
	Name      string    `json:"name"`
}
