package models

import "time"

type Comment struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	VideoID   int64     `json:"videoId"`
	Content   string    `json:"content"`
}
