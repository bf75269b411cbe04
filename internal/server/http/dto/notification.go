package dto

import "time"

type NotificationResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	OrderID   *int64    `json:"order_id,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
