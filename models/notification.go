package models

import "time"

// NotificationKind 區分通知事件的種類
type NotificationKind string

const (
	NotificationBidPlaced NotificationKind = "bid_placed"
	NotificationPromotion NotificationKind = "promotion_applied"
)

// Notification 代表收件匣中的一則通知
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Payload   map[string]any   `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
}
