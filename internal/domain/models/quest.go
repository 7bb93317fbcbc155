package models

import "time"

type Quest struct {
	ID    string `json:"id"`
	Tag   string `json:"tag"`
	Title string `json:"title"`
}

type UserQuest struct {
	UserID      string    `json:"user_id"`
	QuestID     string    `json:"quest_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type NotificationKind string

const (
	NotificationBookingConfirmed NotificationKind = "booking_confirmed"
	NotificationBookingCancelled NotificationKind = "booking_cancelled"
)

type Notification struct {
	UserID  string           `json:"user_id"`
	Kind    NotificationKind `json:"kind"`
	OrderID string           `json:"order_id"`
	Content string           `json:"content"`
}
