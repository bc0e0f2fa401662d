package models

import "time"

// Notification types understood by the external delivery collaborator.
const (
	NotificationTypeRate = "rate"
)

// Notification is a write-only output of the alert dispatcher.
// Delivery (email, in-app) is owned by an external collaborator.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"` // the broker, not the client
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
