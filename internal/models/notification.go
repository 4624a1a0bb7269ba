package models

import "time"

// Notification is an in-app message. A nil UserID addresses the admin inbox.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ForAdmin reports whether the notification is an admin broadcast.
func (n *Notification) ForAdmin() bool {
	return n.UserID == nil
}
