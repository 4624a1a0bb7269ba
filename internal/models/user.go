package models

import (
	"strconv"
	"time"
)

// User is a guest or an administrator.
type User struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	ContactInfo    string    `json:"contact_info,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeliveryAddress returns where outbound messages for the user should go.
// A linked Telegram chat wins over the e-mail address.
func (u *User) DeliveryAddress() string {
	if u.TelegramChatID != 0 {
		return strconv.FormatInt(u.TelegramChatID, 10)
	}
	return u.Email
}
