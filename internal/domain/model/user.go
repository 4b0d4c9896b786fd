package model

import (
	"time"

	"telegram-tiktok-checker/internal/domain"

	"github.com/google/uuid"
)

// User is a Telegram account known to the bot.
// Language holds the user's reply language; empty means the configured default.
type User struct {
	ID           string
	TelegramID   int64
	Username     string
	Language     string
	RegisteredAt time.Time
	LastActiveAt time.Time
	IsAdmin      bool
}

// NewUser builds the row stored on first contact. Telegram does not require
// accounts to set a public @username, so an empty handle is accepted.
func NewUser(id string, tgID int64, username string) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// Touch marks the user as seen now.
func (u *User) Touch() { u.LastActiveAt = time.Now() }
