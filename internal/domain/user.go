package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User is a registered chat user. SecretToken is generated once at creation
// and authenticates the read API; TimeZone stays empty until the user sets it.
type User struct {
	TelegramID  int64
	SecretToken string
	TimeZone    string
	CreatedAt   time.Time // UTC
}
