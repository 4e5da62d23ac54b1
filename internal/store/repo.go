package store

import (
	"context"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
)

// Repo defines storage operations for users and reminders.
type Repo interface {
	CreateUser(ctx context.Context, telegramID int64, secretToken string) (*domain.User, error)
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	SetTimeZone(ctx context.Context, telegramID int64, tz string) error

	CreateReminder(ctx context.Context, r *domain.Reminder) error
	ListUserReminders(ctx context.Context, telegramID int64) ([]domain.Reminder, error)
	ListActiveReminders(ctx context.Context) ([]domain.Reminder, error)
	UpdateReminderStatus(ctx context.Context, id int64, status domain.Status) error

	Close()
}
