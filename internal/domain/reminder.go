package domain

import (
	"encoding/json"
	"errors"
	"time"
)

type ScheduleType string

const (
	ScheduleOnce     ScheduleType = "once"
	ScheduleDaily    ScheduleType = "daily"
	ScheduleWeekly   ScheduleType = "weekly"
	ScheduleInterval ScheduleType = "interval"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

var ErrReminderNotFound = errors.New("reminder not found")

// Reminder is a stored instruction to notify its owner at one-off or
// recurring moments. ScheduleData is the raw JSON payload whose shape is
// keyed by ScheduleType; TimeZone is snapshotted from the owner at creation.
type Reminder struct {
	ID           int64
	UserID       int64
	TaskName     string
	Description  string
	ScheduleType ScheduleType
	ScheduleData json.RawMessage
	TimeZone     string
	Status       Status
	CreatedAt    time.Time // UTC
}

// ValidScheduleType reports whether s names a known recurrence family.
func ValidScheduleType(s string) bool {
	switch ScheduleType(s) {
	case ScheduleOnce, ScheduleDaily, ScheduleWeekly, ScheduleInterval:
		return true
	}
	return false
}
