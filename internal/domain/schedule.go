package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownScheduleType = errors.New("unknown schedule type")
	ErrBadSchedulePayload  = errors.New("malformed schedule payload")
)

// Payload shapes per schedule type. Times of day are "HH:MM" wall clock in
// the reminder's zone; OncePayload.DateTime is ISO-8601 normalized to UTC.
type (
	OncePayload struct {
		DateTime string `json:"date_time"`
	}
	DailyPayload struct {
		Time string `json:"time"`
	}
	WeeklyPayload struct {
		Days []string `json:"days"`
		Time string   `json:"time"`
	}
	IntervalPayload struct {
		Interval int    `json:"interval"`
		Time     string `json:"time"`
	}
)

// IsDue reports whether r fires at nowUTC. Pure: no I/O, deterministic.
// A non-nil error means the reminder itself is broken (bad payload, bad
// zone) and should be skipped by the caller, never that the tick must stop.
func IsDue(r *Reminder, nowUTC time.Time) (bool, error) {
	switch r.ScheduleType {
	case ScheduleOnce:
		return dueOnce(r.ScheduleData, nowUTC)
	case ScheduleDaily:
		return dueDaily(r.ScheduleData, r.TimeZone, nowUTC)
	case ScheduleWeekly:
		return dueWeekly(r.ScheduleData, r.TimeZone, nowUTC)
	case ScheduleInterval:
		return dueInterval(r.ScheduleData, r.TimeZone, nowUTC)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownScheduleType, r.ScheduleType)
	}
}

// dueOnce fires from the stored instant onward, so an occurrence missed
// during downtime is caught late on the next tick rather than dropped.
// The caller is responsible for completing the reminder after a send.
func dueOnce(data json.RawMessage, nowUTC time.Time) (bool, error) {
	var p OncePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadSchedulePayload, err)
	}
	at, err := parseInstant(p.DateTime)
	if err != nil {
		return false, fmt.Errorf("%w: date_time: %v", ErrBadSchedulePayload, err)
	}
	return !nowUTC.Before(at), nil
}

// dueDaily fires on exact local hour:minute equality. With a one-minute
// tick this yields one firing per day; a tick missed at that minute skips
// the day's occurrence.
func dueDaily(data json.RawMessage, tz string, nowUTC time.Time) (bool, error) {
	var p DailyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadSchedulePayload, err)
	}
	return matchesLocalTime(p.Time, tz, nowUTC)
}

func dueWeekly(data json.RawMessage, tz string, nowUTC time.Time) (bool, error) {
	var p WeeklyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadSchedulePayload, err)
	}
	if len(p.Days) == 0 {
		return false, fmt.Errorf("%w: empty day set", ErrBadSchedulePayload)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return false, fmt.Errorf("load location %q: %w", tz, err)
	}
	today := WeekdayLabel(nowUTC.In(loc).Weekday())
	member := false
	for _, d := range p.Days {
		if d == today {
			member = true
			break
		}
	}
	if !member {
		return false, nil
	}
	return matchesLocalTime(p.Time, tz, nowUTC)
}

// dueInterval gates on time of day only. The stored day-count is validated
// but does not currently space out firings; any change to "every N days"
// semantics belongs here.
func dueInterval(data json.RawMessage, tz string, nowUTC time.Time) (bool, error) {
	var p IntervalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadSchedulePayload, err)
	}
	if p.Interval < 1 {
		return false, fmt.Errorf("%w: interval must be >= 1", ErrBadSchedulePayload)
	}
	return matchesLocalTime(p.Time, tz, nowUTC)
}

// matchesLocalTime converts nowUTC to tz and compares hour and minute
// against an "HH:MM" string.
func matchesLocalTime(hhmm, tz string, nowUTC time.Time) (bool, error) {
	h, m, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return false, fmt.Errorf("%w: time: %v", ErrBadSchedulePayload, err)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return false, fmt.Errorf("load location %q: %w", tz, err)
	}
	local := nowUTC.In(loc)
	return local.Hour() == h && local.Minute() == m, nil
}

// parseInstant accepts RFC 3339 and, for older rows written without an
// offset, a bare ISO-8601 timestamp interpreted as UTC.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// WeekdayLabel maps a weekday to the stored 3-letter capitalized label.
func WeekdayLabel(d time.Weekday) string {
	return d.String()[:3]
}
