package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrInvalidDateTime = errors.New("invalid date-time, expected YYYY-MM-DD HH:MM")
	ErrInvalidTime     = errors.New("invalid time, expected HH:MM")
	ErrInvalidWeekday  = errors.New("invalid weekday")
	ErrInvalidInterval = errors.New("invalid interval, expected a day count >= 1")
)

const dateTimeLayout = "2006-01-02 15:04"

// weekdayLabels in canonical storage form, Monday first for menus.
var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseDateTime parses "YYYY-MM-DD HH:MM" as wall-clock time in tz and
// returns the instant normalized to UTC.
func ParseDateTime(s, tz string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyInput
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("load location %q: %w", tz, err)
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, s)
	}
	return t.UTC(), nil
}

// ParseTimeOfDay parses "HH:MM" into hour and minute.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute in %q", ErrInvalidTime, s)
	}
	return hour, minute, nil
}

// ParseWeekdays parses a comma-separated day list ("mon, Wednesday, FRI")
// into canonical 3-letter labels, deduplicated, in week order.
func ParseWeekdays(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyInput
	}
	seen := map[string]bool{}
	for _, raw := range strings.Split(s, ",") {
		label, ok := canonicalWeekday(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, strings.TrimSpace(raw))
		}
		seen[label] = true
	}
	var days []string
	for _, label := range weekdayLabels {
		if seen[label] {
			days = append(days, label)
		}
	}
	return days, nil
}

// canonicalWeekday accepts a 3-letter label or any unambiguous prefix of
// the full English day name, case-insensitive.
func canonicalWeekday(raw string) (string, bool) {
	w := strings.ToLower(strings.TrimSpace(raw))
	if len(w) < 3 {
		return "", false
	}
	for _, label := range weekdayLabels {
		if strings.HasPrefix(strings.ToLower(longWeekday(label)), w) {
			return label, true
		}
	}
	return "", false
}

func longWeekday(label string) string {
	switch label {
	case "Mon":
		return "Monday"
	case "Tue":
		return "Tuesday"
	case "Wed":
		return "Wednesday"
	case "Thu":
		return "Thursday"
	case "Fri":
		return "Friday"
	case "Sat":
		return "Saturday"
	case "Sun":
		return "Sunday"
	}
	return label
}

// ParseIntervalDays parses a positive day count.
func ParseIntervalDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return n, nil
}

// ValidateTZ checks that tz is a resolvable IANA location and returns its
// canonical name.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// DescribeSchedule renders a reminder's rule for chat output, e.g.
// "once at 2024-09-15 14:30" or "weekly on Mon, Fri at 09:00".
func DescribeSchedule(r *Reminder) string {
	switch r.ScheduleType {
	case ScheduleOnce:
		var p OncePayload
		if json.Unmarshal(r.ScheduleData, &p) != nil {
			return string(r.ScheduleType)
		}
		if at, err := parseInstant(p.DateTime); err == nil {
			if loc, lerr := time.LoadLocation(r.TimeZone); lerr == nil {
				return "once at " + at.In(loc).Format(dateTimeLayout)
			}
			return "once at " + at.Format(dateTimeLayout) + " UTC"
		}
		return string(r.ScheduleType)
	case ScheduleDaily:
		var p DailyPayload
		if json.Unmarshal(r.ScheduleData, &p) != nil {
			return string(r.ScheduleType)
		}
		return "daily at " + p.Time
	case ScheduleWeekly:
		var p WeeklyPayload
		if json.Unmarshal(r.ScheduleData, &p) != nil {
			return string(r.ScheduleType)
		}
		return "weekly on " + strings.Join(p.Days, ", ") + " at " + p.Time
	case ScheduleInterval:
		var p IntervalPayload
		if json.Unmarshal(r.ScheduleData, &p) != nil {
			return string(r.ScheduleType)
		}
		return fmt.Sprintf("every %d day(s) at %s", p.Interval, p.Time)
	}
	return string(r.ScheduleType)
}
