package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
)

// Conversation states for the /add and /timezone flows.
type flowState int

const (
	stateIdle flowState = iota
	stateAwaitTaskName
	stateAwaitScheduleType
	stateAwaitScheduleData
	stateAwaitConfirm
	stateAwaitTimeZone
)

// draft accumulates the typed reminder payload across the /add flow.
type draft struct {
	TaskName string
	Type     domain.ScheduleType
	Payload  json.RawMessage
}

// conversation is the per-chat FSM. tz is the zone snapshot taken when the
// flow started; it interprets wall-clock input and is stored on the
// reminder.
type conversation struct {
	state flowState
	draft draft
	tz    string
}

// stepResult tells the router what to say and which side effect to apply.
// The transition itself is pure: it touches only the conversation and never
// the store or the bot.
type stepResult struct {
	reply          string
	keyboard       keyboardKind
	createReminder bool   // persist c.draft
	timeZone       string // non-empty: persist as the user's zone
}

type keyboardKind int

const (
	keyboardNone keyboardKind = iota
	keyboardScheduleType
	keyboardConfirm
	keyboardRemove
)

// step advances the conversation with one free-form input and returns the
// reply plus requested side effects.
func (c *conversation) step(input string) stepResult {
	input = strings.TrimSpace(input)

	switch c.state {
	case stateAwaitTaskName:
		if input == "" {
			return stepResult{reply: textTaskNameEmpty}
		}
		c.draft.TaskName = input
		c.state = stateAwaitScheduleType
		return stepResult{reply: textAskScheduleType, keyboard: keyboardScheduleType}

	case stateAwaitScheduleType:
		t := strings.ToLower(input)
		if !domain.ValidScheduleType(t) {
			return stepResult{reply: textBadScheduleType, keyboard: keyboardScheduleType}
		}
		c.draft.Type = domain.ScheduleType(t)
		c.state = stateAwaitScheduleData
		return stepResult{reply: scheduleDataPrompt(c.draft.Type), keyboard: keyboardRemove}

	case stateAwaitScheduleData:
		payload, err := parseScheduleInput(c.draft.Type, input, c.tz)
		if err != nil {
			return stepResult{reply: err.Error() + "\n\n" + scheduleDataPrompt(c.draft.Type)}
		}
		c.draft.Payload = payload
		c.state = stateAwaitConfirm
		summary := domain.DescribeSchedule(&domain.Reminder{
			TaskName:     c.draft.TaskName,
			ScheduleType: c.draft.Type,
			ScheduleData: c.draft.Payload,
			TimeZone:     c.tz,
		})
		return stepResult{
			reply:    confirmText(c.draft.TaskName, summary, c.tz),
			keyboard: keyboardConfirm,
		}

	case stateAwaitConfirm:
		c.state = stateIdle
		if strings.EqualFold(input, "yes") {
			return stepResult{reply: textReminderAdded, keyboard: keyboardRemove, createReminder: true}
		}
		return stepResult{reply: textReminderCancelled, keyboard: keyboardRemove}

	case stateAwaitTimeZone:
		tz, err := domain.ValidateTZ(input)
		if err != nil {
			return stepResult{reply: textBadTimeZone}
		}
		c.state = stateIdle
		return stepResult{reply: textTimeZoneSet + tz, timeZone: tz}
	}

	return stepResult{}
}

// parseScheduleInput turns the free-form answer for a schedule type into
// its JSON payload.
func parseScheduleInput(t domain.ScheduleType, input, tz string) (json.RawMessage, error) {
	switch t {
	case domain.ScheduleOnce:
		at, err := domain.ParseDateTime(input, tz)
		if err != nil {
			return nil, err
		}
		return json.Marshal(domain.OncePayload{DateTime: at.Format("2006-01-02T15:04:05Z07:00")})

	case domain.ScheduleDaily:
		if _, _, err := domain.ParseTimeOfDay(input); err != nil {
			return nil, err
		}
		return json.Marshal(domain.DailyPayload{Time: normalizeHHMM(input)})

	case domain.ScheduleWeekly:
		// "Mon,Wed,Fri 09:00": the last field is the time, the rest the days.
		fields := strings.Fields(input)
		if len(fields) < 2 {
			return nil, domain.ErrInvalidWeekday
		}
		timePart := fields[len(fields)-1]
		daysPart := strings.Join(fields[:len(fields)-1], " ")
		days, err := domain.ParseWeekdays(daysPart)
		if err != nil {
			return nil, err
		}
		if _, _, err := domain.ParseTimeOfDay(timePart); err != nil {
			return nil, err
		}
		return json.Marshal(domain.WeeklyPayload{Days: days, Time: normalizeHHMM(timePart)})

	case domain.ScheduleInterval:
		// "3 09:00": day count, then time.
		fields := strings.Fields(input)
		if len(fields) != 2 {
			return nil, domain.ErrInvalidInterval
		}
		n, err := domain.ParseIntervalDays(fields[0])
		if err != nil {
			return nil, err
		}
		if _, _, err := domain.ParseTimeOfDay(fields[1]); err != nil {
			return nil, err
		}
		return json.Marshal(domain.IntervalPayload{Interval: n, Time: normalizeHHMM(fields[1])})
	}
	return nil, domain.ErrUnknownScheduleType
}

// normalizeHHMM zero-pads "9:05" to "09:05" so stored payloads compare
// uniformly.
func normalizeHHMM(s string) string {
	h, m, err := domain.ParseTimeOfDay(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
