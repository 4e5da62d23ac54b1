package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
)

// ensureUser fetches the user row, registering a new profile on first
// contact. Reports whether the user was just created.
func (r *Router) ensureUser(ctx context.Context, chatID int64) (*domain.User, bool, error) {
	u, err := r.repo.GetUser(ctx, chatID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}
	u, err = r.repo.CreateUser(ctx, chatID, uuid.NewString())
	if err != nil {
		// Lost a registration race with another update for the same chat.
		if errors.Is(err, domain.ErrUserExists) {
			u, err = r.repo.GetUser(ctx, chatID)
			return u, false, err
		}
		return nil, false, err
	}
	return u, true, nil
}

// userZone resolves the zone new reminders are interpreted in.
func (r *Router) userZone(u *domain.User) string {
	if u.TimeZone != "" {
		return u.TimeZone
	}
	return r.defaultTZ
}

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	u, created, err := r.ensureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, textProfileError)
		return
	}
	if created {
		r.sendText(chatID, welcomeText(u.SecretToken))
		return
	}
	r.sendText(chatID, textWelcomeBack)
}

func (r *Router) handleAdd(ctx context.Context, chatID int64) {
	u, _, err := r.ensureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, textProfileError)
		return
	}
	c := r.conversationFor(chatID)
	*c = conversation{state: stateAwaitTaskName, tz: r.userZone(u)}
	r.sendText(chatID, textAskTaskName)
}

func (r *Router) handleList(ctx context.Context, chatID int64) {
	reminders, err := r.repo.ListUserReminders(ctx, chatID)
	if err != nil {
		r.log.Error("list reminders failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your reminders.")
		return
	}
	if len(reminders) == 0 {
		r.sendText(chatID, textNoReminders)
		return
	}
	body := textListTitle
	for i := range reminders {
		rem := &reminders[i]
		line := fmt.Sprintf("\n• %s — %s", rem.TaskName, domain.DescribeSchedule(rem))
		if rem.Status == domain.StatusCompleted {
			line += " (done)"
		}
		body += line
	}
	r.sendText(chatID, body)
}

func (r *Router) handleTimezone(ctx context.Context, chatID int64, arg string) {
	if _, _, err := r.ensureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, textProfileError)
		return
	}
	if arg == "" {
		c := r.conversationFor(chatID)
		*c = conversation{state: stateAwaitTimeZone}
		r.sendText(chatID, textAskTimeZone)
		return
	}
	tz, err := domain.ValidateTZ(arg)
	if err != nil {
		r.sendText(chatID, textBadTimeZone)
		return
	}
	r.setTimeZone(ctx, chatID, tz)
}

func (r *Router) setTimeZone(ctx context.Context, chatID int64, tz string) {
	if err := r.repo.SetTimeZone(ctx, chatID, tz); err != nil {
		r.log.Error("set timezone failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save timezone.")
		return
	}
	r.sendText(chatID, textTimeZoneSet+tz)
}

func (r *Router) handleCancel(chatID int64) {
	c := r.conversationFor(chatID)
	if c.state == stateIdle {
		r.sendText(chatID, textNothingToCancel)
		return
	}
	r.resetConversation(chatID)
	r.send(chatID, textCancelled, keyboardRemove)
}

// handleFreeForm advances the chat's FSM with non-command text and applies
// the side effects the transition asks for.
func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	c := r.conversationFor(chatID)
	if c.state == stateIdle {
		// No flow in progress: ignore chatter.
		return
	}

	res := c.step(text)

	if res.createReminder {
		rem := &domain.Reminder{
			UserID:       chatID,
			TaskName:     c.draft.TaskName,
			ScheduleType: c.draft.Type,
			ScheduleData: c.draft.Payload,
			TimeZone:     c.tz,
		}
		if err := r.repo.CreateReminder(ctx, rem); err != nil {
			r.log.Error("create reminder failed", zap.Int64("chat_id", chatID), zap.Error(err))
			r.resetConversation(chatID)
			r.send(chatID, textReminderSaveFail, keyboardRemove)
			return
		}
		r.log.Info("reminder created",
			zap.Int64("reminder_id", rem.ID),
			zap.Int64("chat_id", chatID),
			zap.String("schedule_type", string(rem.ScheduleType)),
		)
	}
	if res.timeZone != "" {
		r.resetConversation(chatID)
		if err := r.repo.SetTimeZone(ctx, chatID, res.timeZone); err != nil {
			r.log.Error("set timezone failed", zap.Int64("chat_id", chatID), zap.Error(err))
			r.sendText(chatID, "Could not save timezone.")
			return
		}
		r.sendText(chatID, res.reply)
		return
	}

	if c.state == stateIdle {
		r.resetConversation(chatID)
	}
	r.send(chatID, res.reply, res.keyboard)
}
