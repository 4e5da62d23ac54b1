package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
)

// UI texts in English
const (
	textWelcomeBack = "Welcome back! Use /add to create a reminder or /list to see your reminders."
	textWelcomeFmt  = "Welcome! A new profile has been created for you! Your secret access token is: %s. " +
		"Use this token when you access the Web App."

	textAskTaskName     = "Okay, let's create a reminder. What is the task name?"
	textTaskNameEmpty   = "The task name can't be empty. What is the task name?"
	textAskScheduleType = "How should it repeat? Choose: once, daily, weekly or interval."
	textBadScheduleType = "I don't know that one. Please choose: once, daily, weekly or interval."

	textReminderAdded     = "Reminder added ✅"
	textReminderCancelled = "Reminder creation cancelled."
	textReminderSaveFail  = "Failed to add reminder. Please try again later."
	textNothingToCancel   = "Nothing to cancel."
	textCancelled         = "Cancelled."

	textAskTimeZone = "Send your timezone as an IANA name, e.g. Europe/Berlin:"
	textBadTimeZone = "Invalid timezone. Example: Europe/Berlin"
	textTimeZoneSet = "Timezone updated: "

	textNoReminders = "You have no reminders yet. Use /add to create one."
	textListTitle   = "🗒 Your reminders:"

	textProfileError = "Profile initialization error. Please try again later."
)

func welcomeText(secretToken string) string {
	return fmt.Sprintf(textWelcomeFmt, secretToken)
}

func confirmText(taskName, summary, tz string) string {
	return fmt.Sprintf("Task: %s\nSchedule: %s\nTimezone: %s\n\nConfirm?", taskName, summary, tz)
}

// scheduleDataPrompt explains the expected input format per schedule type.
func scheduleDataPrompt(t domain.ScheduleType) string {
	switch t {
	case domain.ScheduleOnce:
		return "What is the date and time (YYYY-MM-DD HH:MM, e.g. 2024-09-15 14:30)?"
	case domain.ScheduleDaily:
		return "What time each day (HH:MM, e.g. 09:00)?"
	case domain.ScheduleWeekly:
		return "Which days and time? Send days then time, e.g. Mon,Wed,Fri 09:00"
	case domain.ScheduleInterval:
		return "Every how many days, and at what time? e.g. 3 09:00"
	}
	return ""
}

func scheduleTypeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("once"),
			tgbotapi.NewKeyboardButton("daily"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("weekly"),
			tgbotapi.NewKeyboardButton("interval"),
		),
	)
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Yes"),
			tgbotapi.NewKeyboardButton("No"),
		),
	)
	kb.OneTimeKeyboard = true
	return kb
}
