package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/reeezaw1/rzarmndrv01/internal/store"
)

// Router wires Telegram updates to handlers and holds the per-chat
// conversation FSMs (non-persistent, in-memory).
type Router struct {
	bot       *tgbotapi.BotAPI
	log       *zap.Logger
	repo      store.Repo
	defaultTZ string

	mu    sync.Mutex
	convs map[int64]*conversation
}

// NewRouter creates a new Telegram router. defaultTZ is the zone assumed
// for users that have not set one yet.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, defaultTZ string) *Router {
	return &Router{
		bot:       bot,
		log:       log,
		repo:      repo,
		defaultTZ: defaultTZ,
		convs:     make(map[int64]*conversation),
	}
}

// conversationFor returns the chat's FSM, creating an idle one on demand.
func (r *Router) conversationFor(chatID int64) *conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[chatID]
	if !ok {
		c = &conversation{}
		r.convs[chatID] = c
	}
	return c
}

func (r *Router) resetConversation(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, chatID)
}

// HandleUpdate routes a single update. Commands interrupt any flow; other
// text advances the chat's conversation FSM.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		r.resetConversation(chatID)
		r.handleStart(ctx, chatID)
	case strings.HasPrefix(text, "/add"):
		r.handleAdd(ctx, chatID)
	case strings.HasPrefix(text, "/list"):
		r.handleList(ctx, chatID)
	case strings.HasPrefix(text, "/timezone"):
		r.handleTimezone(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/timezone")))
	case strings.HasPrefix(text, "/cancel"):
		r.handleCancel(chatID)
	default:
		r.handleFreeForm(ctx, chatID, text)
	}
}

// Notify sends a reminder message to a chat. This makes Router satisfy
// scheduler.Notifier.
func (r *Router) Notify(chatID int64, taskName, description string) error {
	text := "Reminder: " + taskName
	if description != "" {
		text += "\n" + description
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// sendText sends a plain message, optionally with the keyboard the FSM
// step requested.
func (r *Router) send(chatID int64, text string, kb keyboardKind) {
	msg := tgbotapi.NewMessage(chatID, text)
	switch kb {
	case keyboardScheduleType:
		msg.ReplyMarkup = scheduleTypeKeyboard()
	case keyboardConfirm:
		msg.ReplyMarkup = confirmKeyboard()
	case keyboardRemove:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendText(chatID int64, text string) {
	r.send(chatID, text, keyboardNone)
}
