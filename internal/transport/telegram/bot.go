package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dailytracker/backend/internal/config"
	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/chat"
	"github.com/dailytracker/backend/internal/service/conversation"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EventHandler consumes the events decoded from updates.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event) (conversation.Outcome, error)
}

// Bot long-polls Telegram and delivers replies to private chats, where chat id equals user id.
type Bot struct {
	api         API
	pollTimeout int
	logger      logging.Logger
}

// New connects with the configured token.
func New(cfg config.TelegramConfig, logger logging.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	logger.Infow("telegram bot authorised", "username", api.Self.UserName)
	return NewWithAPI(api, cfg.PollTimeout, logger), nil
}

// NewWithAPI builds a bot around an existing API client.
func NewWithAPI(api API, pollTimeout int, logger logging.Logger) *Bot {
	return &Bot{api: api, pollTimeout: pollTimeout, logger: logger.With("component", "telegram")}
}

func (b *Bot) Name() string { return "telegram" }

// Reaches is always true: any user who ever wrote to the bot can be messaged.
func (b *Bot) Reaches(int64) bool { return true }

// SendText sends text to the user's private chat with menu as an inline keyboard.
func (b *Bot) SendText(ctx context.Context, userID int64, text string, menu chat.Menu) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(userID, text)
	if len(menu) > 0 {
		msg.ReplyMarkup = Keyboard(menu)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Run polls updates until ctx is done. Updates are handled in arrival order.
func (b *Bot) Run(ctx context.Context, h EventHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Infow("polling updates", "timeout", b.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, h, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, h EventHandler, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// Clears the loading spinner on the pressed button.
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.logger.Warnw("answer callback failed", "callback_id", cq.ID, "error", err)
		}
	}

	ev, ok := ToEvent(update)
	if !ok {
		return
	}
	if _, err := h.Handle(ctx, ev); err != nil {
		b.logger.Warnw("handle update failed", "update_id", update.UpdateID, "user_id", ev.UserID, "error", err)
	}
}

// ToEvent maps commands, button presses and plain text. Other updates are ignored.
func ToEvent(update tgbotapi.Update) (chat.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Data == "" {
			return chat.Event{}, false
		}
		return chat.Selection(cq.From.ID, cq.Data), true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return chat.Event{}, false
	}
	if msg.IsCommand() {
		return chat.Command(msg.From.ID, msg.Command()), true
	}
	if strings.TrimSpace(msg.Text) == "" {
		return chat.Event{}, false
	}
	return chat.Text(msg.From.ID, msg.Text), true
}

// Keyboard renders menu as an inline keyboard carrying the tokens as callback data.
func Keyboard(menu chat.Menu) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu))
	for _, row := range menu {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
