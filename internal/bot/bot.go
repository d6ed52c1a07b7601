// Package bot delivers answers over Telegram. It long-polls for updates,
// routes commands to static replies, and hands free-text messages to the
// question answerer while keeping a typing indicator visible to the user.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/config"
	"github.com/zhibeky/quran-ai/internal/store"
)

// Answerer produces an answer for a natural-language question. The
// implementation is expected to always return a usable string.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string) string
}

// TelegramAPI is the slice of the tgbotapi client the bot uses, extracted so
// tests can script it.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires the Telegram transport to the answerer and the user tracker.
type Bot struct {
	api      TelegramAPI
	answerer Answerer
	tracker  schemas.UserTracker
	cfg      config.TelegramConfig
	log      *zap.Logger
}

// New connects to the Telegram Bot API and returns a ready-to-run bot.
func New(cfg config.TelegramConfig, answerer Answerer, tracker schemas.UserTracker, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("Connected to Telegram.", zap.String("bot_username", api.Self.UserName))
	return NewWithAPI(api, cfg, answerer, tracker, logger), nil
}

// NewWithAPI builds a bot around an existing API client. Used by tests.
func NewWithAPI(api TelegramAPI, cfg config.TelegramConfig, answerer Answerer, tracker schemas.UserTracker, logger *zap.Logger) *Bot {
	if tracker == nil {
		tracker = store.NoopTracker{}
	}
	return &Bot{
		api:      api,
		answerer: answerer,
		tracker:  tracker,
		cfg:      cfg,
		log:      logger.Named("bot"),
	}
}

// Run long-polls for updates until the context is cancelled. Each update is
// handled on its own goroutine so a slow answer never blocks the poll loop.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.cfg.PollTimeout.Seconds())

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("Polling for updates.", zap.Duration("poll_timeout", b.cfg.PollTimeout))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Update polling stopped.")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Recovered from panic while handling update.",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r))
		}
	}()

	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	b.trackSender(msg)

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	b.handleQuestion(ctx, msg)
}

// trackSender records the sender asynchronously. Tracking failures are logged
// and otherwise ignored; they must never delay or break a reply.
func (b *Bot) trackSender(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	from := *msg.From
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.tracker.TrackUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName); err != nil {
			b.log.Warn("Failed to track user.", zap.Int64("telegram_id", from.ID), zap.Error(err))
			return
		}
		if err := b.tracker.IncrementMessageCount(ctx, from.ID); err != nil {
			b.log.Warn("Failed to increment message count.", zap.Int64("telegram_id", from.ID), zap.Error(err))
		}
	}()
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	var reply string
	switch msg.Command() {
	case "start":
		reply = welcomeMessage
	case "help":
		reply = helpMessage
	case "about":
		reply = aboutMessage
	case "language":
		reply = languageMessage
	default:
		reply = "Unknown command. Use /help to see what I can do."
	}
	b.reply(msg.Chat.ID, reply)
}

func (b *Bot) handleQuestion(ctx context.Context, msg *tgbotapi.Message) {
	b.log.Info("Received question.",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("length", len(msg.Text)))

	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		b.log.Debug("Failed to send typing indicator.", zap.Error(err))
	}

	qctx := ctx
	if b.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, b.cfg.RequestTimeout)
		defer cancel()
	}

	answer := b.answerer.AnswerQuestion(qctx, msg.Text)
	b.reply(msg.Chat.ID, answer)
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		// Markdown in model output is occasionally unbalanced, which the
		// Telegram API rejects. Retry once as plain text.
		out.ParseMode = ""
		if _, err := b.api.Send(out); err != nil {
			b.log.Error("Failed to send reply.", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}
