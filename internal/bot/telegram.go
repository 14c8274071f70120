package bot

import (
	"context"
	"fmt"
	"time"

	"telepets-bot/internal/db"
	"telepets-bot/internal/game"
	"telepets-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	dispatcher *game.Dispatcher
	sequencer  *sequencer
	logger     *logger.Logger
}

func NewTelegramBot(token string, database *db.PostgresDB, logger *logger.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Infow("Authorized on Telegram", "username", api.Self.UserName)

	resolver := game.NewResolver(database, logger)
	engine := game.NewEngine(database, logger)
	commands := NewCommands(database, logger)
	dispatcher := game.NewDispatcher(resolver, game.NewFlowStore(), engine, commands, logger)

	return &TelegramBot{
		bot:        api,
		dispatcher: dispatcher,
		sequencer:  newSequencer(),
		logger:     logger,
	}, nil
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	// Remove any existing webhook to ensure we can use polling
	t.logger.Info("Removing any existing webhook")
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

// handleUpdates processes incoming updates from Telegram. Updates are
// normalized here, on the polling goroutine, and fed through the
// per-user sequencer so one user's events run strictly in arrival
// order while distinct users run in parallel.
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		ev, ack, ok := normalizeUpdate(update)
		if !ok {
			continue
		}

		t.logger.Infow("Received update",
			"update_id", update.UpdateID,
			"telegram_id", ev.TelegramID,
			"text", ev.Text,
			"command", ev.Command,
			"callback", ev.CallbackData)

		t.sequencer.Submit(ev.TelegramID, func() {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Errorw("Recovered from panic while processing update", "error", r)
				}
			}()

			t.handleEvent(ctx, ev, ack)
		})
	}
}

func (t *TelegramBot) handleEvent(ctx context.Context, ev game.Event, ack string) {
	// Acknowledge button presses regardless of what the reply is.
	if ack != "" {
		if _, err := t.bot.Request(tgbotapi.NewCallback(ack, "")); err != nil {
			t.logger.Errorw("Failed to acknowledge callback", "error", err)
		}
	}

	for _, reply := range t.dispatcher.Handle(ctx, ev) {
		t.send(reply)
	}
}

// normalizeUpdate maps a Telegram update onto a game event. Only
// private-chat messages and button presses are processed; everything
// else is dropped. The second return is the callback id to
// acknowledge, when the update was a button press.
func normalizeUpdate(update tgbotapi.Update) (game.Event, string, bool) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			return game.Event{}, "", false
		}
		ev := game.Event{
			TelegramID: msg.From.ID,
			ChatID:     msg.Chat.ID,
			Name:       msg.From.FirstName,
			Text:       msg.Text,
		}
		if msg.IsCommand() {
			ev.Command = msg.Command()
			ev.Text = ""
		}
		return ev, "", true

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil || !cb.Message.Chat.IsPrivate() {
			return game.Event{}, "", false
		}
		ev := game.Event{
			TelegramID:   cb.From.ID,
			ChatID:       cb.Message.Chat.ID,
			Name:         cb.From.FirstName,
			CallbackData: cb.Data,
		}
		return ev, cb.ID, true
	}

	return game.Event{}, "", false
}

func (t *TelegramBot) send(reply game.Reply) {
	msg := tgbotapi.NewMessage(reply.ChatID, reply.Text)
	if len(reply.Buttons) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, row := range reply.Buttons {
			var buttons []tgbotapi.InlineKeyboardButton
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
			}
			rows = append(rows, buttons)
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Errorw("Failed to send message", "chat_id", reply.ChatID, "error", err)
	}
}

// Stop gracefully shuts down the bot
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()

	// Allow time for handlers to complete
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}
