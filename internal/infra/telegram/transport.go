// Package telegram adapts the bot to the Telegram Bot API over long
// polling.
package telegram

import (
	"context"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/ykarpov/tunebox/internal/app/bot"
	"github.com/ykarpov/tunebox/internal/infra/config"
)

// Handler processes one normalized event.
type Handler interface {
	Handle(ctx context.Context, ev bot.Event) error
}

// Transport is the Telegram long-polling adapter. It implements bot.Sink,
// so it is constructed before the handler that uses it.
type Transport struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

// New creates a new transport authenticated against the Bot API.
func New(cfg config.TelegramConfig) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to authenticate bot")
	}

	zlog.Info().Msgf("authorized on telegram: account=%s", api.Self.UserName)
	return &Transport{api: api, pollTimeout: cfg.PollTimeoutSec}, nil
}

// Run polls for updates until the context is cancelled. Each update is
// handled in its own goroutine so slow flows do not block the poll loop.
func (t *Transport) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout

	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.dispatch(ctx, handler, update)
		}
	}
}

func (t *Transport) dispatch(ctx context.Context, handler Handler, update tgbotapi.Update) {
	ev, ok := t.normalize(update)
	if !ok {
		return
	}

	if err := handler.Handle(ctx, ev); err != nil {
		zlog.Error().Err(err).Msgf("failed to handle update: user=%d kind=%d", ev.UserID, ev.Kind)
	}
}

// normalize maps a raw update onto a bot event. Updates without a text
// message or callback query are dropped.
func (t *Transport) normalize(update tgbotapi.Update) (bot.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		// Stop the client spinner regardless of the handling outcome.
		if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			zlog.Warn().Err(err).Msg("failed to answer callback query")
		}
		if cq.Message == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			UserID:    cq.From.ID,
			ChatID:    cq.Message.Chat.ID,
			MessageID: cq.Message.MessageID,
			Kind:      bot.KindCallback,
			Content:   cq.Data,
		}, true

	case update.Message != nil && update.Message.Text != "":
		msg := update.Message
		return bot.Event{
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Kind:      bot.KindText,
			Content:   msg.Text,
		}, true

	default:
		return bot.Event{}, false
	}
}

// Send delivers a render directive as a new or edited chat message.
func (t *Transport) Send(ctx context.Context, chatID int64, messageID int, r bot.Render) error {
	_ = ctx // the Bot API client carries its own timeouts

	var c tgbotapi.Chattable
	switch {
	case r.Edit:
		c = editConfig(chatID, messageID, r)
	case imageFile(r.Image) != nil:
		photo := tgbotapi.NewPhoto(chatID, imageFile(r.Image))
		photo.Caption = r.Caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = replyMarkup(r)
		c = photo
	default:
		msg := tgbotapi.NewMessage(chatID, r.Caption)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = replyMarkup(r)
		c = msg
	}

	if _, err := t.api.Send(c); err != nil {
		return errors.Wrap(err, "failed to send message")
	}
	return nil
}

// SendAudio uploads a local audio file to the chat.
func (t *Transport) SendAudio(ctx context.Context, chatID int64, path, title string) error {
	_ = ctx

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Title = title

	if _, err := t.api.Send(audio); err != nil {
		return errors.Wrap(err, "failed to send audio")
	}
	return nil
}

func editConfig(chatID int64, messageID int, r bot.Render) tgbotapi.Chattable {
	markup := inlineKeyboard(r.Buttons)

	if file := imageFile(r.Image); file != nil {
		media := tgbotapi.NewInputMediaPhoto(file)
		media.Caption = r.Caption
		media.ParseMode = tgbotapi.ModeHTML
		return tgbotapi.EditMessageMediaConfig{
			BaseEdit: tgbotapi.BaseEdit{
				ChatID:      chatID,
				MessageID:   messageID,
				ReplyMarkup: &markup,
			},
			Media: media,
		}
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.Caption, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	return edit
}

// imageFile maps a render image onto Bot API file data, nil when the
// render carries no image.
func imageFile(img bot.Image) tgbotapi.RequestFileData {
	switch {
	case len(img.Bytes) > 0:
		return tgbotapi.FileBytes{Name: "cover.png", Bytes: img.Bytes}
	case img.URL != "":
		return tgbotapi.FileURL(img.URL)
	case img.Asset != "":
		return tgbotapi.FilePath(img.Asset)
	default:
		return nil
	}
}

// replyMarkup picks the keyboard for a non-edit send: the persistent menu
// when requested, otherwise the render's inline buttons.
func replyMarkup(r bot.Render) any {
	if r.Menu {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(bot.MenuLibrary),
				tgbotapi.NewKeyboardButton(bot.MenuSearch),
			),
		)
	}
	if len(r.Buttons) == 0 {
		return nil
	}
	return inlineKeyboard(r.Buttons)
}

func inlineKeyboard(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
