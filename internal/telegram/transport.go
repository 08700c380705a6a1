package telegram

import (
	"context"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"navigator-bot/internal/chat"
)

// Transport implements chat.Transport on top of the Bot API. Texts and
// captions go out with the configured parse mode; edits are plain text.
type Transport struct {
	s         sender
	parseMode string
}

func newTransport(s sender, parseMode string) *Transport {
	return &Transport{s: s, parseMode: parseMode}
}

// call runs fn and gives up when ctx ends first. The API client has no
// context support, so an abandoned call still completes in the background.
func (t *Transport) call(ctx context.Context, chatID int64, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &chat.DeliveryError{ChatID: chatID, Op: op, Err: err}
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return &chat.DeliveryError{ChatID: chatID, Op: op, Err: err}
	}
	return nil
}

func (t *Transport) send(ctx context.Context, chatID int64, op string, c tgbotapi.Chattable) (chat.MessageRef, error) {
	var sent tgbotapi.Message
	err := t.call(ctx, chatID, op, func() error {
		m, err := t.s.Send(c)
		sent = m
		return err
	})
	if err != nil {
		return chat.MessageRef{}, err
	}
	return chat.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (t *Transport) SendText(ctx context.Context, chatID int64, text string, markup *chat.Markup) (chat.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = t.parseMode
	msg.DisableWebPagePreview = true
	if kb, ok := keyboard(markup); ok {
		msg.ReplyMarkup = kb
	}
	return t.send(ctx, chatID, "send text", msg)
}

func (t *Transport) SendMedia(ctx context.Context, chatID int64, mediaRef, caption string, markup *chat.Markup) (chat.MessageRef, error) {
	photo := tgbotapi.NewPhoto(chatID, inputFile(mediaRef))
	photo.Caption = caption
	photo.ParseMode = t.parseMode
	if kb, ok := keyboard(markup); ok {
		photo.ReplyMarkup = kb
	}
	return t.send(ctx, chatID, "send photo", photo)
}

func (t *Transport) SendFile(ctx context.Context, chatID int64, fileRef, caption string) (chat.MessageRef, error) {
	doc := tgbotapi.NewDocument(chatID, inputFile(fileRef))
	doc.Caption = caption
	doc.ParseMode = t.parseMode
	return t.send(ctx, chatID, "send document", doc)
}

func (t *Transport) EditText(ctx context.Context, ref chat.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	_, err := t.send(ctx, ref.ChatID, "edit text", edit)
	return err
}

func (t *Transport) DeleteMessage(ctx context.Context, ref chat.MessageRef) error {
	del := tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)
	return t.call(ctx, ref.ChatID, "delete message", func() error {
		_, err := t.s.Request(del)
		return err
	})
}

// Acknowledge answers a button press. A non-empty alertText is shown as a
// modal alert.
func (t *Transport) Acknowledge(ctx context.Context, callbackID, alertText string) error {
	cb := tgbotapi.NewCallback(callbackID, alertText)
	cb.ShowAlert = alertText != ""
	return t.call(ctx, 0, "answer callback", func() error {
		_, err := t.s.Request(cb)
		return err
	})
}

// inputFile treats refs naming an existing local file as uploads and
// everything else as a Telegram file id.
func inputFile(ref string) tgbotapi.RequestFileData {
	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return tgbotapi.FilePath(ref)
	}
	return tgbotapi.FileID(ref)
}

func keyboard(m *chat.Markup) (tgbotapi.InlineKeyboardMarkup, bool) {
	if m == nil || len(m.Rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Rows))
	for _, r := range m.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Token))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
