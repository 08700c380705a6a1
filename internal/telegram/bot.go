package telegram

import (
	"context"
	"log/slog"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"navigator-bot/internal/chat"
	"navigator-bot/internal/serial"
)

// Handler consumes inbound envelopes. Calls for one sender never overlap
// and arrive in the order Telegram delivered them.
type Handler interface {
	Handle(ctx context.Context, in chat.Inbound) error
}

type Bot struct {
	api       *tgbotapi.BotAPI
	transport *Transport
	queue     *serial.Queue
	logger    *slog.Logger
}

type Option func(*options)

type options struct {
	parseMode string
	logger    *slog.Logger
}

func WithParseMode(mode string) Option { return func(o *options) { o.parseMode = mode } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func New(botToken string, opts ...Option) (*Bot, error) {
	o := options{parseMode: tgbotapi.ModeHTML, logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("component", "telegram")
	logger.Info("authorized", "account", api.Self.UserName)
	return &Bot{
		api:       api,
		transport: newTransport(botAPISender{api: api}, o.parseMode),
		queue:     serial.New(),
		logger:    logger,
	}, nil
}

// Transport returns the outbound side bound to this bot.
func (b *Bot) Transport() *Transport { return b.transport }

// Start polls for updates until ctx is cancelled, then waits for queued
// updates to finish.
func (b *Bot) Start(ctx context.Context, h Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("polling started")
	b.consume(ctx, updates, h)
	b.api.StopReceivingUpdates()
	b.queue.Wait()
	b.logger.Info("polling stopped")
}

func (b *Bot) consume(ctx context.Context, updates tgbotapi.UpdatesChannel, h Handler) {
	// handlers finish their work even while shutting down
	work := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			in, ok := toInbound(update)
			if !ok {
				continue
			}
			b.queue.Submit(in.SenderID, func() { b.dispatch(work, h, in) })
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, h Handler, in chat.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked", "user_id", in.SenderID, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	if err := h.Handle(ctx, in); err != nil {
		b.logger.Debug("update handled with error", "user_id", in.SenderID, "error", err)
	}
}

// toInbound converts an update to the transport neutral envelope. Updates
// other than messages and button presses are skipped.
func toInbound(u tgbotapi.Update) (chat.Inbound, bool) {
	switch {
	case u.Message != nil && u.Message.From != nil && u.Message.Chat != nil:
		return fromMessage(u.Message), true
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		cb := u.CallbackQuery
		in := chat.Inbound{
			SenderID:     cb.From.ID,
			SenderHandle: cb.From.UserName,
			ChatID:       cb.From.ID,
			ChatKind:     chat.KindDirect,
			ActionToken:  cb.Data,
			CallbackID:   cb.ID,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			in.ChatID = cb.Message.Chat.ID
			in.ChatKind = kindOf(cb.Message.Chat)
			in.MessageRef = chat.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}
		}
		return in, in.ActionToken != ""
	}
	return chat.Inbound{}, false
}

func fromMessage(m *tgbotapi.Message) chat.Inbound {
	in := chat.Inbound{
		SenderID:     m.From.ID,
		SenderHandle: m.From.UserName,
		ChatID:       m.Chat.ID,
		ChatKind:     kindOf(m.Chat),
		Text:         m.Text,
	}
	if len(m.Photo) > 0 {
		// sizes are ordered smallest first
		in.MediaRef = m.Photo[len(m.Photo)-1].FileID
		in.Text = m.Caption
	}
	return in
}

func kindOf(c *tgbotapi.Chat) chat.Kind {
	if c.IsPrivate() {
		return chat.KindDirect
	}
	return chat.KindGroup
}
