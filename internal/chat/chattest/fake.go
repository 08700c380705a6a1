// Package chattest provides an in-memory chat.Transport for tests.
package chattest

import (
	"context"
	"errors"
	"sync"

	"navigator-bot/internal/chat"
)

var ErrBlocked = errors.New("forbidden: bot was blocked by the user")

type Sent struct {
	Op       string
	ChatID   int64
	Text     string
	MediaRef string
	Markup   *chat.Markup
	Ref      chat.MessageRef
}

// Transport records every outbound call. Chats listed in Fail return a
// *chat.DeliveryError; Hook, when set, runs before each send.
type Transport struct {
	mu     sync.Mutex
	nextID int
	sent   []Sent
	acks   []string

	Fail map[int64]bool
	Hook func(ctx context.Context, chatID int64) error
}

func New() *Transport { return &Transport{Fail: map[int64]bool{}} }

func (t *Transport) record(ctx context.Context, s Sent) (chat.MessageRef, error) {
	if t.Hook != nil {
		if err := t.Hook(ctx, s.ChatID); err != nil {
			return chat.MessageRef{}, &chat.DeliveryError{ChatID: s.ChatID, Op: s.Op, Err: err}
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail[s.ChatID] {
		return chat.MessageRef{}, &chat.DeliveryError{ChatID: s.ChatID, Op: s.Op, Err: ErrBlocked}
	}
	if s.Ref.IsZero() {
		t.nextID++
		s.Ref = chat.MessageRef{ChatID: s.ChatID, MessageID: t.nextID}
	}
	t.sent = append(t.sent, s)
	return s.Ref, nil
}

func (t *Transport) SendText(ctx context.Context, chatID int64, text string, markup *chat.Markup) (chat.MessageRef, error) {
	return t.record(ctx, Sent{Op: "text", ChatID: chatID, Text: text, Markup: markup})
}

func (t *Transport) SendMedia(ctx context.Context, chatID int64, mediaRef, caption string, markup *chat.Markup) (chat.MessageRef, error) {
	return t.record(ctx, Sent{Op: "media", ChatID: chatID, Text: caption, MediaRef: mediaRef, Markup: markup})
}

func (t *Transport) SendFile(ctx context.Context, chatID int64, fileRef, caption string) (chat.MessageRef, error) {
	return t.record(ctx, Sent{Op: "file", ChatID: chatID, Text: caption, MediaRef: fileRef})
}

func (t *Transport) EditText(ctx context.Context, ref chat.MessageRef, text string) error {
	_, err := t.record(ctx, Sent{Op: "edit", ChatID: ref.ChatID, Text: text, Ref: ref})
	return err
}

func (t *Transport) DeleteMessage(ctx context.Context, ref chat.MessageRef) error {
	_, err := t.record(ctx, Sent{Op: "delete", ChatID: ref.ChatID, Ref: ref})
	return err
}

func (t *Transport) Acknowledge(_ context.Context, callbackID, alertText string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acks = append(t.acks, alertText)
	return nil
}

// Sent returns a copy of every recorded outbound call.
func (t *Transport) Sent() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sent(nil), t.sent...)
}

// To returns the calls addressed to chatID.
func (t *Transport) To(chatID int64) []Sent {
	var out []Sent
	for _, s := range t.Sent() {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Acks returns the alert texts passed to Acknowledge, in order.
func (t *Transport) Acks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.acks...)
}

func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = nil
	t.acks = nil
}
