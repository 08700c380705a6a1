package chat

import (
	"context"
	"fmt"
)

type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// MessageRef addresses a previously sent message so it can be edited or deleted.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) IsZero() bool { return r.ChatID == 0 && r.MessageID == 0 }

// Inbound is a transport-neutral envelope for one incoming message or button press.
type Inbound struct {
	SenderID     int64
	SenderHandle string
	ChatID       int64
	ChatKind     Kind

	Text     string
	MediaRef string

	// ActionToken is set for button presses; CallbackID identifies the press
	// for Acknowledge. MessageRef points at the message that carried the button.
	ActionToken string
	CallbackID  string
	MessageRef  MessageRef
}

func (in Inbound) IsCallback() bool { return in.ActionToken != "" }

func (in Inbound) IsDirect() bool { return in.ChatKind == KindDirect }

// Sender returns a human readable identity of the sender.
func (in Inbound) Sender() string {
	if in.SenderHandle != "" {
		return "@" + in.SenderHandle
	}
	return fmt.Sprintf("id%d", in.SenderID)
}

type Button struct {
	Text  string
	Token string
	URL   string
}

// Markup is an inline keyboard: rows of buttons.
type Markup struct {
	Rows [][]Button
}

func NewMarkup(rows ...[]Button) *Markup { return &Markup{Rows: rows} }

func Row(buttons ...Button) []Button { return buttons }

func TokenButton(text, token string) Button { return Button{Text: text, Token: token} }

func URLButton(text, url string) Button { return Button{Text: text, URL: url} }

// Transport is the outbound side of the messaging collaborator.
// Every failed call returns a *DeliveryError.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, markup *Markup) (MessageRef, error)
	SendMedia(ctx context.Context, chatID int64, mediaRef, caption string, markup *Markup) (MessageRef, error)
	SendFile(ctx context.Context, chatID int64, fileRef, caption string) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
	Acknowledge(ctx context.Context, callbackID, alertText string) error
}

// DeliveryError reports that an outbound call to one chat did not go through.
type DeliveryError struct {
	ChatID int64
	Op     string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s to chat %d: %v", e.Op, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
