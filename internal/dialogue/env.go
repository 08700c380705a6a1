package dialogue

import (
	"context"
	"log/slog"

	"navigator-bot/internal/broadcast"
	"navigator-bot/internal/chat"
	"navigator-bot/internal/journal"
	"navigator-bot/internal/session"
	"navigator-bot/internal/store"
)

// EventRepository is the subset of the store the handlers use for events.
type EventRepository interface {
	InsertEvent(ctx context.Context, shortText, longText, mediaRef string) (int64, error)
	ListEvents(ctx context.Context) ([]store.Event, error)
	GetEvent(ctx context.Context, id int64) (*store.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

type UserRepository interface {
	AddUser(ctx context.Context, u store.User) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type Broadcaster interface {
	Dispatch(ctx context.Context, p broadcast.Payload, recipients []int64) broadcast.Result
}

type Assistant interface {
	Ask(ctx context.Context, contextText, question string) (string, error)
}

// Env carries every collaborator a handler may touch. It is built once
// in main and passed explicitly into each invocation.
type Env struct {
	Transport   chat.Transport
	Sessions    session.Store
	Locks       *session.Locks
	Events      EventRepository
	Users       UserRepository
	Broadcaster Broadcaster
	Assistant   Assistant
	Journal     journal.Recorder // optional

	AdminChat  int64
	BasePrompt string
	Logger     *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) lock(userID int64) func() {
	if e.Locks == nil {
		return func() {}
	}
	return e.Locks.Lock(userID)
}
