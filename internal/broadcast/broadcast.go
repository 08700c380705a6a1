package broadcast

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"navigator-bot/internal/chat"
)

const (
	defaultWorkers          = 8
	defaultRecipientTimeout = 10 * time.Second
)

// Payload is what every recipient receives. MediaRef is optional.
type Payload struct {
	Text     string
	MediaRef string
}

type Result struct {
	ID        string
	Attempted int
	Delivered int
	Failed    []int64
}

// Dispatcher fans one payload out to many chats. A failed or slow
// recipient never stops delivery to the others.
type Dispatcher struct {
	transport        chat.Transport
	workers          int
	recipientTimeout time.Duration
	logger           *slog.Logger
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithRecipientTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.recipientTimeout = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(t chat.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport:        t,
		workers:          defaultWorkers,
		recipientTimeout: defaultRecipientTimeout,
		logger:           slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	d.logger = d.logger.With("component", "broadcast")
	return d
}

// Dispatch delivers p to every recipient. recipients is a snapshot taken
// by the caller; members registered after it are not included.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload, recipients []int64) Result {
	res := Result{ID: uuid.NewString(), Attempted: len(recipients)}
	log := d.logger.With("broadcast_id", res.ID)
	log.Info("broadcast started", "recipients", len(recipients), "with_media", p.MediaRef != "")
	started := time.Now()

	jobs := make(chan int64)
	var (
		mu        sync.Mutex
		delivered int
		failed    []int64
		wg        sync.WaitGroup
	)

	workers := d.workers
	if workers > len(recipients) {
		workers = len(recipients)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				err := d.deliver(ctx, id, p)
				mu.Lock()
				if err != nil {
					failed = append(failed, id)
				} else {
					delivered++
				}
				mu.Unlock()
				if err != nil {
					log.Warn("delivery failed", "chat_id", id, "error", err)
				}
			}
		}()
	}

	for _, id := range recipients {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	res.Delivered = delivered
	res.Failed = failed
	log.Info("broadcast finished",
		"delivered", res.Delivered,
		"failed", len(res.Failed),
		"duration", time.Since(started))
	return res
}

func (d *Dispatcher) deliver(ctx context.Context, chatID int64, p Payload) error {
	ctx, cancel := context.WithTimeout(ctx, d.recipientTimeout)
	defer cancel()
	if p.MediaRef != "" {
		_, err := d.transport.SendMedia(ctx, chatID, p.MediaRef, p.Text, nil)
		return err
	}
	_, err := d.transport.SendText(ctx, chatID, p.Text, nil)
	return err
}
