package broadcast

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navigator-bot/internal/chat"
	"navigator-bot/internal/chat/chattest"
)

func TestDispatch_CountsOnlySuccesses(t *testing.T) {
	tr := chattest.New()
	recipients := []int64{1, 2, 3, 4, 5, 6, 7}
	tr.Fail[2] = true
	tr.Fail[5] = true

	d := New(tr, WithWorkers(3))
	res := d.Dispatch(context.Background(), Payload{Text: "hello"}, recipients)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 7, res.Attempted)
	assert.Equal(t, 5, res.Delivered)
	assert.Equal(t, []int64{2, 5}, res.Failed)

	sent := tr.Sent()
	require.Len(t, sent, 5)
	for _, s := range sent {
		assert.Equal(t, "text", s.Op)
		assert.Equal(t, "hello", s.Text)
	}
}

func TestDispatch_WithMediaSendsPhoto(t *testing.T) {
	tr := chattest.New()
	d := New(tr)
	res := d.Dispatch(context.Background(), Payload{Text: "caption", MediaRef: "file-1"}, []int64{10, 20})

	assert.Equal(t, 2, res.Delivered)
	for _, s := range tr.Sent() {
		assert.Equal(t, "media", s.Op)
		assert.Equal(t, "file-1", s.MediaRef)
		assert.Equal(t, "caption", s.Text)
	}
}

func TestDispatch_SlowRecipientTimesOut(t *testing.T) {
	tr := chattest.New()
	tr.Hook = func(ctx context.Context, chatID int64) error {
		if chatID != 3 {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}
	d := New(tr, WithWorkers(1), WithRecipientTimeout(20*time.Millisecond))

	start := time.Now()
	res := d.Dispatch(context.Background(), Payload{Text: "x"}, []int64{1, 2, 3, 4})
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 3, res.Delivered)
	assert.Equal(t, []int64{3}, res.Failed)
	assert.Len(t, tr.To(4), 1)
}

func TestDispatch_AttemptsEveryRecipient(t *testing.T) {
	tr := chattest.New()
	var calls int32
	tr.Hook = func(ctx context.Context, chatID int64) error {
		atomic.AddInt32(&calls, 1)
		if chatID%2 == 0 {
			return errors.New("deactivated")
		}
		return nil
	}
	recipients := make([]int64, 0, 100)
	for i := int64(1); i <= 100; i++ {
		recipients = append(recipients, i)
	}
	res := New(tr).Dispatch(context.Background(), Payload{Text: "x"}, recipients)

	assert.EqualValues(t, 100, atomic.LoadInt32(&calls))
	assert.Equal(t, 50, res.Delivered)
	assert.Len(t, res.Failed, 50)
}

func TestDispatch_NoRecipients(t *testing.T) {
	res := New(chattest.New()).Dispatch(context.Background(), Payload{Text: "x"}, nil)
	assert.Equal(t, 0, res.Attempted)
	assert.Equal(t, 0, res.Delivered)
}

func TestDeliveryErrorIsClassified(t *testing.T) {
	tr := chattest.New()
	tr.Fail[1] = true
	_, err := tr.SendText(context.Background(), 1, "x", nil)
	var de *chat.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int64(1), de.ChatID)
	assert.ErrorIs(t, err, chattest.ErrBlocked)
}
