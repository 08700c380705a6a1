package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"navigator-bot/internal/journal"
)

type fakeCounter struct {
	users, recent, events int
	since                 time.Time
	err                   error
}

func (f *fakeCounter) CountUsers(context.Context) (int, error) { return f.users, f.err }

func (f *fakeCounter) CountUsersSince(_ context.Context, t time.Time) (int, error) {
	f.since = t
	return f.recent, f.err
}

func (f *fakeCounter) CountEvents(context.Context) (int, error) { return f.events, f.err }

type fakeJournal struct{ entries []journal.Entry }

func (f *fakeJournal) Append(e journal.Entry) error { f.entries = append(f.entries, e); return nil }

func (f *fakeJournal) Load() ([]journal.Entry, error) { return f.entries, nil }

func TestBuild(t *testing.T) {
	now := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	counts := &fakeCounter{users: 40, recent: 3, events: 5}
	jr := &fakeJournal{entries: []journal.Entry{
		{Timestamp: now.Add(-2 * time.Hour), UserID: 1, Question: "a"},
		{Timestamp: now.Add(-3 * time.Hour), UserID: 1, Question: "b", Failed: true},
		{Timestamp: now.Add(-5 * time.Hour), UserID: 2, Question: "c"},
		// outside the window
		{Timestamp: now.Add(-25 * time.Hour), UserID: 3, Question: "old"},
	}}

	s := New(counts, jr)
	s.now = func() time.Time { return now }

	r, err := s.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.Members != 40 || r.NewMembers != 3 || r.Events != 5 {
		t.Fatalf("unexpected counts: %+v", r)
	}
	if r.Questions != 3 {
		t.Errorf("expected 3 questions, got %d", r.Questions)
	}
	if r.FailedQuestions != 1 {
		t.Errorf("expected 1 failed question, got %d", r.FailedQuestions)
	}
	if r.Askers != 2 {
		t.Errorf("expected 2 askers, got %d", r.Askers)
	}
	if want := now.Add(-24 * time.Hour); !counts.since.Equal(want) {
		t.Errorf("expected window start %v, got %v", want, counts.since)
	}
}

func TestBuildWithoutJournal(t *testing.T) {
	r, err := New(&fakeCounter{users: 1}, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.Members != 1 || r.Questions != 0 {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestBuildPropagatesStoreError(t *testing.T) {
	boom := errors.New("db closed")
	_, err := New(&fakeCounter{err: boom}, nil).Build(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	r := Report{
		GeneratedAt: time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC),
		Window:      24 * time.Hour,
		Members:     40, NewMembers: 3, Events: 5, Questions: 7, Askers: 4,
	}
	out := r.Format()
	for _, want := range []string{"15.01.2024 21:00", "24 ч.", "всего: 40", "Новых участников: 3", "базе: 5", "роботу: 7", "4 чел."} {
		if !strings.Contains(out, want) {
			t.Errorf("report misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Без ответа") {
		t.Errorf("failed line must be omitted when zero:\n%s", out)
	}

	r.FailedQuestions = 2
	if !strings.Contains(r.Format(), "Без ответа: 2") {
		t.Errorf("failed line missing")
	}
}
