package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"navigator-bot/internal/journal"
)

// Counter is the part of the store the report reads.
type Counter interface {
	CountUsers(ctx context.Context) (int, error)
	CountUsersSince(ctx context.Context, t time.Time) (int, error)
	CountEvents(ctx context.Context) (int, error)
}

// Report is a point-in-time digest for admins.
type Report struct {
	GeneratedAt time.Time
	Window      time.Duration

	Members    int
	NewMembers int
	Events     int

	Questions       int
	FailedQuestions int
	Askers          int
}

// Service builds reports from store counters and the assistant journal.
type Service struct {
	counts  Counter
	journal journal.Recorder
	window  time.Duration
	now     func() time.Time
}

func New(counts Counter, rec journal.Recorder) *Service {
	return &Service{counts: counts, journal: rec, window: 24 * time.Hour, now: time.Now}
}

// Build collects the current numbers. The journal is optional; without it
// question counts stay zero.
func (s *Service) Build(ctx context.Context) (Report, error) {
	now := s.now().UTC()
	since := now.Add(-s.window)
	r := Report{GeneratedAt: now, Window: s.window}

	var err error
	if r.Members, err = s.counts.CountUsers(ctx); err != nil {
		return Report{}, err
	}
	if r.NewMembers, err = s.counts.CountUsersSince(ctx, since); err != nil {
		return Report{}, err
	}
	if r.Events, err = s.counts.CountEvents(ctx); err != nil {
		return Report{}, err
	}

	if s.journal != nil {
		entries, err := s.journal.Load()
		if err != nil {
			return Report{}, fmt.Errorf("load journal: %w", err)
		}
		countQuestions(&r, entries, since, now)
	}
	return r, nil
}

func countQuestions(r *Report, entries []journal.Entry, since, until time.Time) {
	askers := make(map[int64]bool)
	for _, e := range entries {
		if e.Timestamp.Before(since) || e.Timestamp.After(until) {
			continue
		}
		r.Questions++
		if e.Failed {
			r.FailedQuestions++
		}
		askers[e.UserID] = true
	}
	r.Askers = len(askers)
}

// Format renders the report as an HTML message.
func (r Report) Format() string {
	var b strings.Builder
	b.WriteString("📊 <b>Статистика навигатора</b>\n")
	fmt.Fprintf(&b, "<i>%s UTC, за последние %d ч.</i>\n\n", r.GeneratedAt.Format("02.01.2006 15:04"), int(r.Window.Hours()))
	fmt.Fprintf(&b, "👥 Участников всего: %d\n", r.Members)
	fmt.Fprintf(&b, "🆕 Новых участников: %d\n", r.NewMembers)
	fmt.Fprintf(&b, "🗓 Мероприятий в базе: %d\n", r.Events)
	fmt.Fprintf(&b, "🤖 Вопросов роботу: %d (спрашивали %d чел.)", r.Questions, r.Askers)
	if r.FailedQuestions > 0 {
		fmt.Fprintf(&b, "\n⚠️ Без ответа: %d", r.FailedQuestions)
	}
	return b.String()
}
