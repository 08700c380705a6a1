package scheduler

import (
	"context"
	"testing"
)

func TestAddRejectsBadSchedule(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	if err := s.Add("report", "not a cron", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected parse error")
	}
	if s.Len() != 0 {
		t.Fatalf("bad job must not be registered")
	}
}

func TestAddRegistersJob(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	if err := s.Add("report", "0 21 * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Start()
	if s.Len() != 1 {
		t.Fatalf("expected 1 job, got %d", s.Len())
	}
}
