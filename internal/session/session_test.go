package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStoreGetSetClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	userA := int64(1)
	userB := int64(2)

	if got, ok, err := s.Get(ctx, userA); err != nil || ok || !got.State.IsNone() {
		t.Fatalf("fresh user: got %+v ok=%v err=%v", got, ok, err)
	}

	st := State{Flow: "join", Step: 1}
	if err := s.Set(ctx, userA, st, map[string]string{"fio": "Ivanov"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, userA, State{Flow: "join", Step: 2}, map[string]string{"age": "15"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, userB, State{Flow: "idea"}, nil); err != nil {
		t.Fatalf("set B: %v", err)
	}

	got, ok, _ := s.Get(ctx, userA)
	if !ok || got.State != (State{Flow: "join", Step: 2}) {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.Scratch["fio"] != "Ivanov" || got.Scratch["age"] != "15" {
		t.Fatalf("scratch not merged: %+v", got.Scratch)
	}

	// returned scratch is a copy
	got.Scratch["fio"] = "mutated"
	again, _, _ := s.Get(ctx, userA)
	if again.Scratch["fio"] != "Ivanov" {
		t.Fatalf("internal state mutated via returned map")
	}

	if err := s.Clear(ctx, userA); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := s.Get(ctx, userA); ok {
		t.Fatalf("clear did not remove user A")
	}
	if _, ok, _ := s.Get(ctx, userB); !ok {
		t.Fatalf("clear should not affect other users")
	}
	if err := s.Clear(ctx, 999); err != nil {
		t.Fatalf("clear of absent session: %v", err)
	}
}

func TestMemoryStoreSetIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	st := State{Flow: "idea"}
	patch := map[string]string{"text": "x"}
	for i := 0; i < 3; i++ {
		if err := s.Set(ctx, 7, st, patch); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	got, _, _ := s.Get(ctx, 7)
	if got.State != st || len(got.Scratch) != 1 || got.Scratch["text"] != "x" {
		t.Fatalf("unexpected session after repeated set: %+v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("want 1 session, got %d", s.Len())
	}
}

func TestLocksSerializeSameKey(t *testing.T) {
	l := NewLocks()
	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(5)
			defer unlock()
			if n := atomic.AddInt32(&inside, 1); n != 1 {
				t.Errorf("two holders of the same key: %d", n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	if l.size() != 0 {
		t.Fatalf("lock entries leaked: %d", l.size())
	}
}

func TestLocksDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocks()
	unlockA := l.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock(2)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on key 2 blocked by key 1")
	}
}

func TestLocksUnlockTwiceIsSafe(t *testing.T) {
	l := NewLocks()
	unlock := l.Lock(1)
	unlock()
	unlock()
	if l.size() != 0 {
		t.Fatalf("entries left: %d", l.size())
	}
}
