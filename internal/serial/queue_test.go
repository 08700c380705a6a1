package serial

import (
	"sync"
	"testing"
	"time"
)

func TestQueuePreservesOrderPerKey(t *testing.T) {
	q := New()
	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 100; i++ {
		for _, key := range []int64{1, 2, 3} {
			key, i := key, i
			q.Submit(key, func() {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			})
		}
	}
	q.Wait()

	for key, seq := range got {
		if len(seq) != 100 {
			t.Fatalf("key %d: want 100 tasks, got %d", key, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("key %d: out of order at %d: %v", key, i, seq[:i+1])
			}
		}
	}
	if q.Active() != 0 {
		t.Fatalf("lanes left after wait: %d", q.Active())
	}
}

func TestQueueKeysRunConcurrently(t *testing.T) {
	q := New()
	release := make(chan struct{})
	done := make(chan struct{})

	q.Submit(1, func() { <-release })
	q.Submit(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("key 2 was blocked by key 1")
	}
	close(release)
	q.Wait()
}

func TestQueueSameKeyIsExclusive(t *testing.T) {
	q := New()
	var mu sync.Mutex
	running := 0
	for i := 0; i < 50; i++ {
		q.Submit(9, func() {
			mu.Lock()
			running++
			if running != 1 {
				t.Errorf("concurrent tasks for one key: %d", running)
			}
			mu.Unlock()
			time.Sleep(100 * time.Microsecond)
			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	q.Wait()
}
