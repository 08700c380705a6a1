// Package serial runs tasks one at a time per key, in submission order,
// while tasks for different keys run concurrently.
package serial

import "sync"

type lane struct {
	tasks []func()
}

type Queue struct {
	mu    sync.Mutex
	lanes map[int64]*lane
	wg    sync.WaitGroup
}

func New() *Queue {
	return &Queue{lanes: make(map[int64]*lane)}
}

// Submit enqueues fn behind every earlier task with the same key.
// It never blocks on task execution.
func (q *Queue) Submit(key int64, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[key]; ok {
		l.tasks = append(l.tasks, fn)
		return
	}
	l := &lane{tasks: []func(){fn}}
	q.lanes[key] = l
	q.wg.Add(1)
	go q.drain(key, l)
}

func (q *Queue) drain(key int64, l *lane) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(l.tasks) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}

// Wait blocks until every submitted task has finished.
func (q *Queue) Wait() { q.wg.Wait() }

// Active reports the number of keys with pending or running tasks.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}
