package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var ErrQueueFull = errors.New("feedback queue full")

// MemoryQueue is an in-process Producer and Consumer used when Redis is unavailable.
// Tasks are lost on restart. A task that is read but not acknowledged is delivered again by
// the next Read until the worker dead-letters it, which here just drops it.
type MemoryQueue struct {
	ch    chan FeedbackTask
	block time.Duration
	seq   atomic.Int64
	now   func() time.Time

	mu       sync.Mutex
	inflight []FeedbackTask
}

func NewMemoryQueue(size int, block time.Duration) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	if block <= 0 {
		block = 2 * time.Second
	}
	return &MemoryQueue{ch: make(chan FeedbackTask, size), block: block, now: time.Now}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task FeedbackTask) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = q.now()
	}
	if task.Attempt <= 0 {
		task.Attempt = 1
	}
	task.ID = strconv.FormatInt(q.seq.Add(1), 10)

	select {
	case q.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Read redelivers unacknowledged tasks first. Otherwise it waits up to the block duration
// for one task, then drains whatever else is ready.
func (q *MemoryQueue) Read(ctx context.Context) ([]FeedbackTask, error) {
	if redelivered := q.redeliver(); len(redelivered) > 0 {
		return redelivered, nil
	}

	timer := time.NewTimer(q.block)
	defer timer.Stop()

	var first FeedbackTask
	select {
	case first = <-q.ch:
	case <-timer.C:
		return []FeedbackTask{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tasks := []FeedbackTask{first}
drain:
	for {
		select {
		case t := <-q.ch:
			tasks = append(tasks, t)
		default:
			break drain
		}
	}

	q.mu.Lock()
	q.inflight = append(q.inflight, tasks...)
	q.mu.Unlock()
	return tasks, nil
}

func (q *MemoryQueue) redeliver() []FeedbackTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.inflight) == 0 {
		return nil
	}
	out := make([]FeedbackTask, len(q.inflight))
	for i := range q.inflight {
		q.inflight[i].Attempt++
		out[i] = q.inflight[i]
	}
	return out
}

func (q *MemoryQueue) Ack(ctx context.Context, task FeedbackTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.inflight {
		if t.ID == task.ID {
			q.inflight = append(q.inflight[:i], q.inflight[i+1:]...)
			break
		}
	}
	return nil
}

// DeadLetter drops the task; there is nowhere durable to park it.
func (q *MemoryQueue) DeadLetter(ctx context.Context, task FeedbackTask, _ error) error {
	return q.Ack(ctx, task)
}

// Len counts queued tasks that have not been read yet.
func (q *MemoryQueue) Len() int { return len(q.ch) }
