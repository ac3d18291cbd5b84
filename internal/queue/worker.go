package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skillsync/internal/metrics"
)

// DefaultMaxAttempts is how many deliveries a task gets before it is dead-lettered.
const DefaultMaxAttempts = 5

// Handler processes one task. A non-nil error leaves the task unacknowledged so the
// consumer delivers it again, until it runs out of attempts.
type Handler func(ctx context.Context, task FeedbackTask) error

type Worker struct {
	consumer    Consumer
	handle      Handler
	logger      *zap.Logger
	backoff     time.Duration
	maxAttempts int
}

func NewWorker(consumer Consumer, handle Handler, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		consumer:    consumer,
		handle:      handle,
		logger:      logger.Named("queue.worker"),
		backoff:     time.Second,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts; values below 1 are ignored.
func (w *Worker) WithMaxAttempts(n int) *Worker {
	if n >= 1 {
		w.maxAttempts = n
	}
	return w
}

// Run processes batches until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("feedback worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("feedback worker stopping")
			return nil
		}
		_, failed, err := w.processBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Error("batch processing error", zap.Error(err))
		}
		// Failed tasks are redelivered by the next read; pace the retries.
		if err != nil || failed > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
		}
	}
}

// ProcessBatch reads one batch and returns how many tasks were handled and acknowledged.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	done, _, err := w.processBatch(ctx)
	return done, err
}

func (w *Worker) processBatch(ctx context.Context) (done, failed int, err error) {
	tasks, err := w.consumer.Read(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, task := range tasks {
		if err := w.handleSafe(ctx, task); err != nil {
			failed++
			metrics.FeedbackTasks.WithLabelValues("process", "error").Inc()
			w.logger.Error("feedback task failed",
				zap.String("message_id", task.ID),
				zap.String("match_id", task.MatchID.String()),
				zap.Int("attempt", task.Attempt),
				zap.Int("max_attempts", w.maxAttempts),
				zap.Error(err))
			if task.Attempt >= w.maxAttempts {
				w.deadLetter(ctx, task, err)
			}
			continue
		}
		if err := w.consumer.Ack(ctx, task); err != nil {
			w.logger.Warn("feedback ack failed", zap.String("message_id", task.ID), zap.Error(err))
			continue
		}
		metrics.FeedbackTasks.WithLabelValues("process", "ok").Inc()
		done++
	}
	return done, failed, nil
}

func (w *Worker) deadLetter(ctx context.Context, task FeedbackTask, cause error) {
	if err := w.consumer.DeadLetter(ctx, task, cause); err != nil {
		w.logger.Error("dead-lettering feedback failed", zap.String("message_id", task.ID), zap.Error(err))
		return
	}
	metrics.FeedbackTasks.WithLabelValues("process", "dead").Inc()
	w.logger.Warn("feedback task dead-lettered",
		zap.String("message_id", task.ID),
		zap.String("match_id", task.MatchID.String()),
		zap.Int("attempt", task.Attempt))
}

func (w *Worker) handleSafe(ctx context.Context, task FeedbackTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.handle(ctx, task)
}
