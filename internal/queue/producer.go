package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Producer interface {
	Enqueue(ctx context.Context, task FeedbackTask) error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisProducer(client *redis.Client, stream string, logger *zap.Logger) Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger.Named("queue.producer"),
		now:    time.Now,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task FeedbackTask) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = p.now()
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: taskValues(task),
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue feedback: %w", err)
	}

	p.logger.Debug("enqueued feedback",
		zap.String("message_id", id),
		zap.String("match_id", task.MatchID.String()),
		zap.String("feedback", string(task.Feedback)))
	return nil
}
