package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Consumer interface {
	Read(ctx context.Context) ([]FeedbackTask, error)
	Ack(ctx context.Context, task FeedbackTask) error
	// DeadLetter parks a task that has exhausted its attempts and acknowledges it.
	DeadLetter(ctx context.Context, task FeedbackTask, cause error) error
}

type ConsumerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	BatchSize int64
	Block     time.Duration

	// DeadLetterStream receives tasks that keep failing. Defaults to Stream + ":dead".
	DeadLetterStream string
	// ClaimMinIdle is how long another consumer's entry must sit unacknowledged before it
	// is claimed. ClaimInterval spaces out the claim scans.
	ClaimMinIdle  time.Duration
	ClaimInterval time.Duration
}

// RedisConsumer reads feedback tasks from a stream consumer group. Every Read first
// re-delivers this consumer's own unacknowledged entries, so a task whose handler failed is
// retried on the next batch. Entries stranded by a consumer that died are claimed after
// ClaimMinIdle.
type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	attempts  map[string]int
	lastClaim time.Time
}

func NewRedisConsumer(ctx context.Context, client *redis.Client, cfg ConsumerConfig, logger *zap.Logger) (*RedisConsumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	// go-redis sends BLOCK 0 for a zero duration, which never returns.
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "skillsync"
	}
	if cfg.DeadLetterStream == "" {
		cfg.DeadLetterStream = cfg.Stream + ":dead"
	}
	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = time.Minute
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}

	c := &RedisConsumer{
		client:   client,
		cfg:      cfg,
		logger:   logger.Named("queue.consumer"),
		now:      time.Now,
		attempts: make(map[string]int),
	}
	if err := c.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Start at 0 so tasks written before the group existed are still delivered.
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Read returns pending redeliveries when there are any and otherwise blocks for new tasks.
func (c *RedisConsumer) Read(ctx context.Context) ([]FeedbackTask, error) {
	c.claimStale(ctx)

	pending, err := c.read(ctx, "0", -1)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return pending, nil
	}
	return c.read(ctx, ">", c.cfg.Block)
}

func (c *RedisConsumer) read(ctx context.Context, from string, block time.Duration) ([]FeedbackTask, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, from},
		Count:    c.cfg.BatchSize,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []FeedbackTask{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	redelivery := from != ">"
	tasks := []FeedbackTask{}
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			// A pending entry whose payload was trimmed away comes back without values.
			if len(msg.Values) == 0 {
				_ = c.Ack(ctx, FeedbackTask{ID: msg.ID})
				continue
			}
			task, parseErr := parseTask(msg)
			if parseErr != nil {
				c.logger.Error("dropping malformed feedback message",
					zap.String("message_id", msg.ID),
					zap.String("stream", c.cfg.Stream),
					zap.Error(parseErr))
				_ = c.Ack(ctx, FeedbackTask{ID: msg.ID})
				continue
			}
			task.Attempt = c.countDelivery(task, redelivery)
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// countDelivery tracks attempts locally; a redelivery is one more than the last delivery
// this consumer saw, or than the attempt recorded in the payload.
func (c *RedisConsumer) countDelivery(task FeedbackTask, redelivery bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, seen := c.attempts[task.ID]
	switch {
	case !redelivery:
		n = task.Attempt
	case seen:
		n++
	default:
		n = task.Attempt + 1
	}
	c.attempts[task.ID] = n
	return n
}

func (c *RedisConsumer) forget(id string) {
	c.mu.Lock()
	delete(c.attempts, id)
	c.mu.Unlock()
}

// claimStale moves entries another consumer left unacknowledged for ClaimMinIdle into this
// consumer's pending list, where the next pending read picks them up.
func (c *RedisConsumer) claimStale(ctx context.Context) {
	c.mu.Lock()
	due := c.now().Sub(c.lastClaim) >= c.cfg.ClaimInterval
	if due {
		c.lastClaim = c.now()
	}
	c.mu.Unlock()
	if !due {
		return
	}

	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		MinIdle:  c.cfg.ClaimMinIdle,
		Start:    "0-0",
		Count:    c.cfg.BatchSize,
	}).Result()
	if err != nil {
		c.logger.Warn("claiming stale feedback failed", zap.String("stream", c.cfg.Stream), zap.Error(err))
		return
	}
	if len(msgs) > 0 {
		c.logger.Info("claimed stale feedback", zap.Int("count", len(msgs)), zap.String("stream", c.cfg.Stream))
	}
}

func (c *RedisConsumer) Ack(ctx context.Context, task FeedbackTask) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, task.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	c.forget(task.ID)
	return nil
}

func (c *RedisConsumer) DeadLetter(ctx context.Context, task FeedbackTask, cause error) error {
	values := taskValues(task)
	values["original_id"] = task.ID
	if cause != nil {
		values["error"] = cause.Error()
	}
	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DeadLetterStream, Values: values}).Err(); err != nil {
		return fmt.Errorf("dead-letter feedback (stream=%s): %w", c.cfg.DeadLetterStream, err)
	}
	return c.Ack(ctx, task)
}
