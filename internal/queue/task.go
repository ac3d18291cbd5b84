package queue

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"skillsync/internal/domain/profile"
)

// FeedbackTask asks the worker to record one feedback event. ID is the transport's message
// id and is empty until the task has been read back.
type FeedbackTask struct {
	ID        string
	MatchID   uuid.UUID
	UserID    uuid.UUID
	Feedback  profile.Feedback
	Attempt   int
	CreatedAt time.Time
}

// DedupeKey identifies a feedback event independent of delivery.
func (t FeedbackTask) DedupeKey() string {
	return fmt.Sprintf("feedback:%s:%s:%s:%d", t.UserID, t.MatchID, t.Feedback, t.CreatedAt.UnixNano())
}

func taskValues(t FeedbackTask) map[string]any {
	attempt := t.Attempt
	if attempt <= 0 {
		attempt = 1
	}
	return map[string]any{
		"match_id":   t.MatchID.String(),
		"user_id":    t.UserID.String(),
		"feedback":   string(t.Feedback),
		"attempt":    attempt,
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func parseTask(msg redis.XMessage) (FeedbackTask, error) {
	matchID, err := parseUUID(msg.Values, "match_id")
	if err != nil {
		return FeedbackTask{}, err
	}
	userID, err := parseUUID(msg.Values, "user_id")
	if err != nil {
		return FeedbackTask{}, err
	}

	raw, ok := msg.Values["feedback"]
	if !ok {
		return FeedbackTask{}, fmt.Errorf("missing feedback")
	}
	fb, ok := profile.ParseFeedback(fmt.Sprint(raw))
	if !ok {
		return FeedbackTask{}, fmt.Errorf("unknown feedback %q", raw)
	}

	attempt := 1
	if raw, ok := msg.Values["attempt"]; ok {
		n, err := strconv.Atoi(fmt.Sprint(raw))
		if err != nil {
			return FeedbackTask{}, fmt.Errorf("parsing attempt: %w", err)
		}
		attempt = n
	}

	var createdAt time.Time
	if raw, ok := msg.Values["created_at"]; ok {
		createdAt, err = time.Parse(time.RFC3339Nano, fmt.Sprint(raw))
		if err != nil {
			return FeedbackTask{}, fmt.Errorf("parsing created_at: %w", err)
		}
	}

	return FeedbackTask{
		ID:        msg.ID,
		MatchID:   matchID,
		UserID:    userID,
		Feedback:  fb,
		Attempt:   attempt,
		CreatedAt: createdAt,
	}, nil
}

func parseUUID(values map[string]any, key string) (uuid.UUID, error) {
	raw, ok := values[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s", key)
	}
	id, err := uuid.Parse(fmt.Sprint(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return id, nil
}
