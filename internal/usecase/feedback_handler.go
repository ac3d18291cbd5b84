package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillsync/internal/domain/profile"
	"skillsync/internal/queue"
	"skillsync/internal/repository"
)

const (
	EventMatchFeedback = "match_feedback"

	feedbackDedupeTTL = 24 * time.Hour
)

type MatchFeedbackEvent struct {
	Type      string           `json:"type"`
	MatchID   uuid.UUID        `json:"match_id"`
	Feedback  profile.Feedback `json:"feedback"`
	Score     int              `json:"score"`
	CreatedAt time.Time        `json:"created_at"`
}

// FeedbackNotifier pushes feedback events to the user's live connections.
type FeedbackNotifier interface {
	NotifyMatchFeedback(userID uuid.UUID, event MatchFeedbackEvent)
}

type nopNotifier struct{}

func (nopNotifier) NotifyMatchFeedback(uuid.UUID, MatchFeedbackEvent) {}

// HandleFeedback records one queued feedback task. It is the queue.Handler for the
// feedback worker; a returned error leaves the task pending for redelivery.
func (u *Matching) HandleFeedback(ctx context.Context, task queue.FeedbackTask) error {
	logger := u.logger.With(
		zap.String("user_id", task.UserID.String()),
		zap.String("match_id", task.MatchID.String()),
		zap.String("feedback", string(task.Feedback)))

	dedupeKey := task.DedupeKey()
	if u.cache != nil {
		first, err := u.cache.SetIfNotExists(ctx, dedupeKey, "1", feedbackDedupeTTL)
		if err != nil {
			logger.Warn("feedback dedupe check failed", zap.Error(err))
		} else if !first {
			logger.Debug("feedback already recorded, skipping")
			return nil
		}
	}

	it, err := u.recordFeedback(ctx, task)
	if err != nil {
		if u.cache != nil {
			_ = u.cache.Delete(ctx, dedupeKey)
		}
		return err
	}

	if u.cache != nil {
		if err := u.cache.Delete(ctx, matchesKey(task.UserID)); err != nil {
			logger.Warn("match cache invalidation failed", zap.Error(err))
		}
	}

	u.notifier.NotifyMatchFeedback(task.UserID, MatchFeedbackEvent{
		Type:      EventMatchFeedback,
		MatchID:   task.MatchID,
		Feedback:  task.Feedback,
		Score:     it.Score,
		CreatedAt: it.CreatedAt,
	})
	logger.Info("feedback recorded")
	return nil
}

func (u *Matching) recordFeedback(ctx context.Context, task queue.FeedbackTask) (profile.Interaction, error) {
	it := profile.Interaction{
		UserID:      task.UserID,
		CandidateID: task.MatchID,
		Feedback:    task.Feedback,
		CreatedAt:   task.CreatedAt,
		Score:       u.cachedScore(ctx, task.UserID, task.MatchID),
	}

	pctx, cancel := context.WithTimeout(ctx, u.cfg.ProfileTimeout)
	candidate, err := u.profiles.GetProfile(pctx, task.MatchID)
	cancel()
	switch {
	case err == nil:
		it.Industry = candidate.Industry
		if candidate.CompanyID != uuid.Nil {
			it.CompanyID = candidate.CompanyID
		}
		it.Skills = candidate.SkillNames()
		it.RemoteAllowed = candidate.RemoteAllowed
	case errors.Is(err, repository.ErrProfileNotFound):
		u.logger.Warn("feedback for unknown candidate, recording without snapshot", zap.String("match_id", task.MatchID.String()))
	default:
		return profile.Interaction{}, fmt.Errorf("load candidate snapshot: %w", err)
	}

	saved, err := u.history.Insert(ctx, it)
	if err != nil {
		return profile.Interaction{}, fmt.Errorf("insert interaction: %w", err)
	}
	return saved, nil
}

func (u *Matching) cachedScore(ctx context.Context, userID, matchID uuid.UUID) int {
	if u.cache == nil {
		return 0
	}
	var entry CachedMatches
	ok, err := u.cache.GetJSON(ctx, matchesKey(userID), &entry)
	if err != nil || !ok {
		return 0
	}
	for _, m := range entry.Matches {
		if m.ID == matchID {
			return m.MatchScore.Overall
		}
	}
	return 0
}
