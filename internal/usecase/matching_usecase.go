package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"skillsync/internal/domain/matching"
	"skillsync/internal/domain/profile"
	"skillsync/internal/metrics"
	"skillsync/internal/queue"
	"skillsync/internal/repository"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrMatchingUnavailable = errors.New("matching temporarily unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidFeedback     = errors.New("invalid feedback")
	ErrUnauthorized        = errors.New("unauthorized")
)

// MatchCache is the JSON cache the usecase reads and writes. *cache.Redis satisfies it.
type MatchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

type MatchingUsecase interface {
	FindMatches(ctx context.Context, userID uuid.UUID, role profile.Role, opts Options) ([]matching.MatchResult, error)
	GetCachedMatches(ctx context.Context, userID uuid.UUID) (CachedMatches, bool, error)
	CalculateMatchScore(ctx context.Context, userID, candidateID uuid.UUID, role profile.Role) (matching.MatchResult, error)
	UpdateMatchFeedback(ctx context.Context, matchID, userID uuid.UUID, feedback string) error
	GetMatchStatistics(ctx context.Context, userID uuid.UUID) (matching.Statistics, error)
}

type Config struct {
	MinScore        int
	Limit           int
	MaxLimit        int
	CacheTTL        time.Duration
	Concurrency     int
	ProfileTimeout  time.Duration
	EnhancerTimeout time.Duration
	PerIndustry     int
	DiversityCap    int
}

func (c Config) withDefaults() Config {
	if c.MinScore <= 0 {
		c.MinScore = 60
	}
	if c.Limit <= 0 {
		c.Limit = 20
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 30 * time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.ProfileTimeout <= 0 {
		c.ProfileTimeout = 5 * time.Second
	}
	if c.EnhancerTimeout <= 0 {
		c.EnhancerTimeout = 2 * time.Second
	}
	if c.PerIndustry <= 0 {
		c.PerIndustry = matching.DefaultPerIndustry
	}
	if c.DiversityCap <= 0 {
		c.DiversityCap = matching.DefaultDiversityCap
	}
	return c
}

// Options tune a single FindMatches call. Nil fields take the configured defaults.
type Options struct {
	MinScore *int
	Limit    *int
}

// CachedMatches is the value stored under matches_{userId}.
type CachedMatches struct {
	Matches   []matching.MatchResult `json:"matches"`
	Timestamp time.Time              `json:"timestamp"`
	ExpiresAt time.Time              `json:"expiresAt"`
}

type Matching struct {
	profiles repository.ProfileRepository
	history  repository.HistoryRepository
	cache    MatchCache
	producer queue.Producer
	notifier FeedbackNotifier
	scorer   *matching.Scorer
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	flight singleflight.Group
}

type Deps struct {
	Profiles repository.ProfileRepository
	History  repository.HistoryRepository
	Cache    MatchCache
	Producer queue.Producer
	Notifier FeedbackNotifier
	Scorer   *matching.Scorer
	Logger   *zap.Logger
}

func NewMatchingUsecase(d Deps, cfg Config) *Matching {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Matching{
		profiles: d.Profiles,
		history:  d.History,
		cache:    d.Cache,
		producer: d.Producer,
		notifier: notifier,
		scorer:   d.Scorer,
		cfg:      cfg.withDefaults(),
		logger:   logger.Named("matching"),
		now:      d.Scorer.Now,
	}
}

// NewFallbackHook logs and counts enhancer failures for matching.WithFallbackHook.
func NewFallbackHook(logger *zap.Logger) func(enhancer string, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("matching")
	return func(enhancer string, err error) {
		metrics.EnhancerFallbacks.WithLabelValues(enhancer).Inc()
		logger.Warn("enhancer unavailable, using fallback", zap.String("enhancer", enhancer), zap.Error(err))
	}
}

func matchesKey(userID uuid.UUID) string {
	return "matches_" + userID.String()
}

func (u *Matching) resolve(opts Options) (int, int, error) {
	minScore, limit := u.cfg.MinScore, u.cfg.Limit
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	if opts.Limit != nil {
		limit = *opts.Limit
	}
	if minScore < 0 || minScore > 100 {
		return 0, 0, fmt.Errorf("%w: min_score must be between 0 and 100", ErrInvalidInput)
	}
	if limit <= 0 {
		return 0, 0, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	if limit > u.cfg.MaxLimit {
		limit = u.cfg.MaxLimit
	}
	return minScore, limit, nil
}

// FindMatches ranks the opposite-role pool for the seeker and caches the result. Concurrent
// calls with the same arguments share one computation, which is detached from any single
// caller's cancellation; a cancelled caller stops waiting without failing the others.
func (u *Matching) FindMatches(ctx context.Context, userID uuid.UUID, role profile.Role, opts Options) ([]matching.MatchResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, ok := profile.ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	minScore, limit, err := u.resolve(opts)
	if err != nil {
		return nil, err
	}

	key := userID.String() + "|" + string(role) + "|" + strconv.Itoa(minScore) + "|" + strconv.Itoa(limit)
	detached := context.WithoutCancel(ctx)
	ch := u.flight.DoChan(key, func() (any, error) {
		return u.findMatches(detached, userID, role, minScore, limit)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrMatchingUnavailable, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}

	shared := res.Val.([]matching.MatchResult)
	out := make([]matching.MatchResult, len(shared))
	copy(out, shared)
	return out, nil
}

func (u *Matching) findMatches(ctx context.Context, userID uuid.UUID, role profile.Role, minScore, limit int) (results []matching.MatchResult, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.MatchRequests.WithLabelValues(string(role), outcome).Inc()
		metrics.MatchDuration.WithLabelValues(string(role)).Observe(time.Since(start).Seconds())
	}()

	seeker, candidates, err := u.loadPool(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	scored, err := u.scorePool(ctx, seeker, candidates, role)
	if err != nil {
		return nil, err
	}

	ranked := matching.FilterMinScore(scored, minScore)
	matching.SortResults(ranked)
	ranked = matching.ApplyDiversity(ranked, u.cfg.PerIndustry, max(u.cfg.DiversityCap, limit))
	ranked = matching.ApplyRecencyBoost(ranked, u.now())
	ranked = matching.ApplyPreferenceLearning(ranked, u.loadHistory(ctx, userID))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	u.writeCache(ctx, userID, ranked)

	u.logger.Debug("matches computed",
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
		zap.Int("pool", len(candidates)),
		zap.Int("returned", len(ranked)),
		zap.Duration("latency", time.Since(start)))
	return ranked, nil
}

func (u *Matching) loadPool(ctx context.Context, userID uuid.UUID, role profile.Role) (profile.Profile, []profile.Profile, error) {
	pctx, cancel := context.WithTimeout(ctx, u.cfg.ProfileTimeout)
	defer cancel()

	seeker, err := u.profiles.GetProfile(pctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return profile.Profile{}, nil, ErrProfileNotFound
		}
		u.logger.Error("load seeker failed", zap.String("user_id", userID.String()), zap.Error(err))
		return profile.Profile{}, nil, fmt.Errorf("%w: load seeker: %v", ErrMatchingUnavailable, err)
	}
	if err := checkSeekerRole(seeker, role); err != nil {
		return profile.Profile{}, nil, err
	}

	candidates, err := u.profiles.ListCandidatesByRole(pctx, role.Opposite())
	if err != nil {
		u.logger.Error("load candidate pool failed", zap.String("role", string(role.Opposite())), zap.Error(err))
		return profile.Profile{}, nil, fmt.Errorf("%w: load candidates: %v", ErrMatchingUnavailable, err)
	}
	return seeker, candidates, nil
}

func (u *Matching) scorePool(ctx context.Context, seeker profile.Profile, candidates []profile.Profile, role profile.Role) ([]matching.MatchResult, error) {
	trending := u.scorer.TrendingSkills(ctx)

	results := make([]matching.MatchResult, len(candidates))
	keep := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)
	for i, c := range candidates {
		if c.ID == seeker.ID {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score := u.scorer.Score(gctx, seeker, c, role, trending)
			results[i] = matching.NewMatchResult(c, score)
			keep[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchingUnavailable, err)
	}

	out := make([]matching.MatchResult, 0, len(candidates))
	for i := range results {
		if keep[i] {
			out = append(out, results[i])
		}
	}
	metrics.CandidatesScored.Add(float64(len(out)))
	return out, nil
}

func (u *Matching) loadHistory(ctx context.Context, userID uuid.UUID) []profile.Interaction {
	hctx, cancel := context.WithTimeout(ctx, u.cfg.EnhancerTimeout)
	defer cancel()

	history, err := u.history.ListByUser(hctx, userID)
	if err != nil {
		metrics.EnhancerFallbacks.WithLabelValues(matching.EnhancerHistory).Inc()
		u.logger.Warn("history unavailable, skipping preference learning", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}
	return history
}

func (u *Matching) writeCache(ctx context.Context, userID uuid.UUID, results []matching.MatchResult) {
	if u.cache == nil {
		return
	}
	now := u.now()
	entry := CachedMatches{Matches: results, Timestamp: now, ExpiresAt: now.Add(u.cfg.CacheTTL)}
	if err := u.cache.SetJSON(ctx, matchesKey(userID), entry, u.cfg.CacheTTL); err != nil {
		metrics.EnhancerFallbacks.WithLabelValues("cache").Inc()
		u.logger.Warn("match cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// GetCachedMatches returns the last FindMatches result when it has not expired.
func (u *Matching) GetCachedMatches(ctx context.Context, userID uuid.UUID) (CachedMatches, bool, error) {
	if userID == uuid.Nil {
		return CachedMatches{}, false, ErrUnauthorized
	}
	if u.cache == nil {
		return CachedMatches{}, false, nil
	}

	var entry CachedMatches
	ok, err := u.cache.GetJSON(ctx, matchesKey(userID), &entry)
	if err != nil {
		metrics.CacheResults.WithLabelValues("error").Inc()
		u.logger.Warn("match cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		return CachedMatches{}, false, nil
	}
	if !ok {
		metrics.CacheResults.WithLabelValues("miss").Inc()
		return CachedMatches{}, false, nil
	}
	if !u.now().Before(entry.ExpiresAt) {
		metrics.CacheResults.WithLabelValues("expired").Inc()
		return CachedMatches{}, false, nil
	}
	metrics.CacheResults.WithLabelValues("hit").Inc()
	return entry, true, nil
}

// CalculateMatchScore scores one candidate for the user without ranking or caching.
func (u *Matching) CalculateMatchScore(ctx context.Context, userID, candidateID uuid.UUID, role profile.Role) (matching.MatchResult, error) {
	if userID == uuid.Nil {
		return matching.MatchResult{}, ErrUnauthorized
	}
	if candidateID == uuid.Nil {
		return matching.MatchResult{}, fmt.Errorf("%w: candidate_id is required", ErrInvalidInput)
	}
	if _, ok := profile.ParseRole(string(role)); !ok {
		return matching.MatchResult{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	pctx, cancel := context.WithTimeout(ctx, u.cfg.ProfileTimeout)
	defer cancel()

	seeker, err := u.getProfile(pctx, userID)
	if err != nil {
		return matching.MatchResult{}, err
	}
	if err := checkSeekerRole(seeker, role); err != nil {
		return matching.MatchResult{}, err
	}
	candidate, err := u.getProfile(pctx, candidateID)
	if err != nil {
		return matching.MatchResult{}, err
	}

	score := u.scorer.CalculateMatchScore(ctx, seeker, candidate, role)
	return matching.NewMatchResult(candidate, score), nil
}

// checkSeekerRole rejects a requested role that contradicts the stored profile. Profiles
// without a stored role accept either.
func checkSeekerRole(seeker profile.Profile, role profile.Role) error {
	stored, ok := profile.ParseRole(string(seeker.Role))
	if !ok {
		return nil
	}
	requested, _ := profile.ParseRole(string(role))
	if stored != requested {
		return fmt.Errorf("%w: role %s does not match the profile role %s", ErrInvalidInput, requested, stored)
	}
	return nil
}

func (u *Matching) getProfile(ctx context.Context, id uuid.UUID) (profile.Profile, error) {
	p, err := u.profiles.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return profile.Profile{}, ErrProfileNotFound
		}
		return profile.Profile{}, fmt.Errorf("%w: load profile %s: %v", ErrMatchingUnavailable, id, err)
	}
	return p, nil
}

// UpdateMatchFeedback validates the feedback and hands it to the queue.
func (u *Matching) UpdateMatchFeedback(ctx context.Context, matchID, userID uuid.UUID, feedback string) error {
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	if matchID == uuid.Nil {
		return fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}
	fb, ok := profile.ParseFeedback(feedback)
	if !ok {
		return ErrInvalidFeedback
	}

	task := queue.FeedbackTask{MatchID: matchID, UserID: userID, Feedback: fb, CreatedAt: u.now()}
	if err := u.producer.Enqueue(ctx, task); err != nil {
		metrics.FeedbackTasks.WithLabelValues("enqueue", "error").Inc()
		u.logger.Error("enqueue feedback failed",
			zap.String("user_id", userID.String()),
			zap.String("match_id", matchID.String()),
			zap.Error(err))
		return fmt.Errorf("enqueue feedback: %w", err)
	}
	metrics.FeedbackTasks.WithLabelValues("enqueue", "ok").Inc()
	return nil
}

func (u *Matching) GetMatchStatistics(ctx context.Context, userID uuid.UUID) (matching.Statistics, error) {
	if userID == uuid.Nil {
		return matching.Statistics{}, ErrUnauthorized
	}
	hctx, cancel := context.WithTimeout(ctx, u.cfg.ProfileTimeout)
	defer cancel()

	history, err := u.history.ListByUser(hctx, userID)
	if err != nil {
		u.logger.Error("load history failed", zap.String("user_id", userID.String()), zap.Error(err))
		return matching.Statistics{}, fmt.Errorf("%w: load history: %v", ErrMatchingUnavailable, err)
	}
	return matching.ComputeStatistics(history), nil
}
