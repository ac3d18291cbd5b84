package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"skillsync/internal/domain/profile"
)

var ErrInvalidWeights = errors.New("invalid weights")

const weightTolerance = 1e-6

const (
	EnhancerEmbedder = "embedder"
	EnhancerTrending = "trending"
	EnhancerCultural = "cultural"
	EnhancerSuccess  = "success"
	EnhancerHistory  = "history"
)

type Weights struct {
	Skill        float64 `json:"skill" mapstructure:"skill"`
	Experience   float64 `json:"experience" mapstructure:"experience"`
	Cultural     float64 `json:"cultural" mapstructure:"cultural"`
	Location     float64 `json:"location" mapstructure:"location"`
	Salary       float64 `json:"salary" mapstructure:"salary"`
	Availability float64 `json:"availability" mapstructure:"availability"`
}

func DefaultWeights() Weights {
	return Weights{Skill: 0.40, Experience: 0.25, Cultural: 0.15, Location: 0.10, Salary: 0.05, Availability: 0.05}
}

func (w Weights) Validate() error {
	for _, v := range []float64{w.Skill, w.Experience, w.Cultural, w.Location, w.Salary, w.Availability} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	sum := w.Skill + w.Experience + w.Cultural + w.Location + w.Salary + w.Availability
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// SubScores holds the six factor scores, each in 0..100.
type SubScores struct {
	Skill        float64 `json:"skill"`
	Experience   float64 `json:"experience"`
	Cultural     float64 `json:"cultural"`
	Location     float64 `json:"location"`
	Salary       float64 `json:"salary"`
	Availability float64 `json:"availability"`
}

// Weighted is the dot product of the sub-scores with w.
func (s SubScores) Weighted(w Weights) float64 {
	return s.Skill*w.Skill + s.Experience*w.Experience + s.Cultural*w.Cultural +
		s.Location*w.Location + s.Salary*w.Salary + s.Availability*w.Availability
}

func (s SubScores) Breakdown(w Weights) []FactorBreakdown {
	rows := []struct {
		name   string
		score  float64
		weight float64
	}{
		{"skill", s.Skill, w.Skill},
		{"experience", s.Experience, w.Experience},
		{"cultural", s.Cultural, w.Cultural},
		{"location", s.Location, w.Location},
		{"salary", s.Salary, w.Salary},
		{"availability", s.Availability, w.Availability},
	}
	out := make([]FactorBreakdown, 0, len(rows))
	for _, r := range rows {
		out = append(out, FactorBreakdown{
			Factor:       r.name,
			Score:        r.score,
			Weight:       r.weight,
			Contribution: r.score * r.weight,
		})
	}
	return out
}

type FactorBreakdown struct {
	Factor       string  `json:"factor"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

type MatchScore struct {
	SkillMatch          float64           `json:"skill_match"`
	ExperienceLevel     float64           `json:"experience_level"`
	CulturalFit         float64           `json:"cultural_fit"`
	LocationPreference  float64           `json:"location_preference"`
	SalaryExpectation   float64           `json:"salary_expectation"`
	AvailabilityMatch   float64           `json:"availability_match"`
	Overall             int               `json:"overall"`
	SuccessPrediction   int               `json:"success_prediction"`
	PreferenceAlignment *int              `json:"preference_alignment,omitempty"`
	Breakdown           []FactorBreakdown `json:"breakdown"`
	Skills              SkillMatch        `json:"skills"`
}

func (m MatchScore) SubScores() SubScores {
	return SubScores{
		Skill:        m.SkillMatch,
		Experience:   m.ExperienceLevel,
		Cultural:     m.CulturalFit,
		Location:     m.LocationPreference,
		Salary:       m.SalaryExpectation,
		Availability: m.AvailabilityMatch,
	}
}

// Overall applies the multiplier to a weighted sum and clamps to 0..100.
func Overall(weighted, multiplier float64) int {
	return clampInt(int(math.Round(weighted*multiplier)), 0, 100)
}

type Scorer struct {
	weights         Weights
	catalog         *Catalog
	embedder        Embedder
	trending        TrendingSource
	cultural        CulturalPredictor
	success         SuccessModel
	enhancerTimeout time.Duration
	now             func() time.Time
	onFallback      func(enhancer string, err error)
}

type Option func(*Scorer)

func WithWeights(w Weights) Option { return func(s *Scorer) { s.weights = w } }

func WithCatalog(c *Catalog) Option { return func(s *Scorer) { s.catalog = c } }

func WithEmbedder(e Embedder) Option { return func(s *Scorer) { s.embedder = e } }

func WithTrendingSource(t TrendingSource) Option { return func(s *Scorer) { s.trending = t } }

func WithCulturalPredictor(p CulturalPredictor) Option { return func(s *Scorer) { s.cultural = p } }

func WithSuccessModel(m SuccessModel) Option { return func(s *Scorer) { s.success = m } }

func WithEnhancerTimeout(d time.Duration) Option { return func(s *Scorer) { s.enhancerTimeout = d } }

func WithClock(now func() time.Time) Option { return func(s *Scorer) { s.now = now } }

// WithFallbackHook registers fn to be told about every enhancer that failed and was
// replaced by its rule-based fallback.
func WithFallbackHook(fn func(enhancer string, err error)) Option {
	return func(s *Scorer) { s.onFallback = fn }
}

func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		weights:         DefaultWeights(),
		catalog:         DefaultCatalog(),
		enhancerTimeout: 2 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Scorer) Weights() Weights { return s.weights }

func (s *Scorer) Catalog() *Catalog { return s.catalog }

func (s *Scorer) Now() time.Time { return s.now() }

// Orient returns the (talent, opening) pair: students are always the talent side.
func Orient(seeker, candidate profile.Profile, seekerRole profile.Role) (profile.Profile, profile.Profile) {
	if seekerRole == profile.RoleStartup {
		return candidate, seeker
	}
	return seeker, candidate
}

// TrendingSkills fetches the market trending list. A failure yields an empty list.
func (s *Scorer) TrendingSkills(ctx context.Context) []TrendingSkill {
	if s.trending == nil {
		return nil
	}
	ctx, cancel := s.enhancerContext(ctx)
	defer cancel()

	skills, err := s.trending.TrendingSkills(ctx)
	if err != nil {
		s.fallback(EnhancerTrending, err)
		return nil
	}
	return skills
}

func (s *Scorer) CalculateMatchScore(ctx context.Context, seeker, candidate profile.Profile, seekerRole profile.Role) MatchScore {
	return s.Score(ctx, seeker, candidate, seekerRole, s.TrendingSkills(ctx))
}

// Score is CalculateMatchScore with a pre-fetched trending list, for scoring a pool.
func (s *Scorer) Score(ctx context.Context, seeker, candidate profile.Profile, seekerRole profile.Role, trending []TrendingSkill) MatchScore {
	talent, opening := Orient(seeker, candidate, seekerRole)

	skills := s.scoreSkills(ctx, talent, opening, trending)
	subs := SubScores{
		Skill:        skills.Score,
		Experience:   ExperienceScore(talent, opening),
		Cultural:     s.culturalFit(ctx, talent, opening),
		Location:     LocationScore(talent, opening),
		Salary:       SalaryScore(talent, opening),
		Availability: AvailabilityScore(talent, opening, s.now()),
	}

	multiplier := s.multiplier(ctx, talent, opening, subs)

	return MatchScore{
		SkillMatch:         subs.Skill,
		ExperienceLevel:    subs.Experience,
		CulturalFit:        subs.Cultural,
		LocationPreference: subs.Location,
		SalaryExpectation:  subs.Salary,
		AvailabilityMatch:  subs.Availability,
		Overall:            Overall(subs.Weighted(s.weights), multiplier),
		SuccessPrediction:  int(math.Round(multiplier * 100)),
		Breakdown:          subs.Breakdown(s.weights),
		Skills:             skills,
	}
}

func (s *Scorer) scoreSkills(ctx context.Context, talent, opening profile.Profile, trending []TrendingSkill) SkillMatch {
	have := ExtractSkills(talent, s.catalog)
	want := ExtractRequiredSkills(opening, s.catalog)

	var embedder Embedder
	if s.embedder != nil {
		embedder = timedEmbedder{inner: s.embedder, timeout: s.enhancerTimeout}
	}
	return ScoreSkills(ctx, have, want, embedder, trending, func(err error) {
		s.fallback(EnhancerEmbedder, err)
	})
}

func (s *Scorer) culturalFit(ctx context.Context, talent, opening profile.Profile) float64 {
	rule := CulturalRules(talent, opening).Score()
	if s.cultural == nil {
		return rule
	}

	ctx, cancel := s.enhancerContext(ctx)
	defer cancel()

	model, err := s.cultural.PredictCulturalFit(ctx, talent, opening)
	if err != nil {
		s.fallback(EnhancerCultural, err)
		return rule
	}
	return BlendCultural(rule, model)
}

func (s *Scorer) multiplier(ctx context.Context, talent, opening profile.Profile, subs SubScores) float64 {
	if s.success == nil {
		return RuleMultiplier(subs)
	}

	ctx, cancel := s.enhancerContext(ctx)
	defer cancel()

	p, err := s.success.PredictSuccess(ctx, talent, opening, subs)
	if err != nil {
		s.fallback(EnhancerSuccess, err)
		return RuleMultiplier(subs)
	}
	return ModelMultiplier(p)
}

func (s *Scorer) enhancerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.enhancerTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.enhancerTimeout)
}

func (s *Scorer) fallback(enhancer string, err error) {
	if s.onFallback != nil {
		s.onFallback(enhancer, err)
	}
}

type timedEmbedder struct {
	inner   Embedder
	timeout time.Duration
}

func (t timedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.inner.Embed(ctx, texts)
}
