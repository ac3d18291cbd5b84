package matching

import (
	"context"
	"errors"

	"skillsync/internal/domain/profile"
)

// Embedder turns skill names into fixed-length vectors. Implementations must return one
// vector per input text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type TrendingSkill struct {
	Name       string  `json:"name"`
	GrowthRate float64 `json:"growthRate"`
}

type TrendingSource interface {
	TrendingSkills(ctx context.Context) ([]TrendingSkill, error)
}

// CulturalPredictor returns a 0..100 cultural fit estimate for a pair of profiles.
type CulturalPredictor interface {
	PredictCulturalFit(ctx context.Context, talent, opening profile.Profile) (float64, error)
}

// SuccessModel returns the probability (0..1) that a match leads to a connection.
type SuccessModel interface {
	PredictSuccess(ctx context.Context, talent, opening profile.Profile, scores SubScores) (float64, error)
}

var errEmbeddingCount = errors.New("embedder returned a different number of vectors than texts")
