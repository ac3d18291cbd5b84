package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/domain/profile"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func skill(name string, level profile.Level, proficiency float64) profile.Skill {
	return profile.Skill{Name: name, Level: level, Proficiency: proficiency, Importance: 1}
}

func TestScoreSkills_EmptySideScoresZero(t *testing.T) {
	react := []profile.Skill{skill("React", profile.LevelAdvanced, 0.9)}

	assert.Zero(t, ScoreSkills(context.Background(), nil, react, nil, nil, nil).Score)
	assert.Zero(t, ScoreSkills(context.Background(), react, nil, nil, nil, nil).Score)

	res := ScoreSkills(context.Background(), nil, react, nil, nil, nil)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "React", res.Missing[0].Name)
}

func TestScoreSkills_IdenticalSkillsAtSameLevel(t *testing.T) {
	have := []profile.Skill{skill("React", profile.LevelAdvanced, 0.9)}
	want := []profile.Skill{skill("React", profile.LevelAdvanced, 0.8)}

	res := ScoreSkills(context.Background(), have, want, nil, nil, nil)

	assert.InDelta(t, 100, res.Level, 1e-9)
	assert.InDelta(t, 90, res.Direct, 1e-9)
	assert.InDelta(t, 100, res.Semantic, 1e-9)
	assert.InDelta(t, 90, res.Score, 1e-9)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, MatchKindDirect, res.Matched[0].Kind)
	assert.Empty(t, res.Missing)
}

func TestScoreSkills_LevelGapLowersLevelScore(t *testing.T) {
	have := []profile.Skill{skill("Python", profile.LevelBeginner, 1)}
	want := []profile.Skill{skill("Python", profile.LevelExpert, 1)}

	res := ScoreSkills(context.Background(), have, want, nil, nil, nil)
	assert.InDelta(t, 40, res.Level, 1e-9)
}

func TestScoreSkills_SemanticMatchFromEmbedder(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"Vue.js": {1, 0, 0},
		"React":  {0.9, 0.1, 0},
	}}
	have := []profile.Skill{skill("Vue.js", profile.LevelIntermediate, 0.8)}
	want := []profile.Skill{skill("React", profile.LevelIntermediate, 0.8)}

	res := ScoreSkills(context.Background(), have, want, emb, nil, nil)

	assert.Equal(t, 1, emb.calls)
	assert.Zero(t, res.Direct)
	assert.Greater(t, res.Semantic, 90.0)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, MatchKindSemantic, res.Matched[0].Kind)
	assert.Empty(t, res.Missing)
}

func TestScoreSkills_PerfectLexicalHitsSkipEmbedding(t *testing.T) {
	emb := &fakeEmbedder{}
	have := []profile.Skill{skill("Go", profile.LevelAdvanced, 1)}
	want := []profile.Skill{skill("Go", profile.LevelAdvanced, 1)}

	res := ScoreSkills(context.Background(), have, want, emb, nil, nil)

	assert.Zero(t, emb.calls)
	assert.InDelta(t, 100, res.Semantic, 1e-9)
}

func TestScoreSkills_EmbedderErrorFallsBackToKeywords(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("quota exceeded")}
	have := []profile.Skill{skill("React Native", profile.LevelIntermediate, 0.8)}
	want := []profile.Skill{skill("React", profile.LevelIntermediate, 0.8)}

	var reported error
	res := ScoreSkills(context.Background(), have, want, emb, nil, func(err error) { reported = err })

	require.Error(t, reported)
	assert.InDelta(t, 100, res.Semantic, 1e-9)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, MatchKindKeyword, res.Matched[0].Kind)
}

func TestScoreSkills_TrendingBonusIsCapped(t *testing.T) {
	have := []profile.Skill{skill("React", profile.LevelAdvanced, 1)}
	want := []profile.Skill{skill("React", profile.LevelAdvanced, 1)}

	res := ScoreSkills(context.Background(), have, want, nil, []TrendingSkill{{Name: "react", GrowthRate: 50}}, nil)
	assert.InDelta(t, 5, res.Trending, 1e-9)

	res = ScoreSkills(context.Background(), have, want, nil, []TrendingSkill{{Name: "React", GrowthRate: 900}}, nil)
	assert.InDelta(t, 20, res.Trending, 1e-9)
	assert.LessOrEqual(t, res.Score, 100.0)
}

func TestStringSimilarity(t *testing.T) {
	assert.InDelta(t, 1, StringSimilarity("React", " react "), 1e-9)
	assert.InDelta(t, 1, StringSimilarity("", ""), 1e-9)
	assert.InDelta(t, 0.8, StringSimilarity("kafka", "kafke"), 1e-9)
	assert.Less(t, StringSimilarity("java", "javascript"), directThreshold)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
