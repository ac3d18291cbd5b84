package matching

import (
	"context"
	"strings"

	"skillsync/internal/domain/profile"
)

const (
	directThreshold   = 0.85
	semanticThreshold = 0.60
	trendingThreshold = 0.80
	trendingCap       = 20.0
)

const (
	MatchKindDirect   = "direct"
	MatchKindSemantic = "semantic"
	MatchKindKeyword  = "keyword"
)

type MatchedSkill struct {
	Required   string  `json:"required"`
	Skill      string  `json:"skill"`
	Similarity float64 `json:"similarity"`
	Kind       string  `json:"kind"`
	LevelMatch int     `json:"level_match"`
}

type SkillMatch struct {
	Score    float64         `json:"score"`
	Direct   float64         `json:"direct"`
	Semantic float64         `json:"semantic"`
	Level    float64         `json:"level"`
	Trending float64         `json:"trending"`
	Matched  []MatchedSkill  `json:"matched_skills"`
	Missing  []profile.Skill `json:"missing_skills"`
}

type directResult struct {
	score   float64
	matched []MatchedSkill
	best    map[int]int // required index -> seeker index of the best direct hit
	perfect map[int]bool
}

// ScoreSkills computes the skill sub-score of seeker skills against required skills.
// The embedder may be nil, in which case the keyword heuristic stands in for the
// semantic pass. onFallback, when non-nil, is called if the embedder fails.
func ScoreSkills(ctx context.Context, seeker, required []profile.Skill, embedder Embedder, trending []TrendingSkill, onFallback func(error)) SkillMatch {
	if len(seeker) == 0 || len(required) == 0 {
		return SkillMatch{Matched: []MatchedSkill{}, Missing: append([]profile.Skill{}, required...)}
	}

	direct := directMatches(seeker, required)

	var semantic float64
	var semanticMatched map[int]MatchedSkill
	if embedder != nil {
		var err error
		semantic, semanticMatched, err = semanticMatches(ctx, seeker, required, direct.perfect, embedder)
		if err != nil {
			if onFallback != nil {
				onFallback(err)
			}
			semantic, semanticMatched = keywordMatches(seeker, required)
		}
	} else {
		semantic, semanticMatched = keywordMatches(seeker, required)
	}

	level := levelCompatibility(seeker, required, direct.best)
	bonus := trendingBonus(seeker, required, trending)

	final := direct.score*0.5 + semantic*0.3 + level*0.15 + bonus*0.05

	matched := append([]MatchedSkill{}, direct.matched...)
	missing := make([]profile.Skill, 0)
	for i, r := range required {
		if _, ok := direct.best[i]; ok {
			continue
		}
		if m, ok := semanticMatched[i]; ok {
			matched = append(matched, m)
			continue
		}
		missing = append(missing, r)
	}

	return SkillMatch{
		Score:    clampFloat(final, 0, 100),
		Direct:   direct.score,
		Semantic: semantic,
		Level:    level,
		Trending: bonus,
		Matched:  matched,
		Missing:  missing,
	}
}

func directMatches(seeker, required []profile.Skill) directResult {
	res := directResult{best: map[int]int{}, perfect: map[int]bool{}}

	var total float64
	for ri, r := range required {
		bestSim := 0.0
		for si, s := range seeker {
			sim := StringSimilarity(r.Name, s.Name)
			if sim < directThreshold {
				continue
			}
			res.matched = append(res.matched, MatchedSkill{
				Required:   r.Name,
				Skill:      s.Name,
				Similarity: sim,
				Kind:       MatchKindDirect,
				LevelMatch: levelScore(s.Level, r.Level),
			})
			total += sim * importance(r) * s.Proficiency
			if sim > bestSim {
				bestSim = sim
				res.best[ri] = si
			}
			if sim >= 1 {
				res.perfect[ri] = true
			}
		}
	}

	res.score = min(100, 100*total/float64(len(required)))
	return res
}

func semanticMatches(ctx context.Context, seeker, required []profile.Skill, perfect map[int]bool, embedder Embedder) (float64, map[int]MatchedSkill, error) {
	pending := make([]int, 0, len(required))
	for i := range required {
		if !perfect[i] {
			pending = append(pending, i)
		}
	}

	var total float64
	for i := range required {
		if perfect[i] {
			total += importance(required[i])
		}
	}

	matched := map[int]MatchedSkill{}
	if len(pending) == 0 {
		return min(100, 100*total/float64(len(required))), matched, nil
	}

	texts := make([]string, 0, len(seeker)+len(pending))
	for _, s := range seeker {
		texts = append(texts, s.Name)
	}
	for _, i := range pending {
		texts = append(texts, required[i].Name)
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, nil, err
	}
	if len(vectors) != len(texts) {
		return 0, nil, errEmbeddingCount
	}

	seekerVecs := vectors[:len(seeker)]
	for k, ri := range pending {
		reqVec := vectors[len(seeker)+k]

		bestSim := 0.0
		bestIdx := -1
		for si, sv := range seekerVecs {
			sim := CosineSimilarity(sv, reqVec)
			if sim >= semanticThreshold && sim > bestSim {
				bestSim = sim
				bestIdx = si
			}
		}
		if bestIdx < 0 {
			continue
		}
		matched[ri] = MatchedSkill{
			Required:   required[ri].Name,
			Skill:      seeker[bestIdx].Name,
			Similarity: bestSim,
			Kind:       MatchKindSemantic,
			LevelMatch: levelScore(seeker[bestIdx].Level, required[ri].Level),
		}
		total += bestSim * importance(required[ri])
	}

	return min(100, 100*total/float64(len(required))), matched, nil
}

func keywordMatches(seeker, required []profile.Skill) (float64, map[int]MatchedSkill) {
	matched := map[int]MatchedSkill{}
	var total float64
	for ri, r := range required {
		for _, s := range seeker {
			if !containsEither(r.Name, s.Name) {
				continue
			}
			matched[ri] = MatchedSkill{
				Required:   r.Name,
				Skill:      s.Name,
				Similarity: 1,
				Kind:       MatchKindKeyword,
				LevelMatch: levelScore(s.Level, r.Level),
			}
			total += importance(r)
			break
		}
	}
	return min(100, 100*total/float64(len(required))), matched
}

func levelCompatibility(seeker, required []profile.Skill, best map[int]int) float64 {
	if len(best) == 0 {
		return 0
	}
	var sum float64
	for ri, si := range best {
		sum += float64(levelScore(seeker[si].Level, required[ri].Level))
	}
	return sum / float64(len(best))
}

func levelScore(user, required profile.Level) int {
	diff := user.Rank() - required.Rank()
	if diff < 0 {
		diff = -diff
	}
	return max(0, 100-20*diff)
}

func trendingBonus(seeker, required []profile.Skill, trending []TrendingSkill) float64 {
	if len(trending) == 0 {
		return 0
	}
	var bonus float64
	for _, s := range seeker {
		var hit *TrendingSkill
		for i := range trending {
			if StringSimilarity(trending[i].Name, s.Name) >= trendingThreshold {
				hit = &trending[i]
				break
			}
		}
		if hit == nil {
			continue
		}
		for _, r := range required {
			if StringSimilarity(r.Name, s.Name) >= trendingThreshold {
				bonus += hit.GrowthRate * 0.1
				break
			}
		}
	}
	return clampFloat(bonus, 0, trendingCap)
}

func importance(s profile.Skill) float64 {
	if s.Importance <= 0 {
		return 1
	}
	return s.Importance
}

func skillNames(skills []profile.Skill) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if n := strings.TrimSpace(s.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}
