package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"skillsync/internal/domain/matching"
	"skillsync/internal/domain/profile"
)

// TextGenerator is the prompt-in, text-out slice of Client used by the predictors.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// CulturalPredictor asks the model for a 0..100 cultural fit estimate.
type CulturalPredictor struct {
	gen TextGenerator
}

func NewCulturalPredictor(gen TextGenerator) *CulturalPredictor {
	return &CulturalPredictor{gen: gen}
}

func (p *CulturalPredictor) PredictCulturalFit(ctx context.Context, talent, opening profile.Profile) (float64, error) {
	prompt := buildCulturalPrompt(talent, opening)
	raw, err := p.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return 0, err
	}
	score, err := parseNumber(raw, "score")
	if err != nil {
		return 0, err
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("cultural score %.2f out of range", score)
	}
	return score, nil
}

// SuccessModel asks the model for the probability that a match turns into a connection.
type SuccessModel struct {
	gen TextGenerator
}

func NewSuccessModel(gen TextGenerator) *SuccessModel {
	return &SuccessModel{gen: gen}
}

func (m *SuccessModel) PredictSuccess(ctx context.Context, talent, opening profile.Profile, scores matching.SubScores) (float64, error) {
	raw, err := m.gen.GenerateContent(ctx, buildSuccessPrompt(talent, opening, scores))
	if err != nil {
		return 0, err
	}
	p, err := parseNumber(raw, "probability")
	if err != nil {
		return 0, err
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("success probability %.3f out of range", p)
	}
	return p, nil
}

func parseNumber(raw, key string) (float64, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return 0, fmt.Errorf("decode model response: %w", err)
	}
	v, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("model response has no %q field", key)
	}
	f := coerceFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("model response %q is not a number", key)
	}
	return f, nil
}

func buildCulturalPrompt(talent, opening profile.Profile) string {
	var b strings.Builder
	b.WriteString("You rate how well a candidate's working culture fits a team.\n")
	b.WriteString("Reply with JSON only: {\"score\": <number 0-100>}.\n\n")
	writeCulture(&b, "Candidate", talent)
	writeCulture(&b, "Team", opening)
	return b.String()
}

func writeCulture(b *strings.Builder, label string, p profile.Profile) {
	fmt.Fprintf(b, "%s:\n", label)
	fmt.Fprintf(b, "- work style: %s\n", orUnknown(p.WorkStyle))
	fmt.Fprintf(b, "- communication: %s\n", orUnknown(p.CommunicationStyle))
	fmt.Fprintf(b, "- teamwork: %s\n", orUnknown(p.TeamworkStyle))
	fmt.Fprintf(b, "- growth mindset: %s\n", orUnknown(p.GrowthMindset))
	fmt.Fprintf(b, "- values: %s\n\n", orUnknown(strings.Join(p.Values, ", ")))
}

func buildSuccessPrompt(talent, opening profile.Profile, s matching.SubScores) string {
	var b strings.Builder
	b.WriteString("Estimate the probability that this candidate and opening end up working together.\n")
	b.WriteString("Reply with JSON only: {\"probability\": <number 0-1>}.\n\n")
	fmt.Fprintf(&b, "Candidate skills: %s\n", orUnknown(strings.Join(talent.SkillNames(), ", ")))
	fmt.Fprintf(&b, "Opening requires: %s\n", orUnknown(strings.Join(opening.SkillNames(), ", ")))
	fmt.Fprintf(&b, "Industry: %s\n", orUnknown(opening.Industry))
	fmt.Fprintf(&b, "Scores (0-100): skill %.0f, experience %.0f, culture %.0f, location %.0f, salary %.0f, availability %.0f\n",
		s.Skill, s.Experience, s.Cultural, s.Location, s.Salary, s.Availability)
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
