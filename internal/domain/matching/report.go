package matching

import (
	"fmt"

	"skillsync/internal/domain/profile"
)

type CompatibilityReport struct {
	Strengths         []string `json:"strengths"`
	Concerns          []string `json:"concerns"`
	Recommendations   []string `json:"recommendations"`
	SkillGaps         []string `json:"skill_gaps"`
	MatchedSkills     []string `json:"matched_skills"`
	CulturalAlignment string   `json:"cultural_alignment"`
}

func NewMatchResult(candidate profile.Profile, score MatchScore) MatchResult {
	return MatchResult{
		ID:              candidate.ID,
		Profile:         candidate,
		MatchScore:      score,
		Compatibility:   BuildCompatibilityReport(score),
		Recommendations: Recommendations(score),
	}
}

func BuildCompatibilityReport(score MatchScore) CompatibilityReport {
	gaps := skillNames(score.Skills.Missing)

	matched := make([]string, 0, len(score.Skills.Matched))
	seen := map[string]struct{}{}
	for _, m := range score.Skills.Matched {
		if _, dup := seen[m.Required]; dup {
			continue
		}
		seen[m.Required] = struct{}{}
		matched = append(matched, m.Required)
	}

	return CompatibilityReport{
		Strengths:         strengths(score),
		Concerns:          concerns(score),
		Recommendations:   gapRecommendations(gaps, score),
		SkillGaps:         gaps,
		MatchedSkills:     matched,
		CulturalAlignment: culturalAlignment(score.CulturalFit),
	}
}

func strengths(s MatchScore) []string {
	out := make([]string, 0, 4)
	if s.SkillMatch >= 80 {
		out = append(out, "Excellent skill alignment with high technical compatibility")
	}
	if s.CulturalFit >= 80 {
		out = append(out, "Strong cultural fit with aligned work styles and values")
	}
	if s.ExperienceLevel >= 85 {
		out = append(out, "Experience level fits the role requirements")
	}
	if s.LocationPreference >= 90 {
		out = append(out, "Location and remote preferences line up")
	}
	return out
}

func concerns(s MatchScore) []string {
	out := make([]string, 0, 4)
	if s.SkillMatch < 60 {
		out = append(out, "Significant skill gaps may require additional training")
	}
	if s.CulturalFit < 60 {
		out = append(out, "Potential cultural misalignment in work style or values")
	}
	if s.ExperienceLevel < 50 {
		out = append(out, "Experience level may not meet minimum requirements")
	}
	if s.SalaryExpectation < 50 {
		out = append(out, "Substantial gap between salary expectations and offer")
	}
	return out
}

func gapRecommendations(gaps []string, s MatchScore) []string {
	out := make([]string, 0, len(gaps)+2)
	for i, g := range gaps {
		if i == 3 {
			out = append(out, fmt.Sprintf("Plus %d more required skills to cover", len(gaps)-3))
			break
		}
		out = append(out, fmt.Sprintf("Build experience with %s", g))
	}
	if s.LocationPreference < 60 {
		out = append(out, "Discuss remote or relocation options early")
	}
	if s.AvailabilityMatch < 70 {
		out = append(out, "Align on start dates before moving forward")
	}
	return out
}

func culturalAlignment(score float64) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 55:
		return "moderate"
	default:
		return "low"
	}
}

// Recommendations suggests the next step for a match based on its overall score.
func Recommendations(s MatchScore) []string {
	switch {
	case s.Overall >= 85:
		return []string{"Reach out now: this is a top match", "Prepare to discuss the role in depth"}
	case s.Overall >= 70:
		return []string{"Strong candidate worth a conversation", "Review the listed concerns before an interview"}
	case s.Overall >= 60:
		return []string{"Consider after stronger matches", "Focus the conversation on skill gaps"}
	default:
		return []string{"Low compatibility: keep for later review"}
	}
}
