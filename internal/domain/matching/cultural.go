package matching

import (
	"strings"

	"skillsync/internal/domain/profile"
)

const neutralCultural = 70.0

var workStyleTable = map[string]float64{
	"remote-remote":     100,
	"office-office":     100,
	"hybrid-hybrid":     100,
	"flexible-flexible": 100,
	"remote-hybrid":     85,
	"hybrid-remote":     85,
	"office-hybrid":     75,
	"hybrid-office":     75,
	"remote-flexible":   90,
	"flexible-remote":   90,
	"office-flexible":   80,
	"flexible-office":   80,
	"remote-office":     40,
	"office-remote":     40,
}

var communicationTable = map[string]float64{
	"direct-direct":               95,
	"collaborative-collaborative": 95,
	"formal-formal":               90,
	"casual-casual":               90,
	"balanced-balanced":           100,
	"direct-collaborative":        75,
	"collaborative-direct":        75,
	"formal-casual":               60,
	"casual-formal":               60,
	"balanced-direct":             85,
	"balanced-collaborative":      85,
	"balanced-formal":             80,
	"balanced-casual":             80,
}

var growthRank = map[string]int{"low": 1, "medium": 2, "high": 3}

type CulturalBreakdown struct {
	WorkStyle     float64 `json:"work_style"`
	Communication float64 `json:"communication"`
	Values        float64 `json:"values"`
	Teamwork      float64 `json:"teamwork"`
	Growth        float64 `json:"growth"`
}

// Score is the weighted rule-based cultural fit.
func (b CulturalBreakdown) Score() float64 {
	return b.WorkStyle*0.30 + b.Communication*0.25 + b.Values*0.25 + b.Teamwork*0.10 + b.Growth*0.10
}

func CulturalRules(talent, opening profile.Profile) CulturalBreakdown {
	return CulturalBreakdown{
		WorkStyle:     pairLookup(workStyleTable, talent.WorkStyle, opening.WorkStyle, "flexible", 60),
		Communication: pairLookup(communicationTable, talent.CommunicationStyle, opening.CommunicationStyle, "balanced", 70),
		Values:        valuesScore(talent.Values, opening.Values),
		Teamwork:      teamworkScore(talent.TeamworkStyle, opening.TeamworkStyle),
		Growth:        growthScore(talent.GrowthMindset, opening.GrowthMindset),
	}
}

func pairLookup(table map[string]float64, a, b, fallback string, unknown float64) float64 {
	a = normalizeStyle(a, fallback)
	b = normalizeStyle(b, fallback)
	if v, ok := table[a+"-"+b]; ok {
		return v
	}
	return unknown
}

func normalizeStyle(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}

func valuesScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return neutralCultural
	}
	common := 0
	for _, av := range a {
		for _, bv := range b {
			if StringSimilarity(av, bv) >= 0.7 {
				common++
				break
			}
		}
	}
	return min(100, 100*float64(common)/float64(max(len(a), len(b)))+20)
}

func teamworkScore(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "" || b == "":
		return neutralCultural
	case a == b:
		return 100
	case a == "mixed" || b == "mixed":
		return 85
	case (a == "independent" && b == "collaborative") || (a == "collaborative" && b == "independent"):
		return 55
	default:
		return neutralCultural
	}
}

func growthScore(a, b string) float64 {
	ra, okA := growthRank[strings.ToLower(strings.TrimSpace(a))]
	rb, okB := growthRank[strings.ToLower(strings.TrimSpace(b))]
	if !okA || !okB {
		return neutralCultural
	}
	switch diff := ra - rb; diff {
	case 0:
		return 100
	case 1, -1:
		return 75
	default:
		return 50
	}
}

// BlendCultural mixes the rule score with a model estimate clamped to 0..100.
func BlendCultural(rule, model float64) float64 {
	return 0.6*rule + 0.4*clampFloat(model, 0, 100)
}
