package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillsync/internal/domain/profile"
)

const (
	DefaultPerIndustry    = 5
	DefaultDiversityCap   = 20
	MinHistoryForLearning = 5
	defaultIndustry       = "other"
)

type MatchResult struct {
	ID              uuid.UUID           `json:"id"`
	Profile         profile.Profile     `json:"profile"`
	MatchScore      MatchScore          `json:"match_score"`
	Compatibility   CompatibilityReport `json:"compatibility"`
	Recommendations []string            `json:"recommendations"`
}

// SortResults orders by overall score descending, ties by candidate id.
func SortResults(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchScore.Overall != b.MatchScore.Overall {
			return a.MatchScore.Overall > b.MatchScore.Overall
		}
		return a.ID.String() < b.ID.String()
	})
}

func resortByOverall(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore.Overall > results[j].MatchScore.Overall
	})
}

func FilterMinScore(results []MatchResult, minScore int) []MatchResult {
	out := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.MatchScore.Overall >= minScore {
			out = append(out, r)
		}
	}
	return out
}

func industryKey(p profile.Profile) string {
	ind := strings.ToLower(strings.TrimSpace(p.Industry))
	if ind == "" {
		return defaultIndustry
	}
	return ind
}

// ApplyDiversity walks the best-first list admitting at most perIndustry results per
// industry and one per company, up to limit. Excluded results then top the list up to
// limit in their original order.
func ApplyDiversity(results []MatchResult, perIndustry, limit int) []MatchResult {
	if perIndustry <= 0 {
		perIndustry = DefaultPerIndustry
	}
	if limit <= 0 {
		limit = DefaultDiversityCap
	}

	perInd := map[string]int{}
	companies := map[uuid.UUID]struct{}{}
	out := make([]MatchResult, 0, min(limit, len(results)))
	excluded := make([]MatchResult, 0)

	for _, r := range results {
		if len(out) >= limit {
			break
		}
		ind := industryKey(r.Profile)
		company := r.Profile.CompanyKey()
		if _, dup := companies[company]; dup || perInd[ind] >= perIndustry {
			excluded = append(excluded, r)
			continue
		}
		perInd[ind]++
		companies[company] = struct{}{}
		out = append(out, r)
	}

	for _, r := range excluded {
		if len(out) >= limit {
			break
		}
		out = append(out, r)
	}
	return out
}

func recencyMultiplier(posted *time.Time, now time.Time) float64 {
	if posted == nil {
		return 1.10
	}
	days := now.Sub(*posted).Hours() / 24
	switch {
	case days <= 3:
		return 1.10
	case days <= 7:
		return 1.05
	case days > 30:
		return 0.95
	default:
		return 1.0
	}
}

// ApplyRecencyBoost scales each overall score by the age of the posting and re-sorts.
func ApplyRecencyBoost(results []MatchResult, now time.Time) []MatchResult {
	out := make([]MatchResult, len(results))
	copy(out, results)
	for i := range out {
		m := recencyMultiplier(out[i].Profile.PostedDate, now)
		out[i].MatchScore.Overall = min(100, int(math.Round(float64(out[i].MatchScore.Overall)*m)))
	}
	resortByOverall(out)
	return out
}

type affinity struct {
	sum   float64
	count int
}

func (a affinity) value() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Preferences are per-attribute affinities in -1..1 learned from feedback history.
type Preferences struct {
	Industries map[string]float64 `json:"industries"`
	Skills     map[string]float64 `json:"skills"`
	Remote     float64            `json:"remote"`
	OnSite     float64            `json:"on_site"`
}

func AnalyzePreferences(history []profile.Interaction) Preferences {
	industries := map[string]*affinity{}
	skills := map[string]*affinity{}
	var remote, onSite affinity

	bump := func(m map[string]*affinity, key string, sign float64) {
		a, ok := m[key]
		if !ok {
			a = &affinity{}
			m[key] = a
		}
		a.sum += sign
		a.count++
	}

	for _, h := range history {
		sign := h.Feedback.Sign()
		if sign == 0 {
			continue
		}
		ind := strings.ToLower(strings.TrimSpace(h.Industry))
		if ind == "" {
			ind = defaultIndustry
		}
		bump(industries, ind, sign)
		seen := map[string]struct{}{}
		for _, sk := range h.Skills {
			key := strings.ToLower(strings.TrimSpace(sk))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			bump(skills, key, sign)
		}
		r := &onSite
		if h.RemoteAllowed {
			r = &remote
		}
		r.sum += sign
		r.count++
	}

	p := Preferences{
		Industries: make(map[string]float64, len(industries)),
		Skills:     make(map[string]float64, len(skills)),
		Remote:     remote.value(),
		OnSite:     onSite.value(),
	}
	for k, a := range industries {
		p.Industries[k] = a.value()
	}
	for k, a := range skills {
		p.Skills[k] = a.value()
	}
	return p
}

// Alignment scores how well a candidate fits the learned preferences, 0..100 with 50
// as neutral.
func (p Preferences) Alignment(candidate profile.Profile) float64 {
	industry := p.Industries[industryKey(candidate)]

	var skillSum float64
	var skillHits int
	for _, name := range candidate.SkillNames() {
		if v, ok := p.Skills[strings.ToLower(name)]; ok {
			skillSum += v
			skillHits++
		}
	}
	skill := 0.0
	if skillHits > 0 {
		skill = skillSum / float64(skillHits)
	}

	remote := p.OnSite
	if candidate.RemoteAllowed {
		remote = p.Remote
	}

	return clampFloat(50+30*industry+15*skill+5*remote, 0, 100)
}

// ApplyPreferenceLearning blends learned preference alignment into each overall score.
// With fewer than MinHistoryForLearning interactions the input is returned unchanged.
func ApplyPreferenceLearning(results []MatchResult, history []profile.Interaction) []MatchResult {
	if len(history) < MinHistoryForLearning {
		return results
	}
	prefs := AnalyzePreferences(history)

	out := make([]MatchResult, len(results))
	copy(out, results)
	for i := range out {
		raw := prefs.Alignment(out[i].Profile)
		alignment := int(math.Round(raw))
		out[i].MatchScore.PreferenceAlignment = &alignment
		blended := 0.8*float64(out[i].MatchScore.Overall) + 0.2*raw
		out[i].MatchScore.Overall = clampInt(int(math.Round(blended)), 0, 100)
	}
	resortByOverall(out)
	return out
}
