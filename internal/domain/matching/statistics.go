package matching

import (
	"math"
	"sort"
	"strings"

	"skillsync/internal/domain/profile"
)

const topSkillsCount = 5

type SkillCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Statistics struct {
	TotalMatches int          `json:"total_matches"`
	AverageScore float64      `json:"average_score"`
	TopSkills    []SkillCount `json:"top_skills"`
	SuccessRate  float64      `json:"success_rate"`
}

// ComputeStatistics summarizes a user's match history. The success rate is accepted
// over accepted plus rejected, 0 when neither occurs.
func ComputeStatistics(history []profile.Interaction) Statistics {
	stats := Statistics{TotalMatches: len(history), TopSkills: []SkillCount{}}
	if len(history) == 0 {
		return stats
	}

	var scoreSum float64
	var accepted, rejected int
	counts := map[string]*SkillCount{}
	for _, h := range history {
		scoreSum += float64(h.Score)
		switch h.Feedback {
		case profile.FeedbackAccepted:
			accepted++
		case profile.FeedbackRejected:
			rejected++
		}
		for _, sk := range h.Skills {
			key := strings.ToLower(strings.TrimSpace(sk))
			if key == "" {
				continue
			}
			c, ok := counts[key]
			if !ok {
				c = &SkillCount{Name: strings.TrimSpace(sk)}
				counts[key] = c
			}
			c.Count++
		}
	}

	stats.AverageScore = math.Round(scoreSum/float64(len(history))*100) / 100
	if accepted+rejected > 0 {
		stats.SuccessRate = float64(accepted) / float64(accepted+rejected)
	}

	all := make([]SkillCount, 0, len(counts))
	for _, c := range counts {
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	if len(all) > topSkillsCount {
		all = all[:topSkillsCount]
	}
	stats.TopSkills = all
	return stats
}
