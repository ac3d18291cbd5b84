package matching

const (
	minMultiplier = 0.80
	maxMultiplier = 1.15
)

// RuleMultiplier derives the success multiplier from the sub-scores alone.
func RuleMultiplier(s SubScores) float64 {
	m := 1.0
	if s.Skill >= 80 {
		m += 0.05
	}
	if s.Experience >= 85 {
		m += 0.05
	}
	if s.Cultural >= 80 {
		m += 0.05
	}
	if s.Skill < 40 {
		m -= 0.10
	}
	if s.Experience < 50 {
		m -= 0.05
	}
	return clampFloat(m, minMultiplier, maxMultiplier)
}

// ModelMultiplier maps a connection probability to 0.75..1.25.
func ModelMultiplier(p float64) float64 {
	return 0.75 + 0.5*clampFloat(p, 0, 1)
}
