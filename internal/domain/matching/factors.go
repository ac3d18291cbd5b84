package matching

import (
	"math"
	"strings"
	"time"

	"skillsync/internal/domain/profile"
)

// ExperienceScore rates talent experience against the opening's minimum and preferred
// years.
func ExperienceScore(talent, opening profile.Profile) float64 {
	exp := math.Max(0, talent.ExperienceYears)
	req := math.Max(0, opening.MinExperience)
	pref := opening.PreferredExperience
	if pref <= 0 {
		pref = req + 2
	}

	switch {
	case exp >= pref:
		return 100
	case exp >= req:
		if pref <= req {
			return 100
		}
		return 70 + 30*(exp-req)/(pref-req)
	case exp >= 0.7*req:
		return 70 * exp / req
	default:
		return math.Max(20, 50*exp/req)
	}
}

func LocationScore(talent, opening profile.Profile) float64 {
	if talent.RemotePreference == profile.RemoteOnly && opening.RemoteAllowed {
		return 100
	}
	if wantsRemote(talent) && wantsRemote(opening) {
		return 100
	}

	if talent.RemotePreference == profile.OfficeOnly && !opening.RemoteAllowed {
		if opening.Location == (profile.Location{}) {
			return 50
		}
		return geographicTier(talent.Location, opening.Location)
	}

	if talent.Location.City != "" && opening.Location.City != "" {
		return geographicTier(talent.Location, opening.Location)
	}
	return 60
}

func wantsRemote(p profile.Profile) bool {
	return p.RemoteAllowed || p.RemotePreference == profile.RemoteOnly
}

func geographicTier(a, b profile.Location) float64 {
	switch {
	case sameField(a.City, b.City):
		return 100
	case sameField(a.State, b.State):
		return 80
	case sameField(a.Country, b.Country):
		return 60
	default:
		return 30
	}
}

func sameField(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func SalaryScore(talent, opening profile.Profile) float64 {
	expected := talent.SalaryExpectation
	r := opening.SalaryRange
	if expected <= 0 || (r.Min <= 0 && r.Max <= 0) {
		return 70
	}

	lo := math.Max(0, r.Min)
	hi := r.Max
	if hi <= 0 {
		hi = lo * 1.5
	}

	switch {
	case expected >= lo && expected <= hi:
		return 100
	case expected < lo:
		return 90
	default:
		return math.Max(30, 100-100*(expected-hi)/hi)
	}
}

// AvailabilityScore compares the talent's start availability with the opening's start
// date. Missing dates are read as now.
func AvailabilityScore(talent, opening profile.Profile, now time.Time) float64 {
	from := now
	if talent.AvailableFrom != nil {
		from = *talent.AvailableFrom
	}
	start := now
	if opening.StartDate != nil {
		start = *opening.StartDate
	}

	days := math.Abs(from.Sub(start).Hours() / 24)
	switch {
	case days <= 7:
		return 100
	case days <= 30:
		return 85
	case days <= 60:
		return 70
	default:
		return math.Max(40, 100-days)
	}
}
