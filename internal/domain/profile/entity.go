package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleStartup Role = "startup"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleStartup:
		return RoleStartup, true
	default:
		return "", false
	}
}

func (r Role) Opposite() Role {
	if r == RoleStartup {
		return RoleStudent
	}
	return RoleStartup
}

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

// Rank maps a level to its ordinal. Unknown levels rank as beginner.
func (l Level) Rank() int {
	switch Level(strings.ToLower(string(l))) {
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	case LevelExpert:
		return 4
	default:
		return 1
	}
}

const (
	RemoteOnly = "remote-only"
	OfficeOnly = "office-only"
	Flexible   = "flexible"
)

type Skill struct {
	Name            string  `json:"name"`
	Level           Level   `json:"level"`
	Proficiency     float64 `json:"proficiency"`
	Importance      float64 `json:"importance,omitempty"`
	ExperienceYears float64 `json:"experience_years,omitempty"`
}

type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type SalaryRange struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

type Profile struct {
	ID          uuid.UUID `json:"id"`
	Role        Role      `json:"role"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`

	Skills         []Skill `json:"skills"`
	RequiredSkills []Skill `json:"required_skills,omitempty"`

	ExperienceYears     float64 `json:"experience_years"`
	MinExperience       float64 `json:"min_experience,omitempty"`
	PreferredExperience float64 `json:"preferred_experience,omitempty"`

	Location         Location `json:"location"`
	RemotePreference string   `json:"remote_preference,omitempty"`
	RemoteAllowed    bool     `json:"remote_allowed"`

	WorkStyle          string   `json:"work_style,omitempty"`
	CommunicationStyle string   `json:"communication_style,omitempty"`
	Values             []string `json:"values,omitempty"`
	TeamworkStyle      string   `json:"teamwork_style,omitempty"`
	GrowthMindset      string   `json:"growth_mindset,omitempty"`

	SalaryExpectation float64     `json:"salary_expectation,omitempty"`
	SalaryRange       SalaryRange `json:"salary_range"`

	AvailableFrom *time.Time `json:"available_from,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	PostedDate    *time.Time `json:"posted_date,omitempty"`

	Industry  string    `json:"industry,omitempty"`
	CompanyID uuid.UUID `json:"company_id,omitempty"`
}

// CompanyKey identifies the company a profile belongs to, falling back to the profile id.
func (p Profile) CompanyKey() uuid.UUID {
	if p.CompanyID != uuid.Nil {
		return p.CompanyID
	}
	return p.ID
}

func (p Profile) SkillNames() []string {
	src := p.RequiredSkills
	if len(src) == 0 {
		src = p.Skills
	}
	out := make([]string, 0, len(src))
	for _, s := range src {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}
