package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"skillsync/internal/domain/profile"
)

const (
	defaultProficiency  = 0.8
	extractedProficiency = 0.7
)

// ExtractSkills collects the declared skills of a profile plus the catalog keywords found
// in its description, canonicalized and deduplicated.
func ExtractSkills(p profile.Profile, catalog *Catalog) []profile.Skill {
	return extract(p.Skills, p.Description, catalog)
}

// ExtractRequiredSkills is ExtractSkills for the opening side: the required skills when
// present, the declared skills otherwise.
func ExtractRequiredSkills(p profile.Profile, catalog *Catalog) []profile.Skill {
	src := p.RequiredSkills
	if len(src) == 0 {
		src = p.Skills
	}
	return extract(src, p.Description, catalog)
}

func extract(declared []profile.Skill, description string, catalog *Catalog) []profile.Skill {
	skills := make([]profile.Skill, 0, len(declared))
	for _, s := range declared {
		s = withDefaults(s)
		if s.Name == "" {
			continue
		}
		s.Name = catalog.Canonical(s.Name)
		skills = append(skills, s)
	}

	if strings.TrimSpace(description) != "" {
		skills = append(skills, skillsFromText(description, catalog)...)
	}

	return DeduplicateSkills(skills)
}

func withDefaults(s profile.Skill) profile.Skill {
	s.Name = strings.TrimSpace(s.Name)
	if s.Level == "" {
		s.Level = profile.LevelIntermediate
	}
	if s.Proficiency <= 0 {
		s.Proficiency = defaultProficiency
	}
	if s.Proficiency > 1 {
		s.Proficiency = 1
	}
	if s.Importance <= 0 {
		s.Importance = 1
	}
	return s
}

func skillsFromText(text string, catalog *Catalog) []profile.Skill {
	lower := strings.ToLower(text)
	keywords := catalog.Keywords()
	if catalog == nil {
		keywords = defaultKeywords
	}

	out := make([]profile.Skill, 0)
	for _, kw := range keywords {
		if !containsTerm(lower, kw) {
			continue
		}
		out = append(out, profile.Skill{
			Name:        catalog.Canonical(kw),
			Level:       profile.LevelIntermediate,
			Proficiency: extractedProficiency,
			Importance:  1,
		})
	}
	return out
}

// containsTerm reports whether term occurs in text bounded by non-alphanumeric runes.
func containsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	from := 0
	for from <= len(text)-len(term) {
		idx := strings.Index(text[from:], term)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(term)

		okBefore := start == 0
		if !okBefore {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			okBefore = !isWordRune(r)
		}
		okAfter := end == len(text)
		if !okAfter {
			r, _ := utf8.DecodeRuneInString(text[end:])
			okAfter = !isWordRune(r)
		}
		if okBefore && okAfter {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// DeduplicateSkills keeps one skill per lowercase name; on collision the highest
// proficiency wins. First-seen order is preserved.
func DeduplicateSkills(skills []profile.Skill) []profile.Skill {
	idx := make(map[string]int, len(skills))
	out := make([]profile.Skill, 0, len(skills))
	for _, s := range skills {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key == "" {
			continue
		}
		if i, ok := idx[key]; ok {
			if out[i].Proficiency < s.Proficiency {
				out[i] = s
			}
			continue
		}
		idx[key] = len(out)
		out = append(out, s)
	}
	return out
}
