package seeder

import "skillsync/internal/domain/matching"

func Defaults() []Seeder {
	return []Seeder{
		SkillsSeeder{Entries: matching.DefaultCatalogEntries()},
	}
}
