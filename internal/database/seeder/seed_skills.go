package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"skillsync/internal/database"
	"skillsync/internal/domain/matching"
)

// SkillsSeeder upserts the skill taxonomy. Existing rows keep their name but pick up the
// current category, synonyms and demand figures.
type SkillsSeeder struct {
	Entries []matching.CatalogEntry
}

func (SkillsSeeder) Name() string { return "skills" }

func (s SkillsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "skills", "id", "name", "category", "synonyms", "trending", "demand_score", "created_at"); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, it := range s.Entries {
		if it.Name == "" {
			continue
		}
		synonyms := it.Synonyms
		if synonyms == nil {
			synonyms = []string{}
		}
		b, err := json.Marshal(synonyms)
		if err != nil {
			return fmt.Errorf("encode synonyms for %s: %w", it.Name, err)
		}

		_, err = tx.Exec(
			ctx,
			`INSERT INTO skills (id, name, category, synonyms, trending, demand_score)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET category = EXCLUDED.category, synonyms = EXCLUDED.synonyms,
	trending = EXCLUDED.trending, demand_score = EXCLUDED.demand_score`,
			it.Name,
			it.Category,
			b,
			it.Trending,
			it.DemandScore,
		)
		if err != nil {
			return fmt.Errorf("upsert skill %s: %w", it.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
