package repository

import (
	"context"
	"fmt"

	"skillsync/internal/database"
	"skillsync/internal/domain/matching"
)

type SkillCatalogRepository interface {
	ListCatalogEntries(ctx context.Context) ([]matching.CatalogEntry, error)
}

type PostgresSkillCatalogRepository struct {
	db database.DB
}

func NewPostgresSkillCatalogRepository(db database.DB) *PostgresSkillCatalogRepository {
	return &PostgresSkillCatalogRepository{db: db}
}

func (r *PostgresSkillCatalogRepository) ListCatalogEntries(ctx context.Context) ([]matching.CatalogEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT name, category, synonyms, trending, demand_score FROM skills ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]matching.CatalogEntry, 0)
	for rows.Next() {
		var (
			e        matching.CatalogEntry
			synonyms []byte
		)
		if err := rows.Scan(&e.Name, &e.Category, &synonyms, &e.Trending, &e.DemandScore); err != nil {
			return nil, err
		}
		if err := decodeJSON(synonyms, &e.Synonyms); err != nil {
			return nil, fmt.Errorf("decode synonyms for skill %s: %w", e.Name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCatalog builds the matching catalog from the skills table. An empty table yields
// the built-in taxonomy.
func LoadCatalog(ctx context.Context, repo SkillCatalogRepository) (*matching.Catalog, error) {
	entries, err := repo.ListCatalogEntries(ctx)
	if err != nil {
		return matching.DefaultCatalog(), err
	}
	if len(entries) == 0 {
		return matching.DefaultCatalog(), nil
	}
	return matching.NewCatalog(entries), nil
}
