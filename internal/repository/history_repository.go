package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skillsync/internal/database"
	"skillsync/internal/domain/profile"
)

const defaultHistoryLimit = 500

type HistoryRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]profile.Interaction, error)
	Insert(ctx context.Context, it profile.Interaction) (profile.Interaction, error)
}

type PostgresHistoryRepository struct {
	db    database.DB
	limit int
	now   func() time.Time
}

func NewPostgresHistoryRepository(db database.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db, limit: defaultHistoryLimit, now: time.Now}
}

// ListByUser returns the user's most recent interactions, newest first.
func (r *PostgresHistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]profile.Interaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, candidate_id, feedback, industry, company_id, skills, remote_allowed, score, created_at
		 FROM match_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, r.limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profile.Interaction, 0)
	for rows.Next() {
		var (
			it        profile.Interaction
			feedback  string
			companyID uuid.NullUUID
			skills    []byte
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.CandidateID, &feedback, &it.Industry, &companyID, &skills, &it.RemoteAllowed, &it.Score, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Feedback = profile.Feedback(feedback)
		if companyID.Valid {
			it.CompanyID = companyID.UUID
		}
		if err := decodeJSON(skills, &it.Skills); err != nil {
			return nil, fmt.Errorf("decode skills for interaction %s: %w", it.ID, err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores an interaction, assigning an id and timestamp when they are unset.
func (r *PostgresHistoryRepository) Insert(ctx context.Context, it profile.Interaction) (profile.Interaction, error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = r.now().UTC()
	}
	skills := it.Skills
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return profile.Interaction{}, err
	}
	companyID := uuid.NullUUID{UUID: it.CompanyID, Valid: it.CompanyID != uuid.Nil}

	_, err = r.db.Exec(ctx,
		`INSERT INTO match_history (id, user_id, candidate_id, feedback, industry, company_id, skills, remote_allowed, score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		it.ID, it.UserID, it.CandidateID, string(it.Feedback), it.Industry, companyID, b, it.RemoteAllowed, it.Score, it.CreatedAt,
	)
	if err != nil {
		return profile.Interaction{}, err
	}
	return it, nil
}
