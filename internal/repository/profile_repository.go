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

type ProfileRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (profile.Profile, error)
	ListCandidatesByRole(ctx context.Context, role profile.Role) ([]profile.Profile, error)
}

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

const profileColumns = `id, role, name, description, skills, required_skills,
	experience_years, min_experience, preferred_experience,
	city, state, country, remote_preference, remote_allowed,
	work_style, communication_style, "values", teamwork_style, growth_mindset,
	salary_expectation, salary_min, salary_max,
	available_from, start_date, posted_date, industry, company_id`

func (r *PostgresProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (profile.Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if isNoRows(err) {
			return profile.Profile{}, ErrProfileNotFound
		}
		return profile.Profile{}, err
	}
	return p, nil
}

// ListCandidatesByRole returns every profile with the given role, oldest first.
func (r *PostgresProfileRepository) ListCandidatesByRole(ctx context.Context, role profile.Role) ([]profile.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE role = $1
		 ORDER BY created_at ASC`,
		string(role),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profile.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProfile(row scanner) (profile.Profile, error) {
	var (
		p                            profile.Profile
		role                         string
		skills, required, values     []byte
		availableFrom, start, posted *time.Time
		companyID                    uuid.NullUUID
	)
	err := row.Scan(
		&p.ID, &role, &p.Name, &p.Description, &skills, &required,
		&p.ExperienceYears, &p.MinExperience, &p.PreferredExperience,
		&p.Location.City, &p.Location.State, &p.Location.Country, &p.RemotePreference, &p.RemoteAllowed,
		&p.WorkStyle, &p.CommunicationStyle, &values, &p.TeamworkStyle, &p.GrowthMindset,
		&p.SalaryExpectation, &p.SalaryRange.Min, &p.SalaryRange.Max,
		&availableFrom, &start, &posted, &p.Industry, &companyID,
	)
	if err != nil {
		return profile.Profile{}, err
	}

	p.Role = profile.Role(role)
	p.AvailableFrom, p.StartDate, p.PostedDate = availableFrom, start, posted
	if companyID.Valid {
		p.CompanyID = companyID.UUID
	}
	if err := decodeJSON(skills, &p.Skills); err != nil {
		return profile.Profile{}, fmt.Errorf("decode skills for profile %s: %w", p.ID, err)
	}
	if err := decodeJSON(required, &p.RequiredSkills); err != nil {
		return profile.Profile{}, fmt.Errorf("decode required_skills for profile %s: %w", p.ID, err)
	}
	if err := decodeJSON(values, &p.Values); err != nil {
		return profile.Profile{}, fmt.Errorf("decode values for profile %s: %w", p.ID, err)
	}
	return p, nil
}

func decodeJSON(b []byte, out any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
