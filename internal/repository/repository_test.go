package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/database/sqldb"
	"skillsync/internal/domain/matching"
	"skillsync/internal/domain/profile"
)

var profileCols = []string{
	"id", "role", "name", "description", "skills", "required_skills",
	"experience_years", "min_experience", "preferred_experience",
	"city", "state", "country", "remote_preference", "remote_allowed",
	"work_style", "communication_style", "values", "teamwork_style", "growth_mindset",
	"salary_expectation", "salary_min", "salary_max",
	"available_from", "start_date", "posted_date", "industry", "company_id",
}

func newMock(t *testing.T) (*sqldb.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return sqldb.New(conn), mock
}

func TestProfileRepository_GetProfile(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()
	company := uuid.New()
	posted := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(
			id.String(), "startup", "Acme", "We use React", []byte(`[]`), []byte(`[{"name":"React","level":"advanced","proficiency":0.9}]`),
			0.0, 2.0, 4.0,
			"Austin", "TX", "USA", "flexible", true,
			"collaborative", "direct", []byte(`["innovation"]`), "cross-functional", "high",
			0.0, 80000.0, 120000.0,
			nil, nil, posted, "fintech", company.String(),
		))

	p, err := NewPostgresProfileRepository(db).GetProfile(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, profile.RoleStartup, p.Role)
	assert.Empty(t, p.Skills)
	require.Len(t, p.RequiredSkills, 1)
	assert.Equal(t, profile.LevelAdvanced, p.RequiredSkills[0].Level)
	assert.Equal(t, "Austin", p.Location.City)
	assert.True(t, p.RemoteAllowed)
	assert.Equal(t, []string{"innovation"}, p.Values)
	assert.InDelta(t, 120000, p.SalaryRange.Max, 1e-9)
	assert.Nil(t, p.AvailableFrom)
	require.NotNil(t, p.PostedDate)
	assert.True(t, posted.Equal(*p.PostedDate))
	assert.Equal(t, company, p.CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetProfileNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).WillReturnRows(sqlmock.NewRows(profileCols))

	_, err := NewPostgresProfileRepository(db).GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileRepository_ListCandidatesByRole(t *testing.T) {
	db, mock := newMock(t)
	a, b := uuid.New(), uuid.New()

	row := func(id uuid.UUID, name string) []driver.Value {
		return []driver.Value{
			id.String(), "student", name, "", []byte(`[{"name":"Go"}]`), nil,
			1.5, 0.0, 0.0,
			"", "", "", "remote-only", false,
			"", "", nil, "", "",
			50000.0, 0.0, 0.0,
			nil, nil, nil, "", nil,
		}
	}
	rows := sqlmock.NewRows(profileCols)
	rows.AddRow(row(a, "Ana")...)
	rows.AddRow(row(b, "Ben")...)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = $1")).WithArgs("student").WillReturnRows(rows)

	got, err := NewPostgresProfileRepository(db).ListCandidatesByRole(context.Background(), profile.RoleStudent)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana", got[0].Name)
	assert.Equal(t, "Go", got[0].Skills[0].Name)
	assert.Nil(t, got[0].RequiredSkills)
	assert.Equal(t, uuid.Nil, got[1].CompanyID)
	assert.Equal(t, b, got[1].CompanyKey())
}

func TestProfileRepository_BadJSON(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(
			id.String(), "student", "x", "", []byte(`{`), nil,
			0.0, 0.0, 0.0, "", "", "", "", false, "", "", nil, "", "",
			0.0, 0.0, 0.0, nil, nil, nil, "", nil,
		))

	_, err := NewPostgresProfileRepository(db).GetProfile(context.Background(), id)
	assert.ErrorContains(t, err, "decode skills")
}

func TestHistoryRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	user := uuid.New()
	id, cand := uuid.New(), uuid.New()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM match_history")).
		WithArgs(user, defaultHistoryLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "candidate_id", "feedback", "industry", "company_id", "skills", "remote_allowed", "score", "created_at"}).
			AddRow(id.String(), user.String(), cand.String(), "saved", "ai", nil, []byte(`["Python"]`), true, int64(82), at))

	got, err := NewPostgresHistoryRepository(db).ListByUser(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, profile.FeedbackSaved, got[0].Feedback)
	assert.Equal(t, []string{"Python"}, got[0].Skills)
	assert.Equal(t, 82, got[0].Score)
	assert.Equal(t, cand, got[0].CandidateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Insert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresHistoryRepository(db)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	user, cand := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO match_history")).
		WithArgs(sqlmock.AnyArg(), user, cand, "accepted", "fintech", uuid.NullUUID{}, []byte(`[]`), false, 71, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	it, err := repo.Insert(context.Background(), profile.Interaction{
		UserID: user, CandidateID: cand, Feedback: profile.FeedbackAccepted, Industry: "fintech", Score: 71,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, it.ID)
	assert.Equal(t, now, it.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_InsertError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO match_history")).WillReturnError(errors.New("down"))

	_, err := NewPostgresHistoryRepository(db).Insert(context.Background(), profile.Interaction{Feedback: profile.FeedbackRejected})
	assert.EqualError(t, err, "down")
}

type failingCatalogRepo struct{}

func (failingCatalogRepo) ListCatalogEntries(context.Context) ([]matching.CatalogEntry, error) {
	return nil, errors.New("no table")
}

func TestSkillCatalogRepository_LoadCatalog(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM skills")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "category", "synonyms", "trending", "demand_score"}).
			AddRow("Elixir", "programming", []byte(`["ex"]`), false, int64(40)))

	c, err := LoadCatalog(context.Background(), NewPostgresSkillCatalogRepository(db))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "Elixir", c.Canonical("ex"))
}

func TestSkillCatalogRepository_FallsBackToDefaults(t *testing.T) {
	c, err := LoadCatalog(context.Background(), failingCatalogRepo{})
	assert.Error(t, err)
	assert.Equal(t, matching.DefaultCatalog().Len(), c.Len())

	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM skills")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "category", "synonyms", "trending", "demand_score"}))
	c, err = LoadCatalog(context.Background(), NewPostgresSkillCatalogRepository(db))
	require.NoError(t, err)
	assert.Equal(t, "Go", c.Canonical("golang"))
}
