package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/delivery/http/middleware"
	"skillsync/internal/domain/matching"
	"skillsync/internal/domain/profile"
	"skillsync/internal/usecase"
)

type fakeUsecase struct {
	findOpts   usecase.Options
	findRole   profile.Role
	findErr    error
	results    []matching.MatchResult
	cached     usecase.CachedMatches
	cachedOK   bool
	feedback   string
	feedbackTo uuid.UUID
	fbErr      error
	scoreErr   error
	stats      matching.Statistics
}

func (f *fakeUsecase) FindMatches(_ context.Context, _ uuid.UUID, role profile.Role, opts usecase.Options) ([]matching.MatchResult, error) {
	f.findRole, f.findOpts = role, opts
	return f.results, f.findErr
}

func (f *fakeUsecase) GetCachedMatches(context.Context, uuid.UUID) (usecase.CachedMatches, bool, error) {
	return f.cached, f.cachedOK, nil
}

func (f *fakeUsecase) CalculateMatchScore(_ context.Context, _, candidateID uuid.UUID, _ profile.Role) (matching.MatchResult, error) {
	if f.scoreErr != nil {
		return matching.MatchResult{}, f.scoreErr
	}
	return matching.MatchResult{ID: candidateID, MatchScore: matching.MatchScore{Overall: 77}}, nil
}

func (f *fakeUsecase) UpdateMatchFeedback(_ context.Context, matchID, _ uuid.UUID, feedback string) error {
	f.feedbackTo, f.feedback = matchID, feedback
	return f.fbErr
}

func (f *fakeUsecase) GetMatchStatistics(context.Context, uuid.UUID) (matching.Statistics, error) {
	return f.stats, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(uc usecase.MatchingUsecase, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	api := app.Group("/api/v1", func(c fiber.Ctx) error {
		if userID != uuid.Nil {
			c.Locals(middleware.CtxUserIDKey, userID)
		}
		return c.Next()
	})
	NewMatchHandler(uc, nil).RegisterRoutes(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestMatchHandler_FindMatches(t *testing.T) {
	id := uuid.New()
	uc := &fakeUsecase{results: []matching.MatchResult{{ID: id, MatchScore: matching.MatchScore{Overall: 88}}}}
	app := newTestApp(uc, uuid.New())

	status, env := do(t, app, http.MethodGet, "/api/v1/matches?role=Student&min_score=0&limit=5", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, profile.RoleStudent, uc.findRole)
	require.NotNil(t, uc.findOpts.MinScore)
	assert.Equal(t, 0, *uc.findOpts.MinScore)
	assert.Equal(t, 5, *uc.findOpts.Limit)

	var body struct {
		Matches []matching.MatchResult `json:"matches"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, id, body.Matches[0].ID)

	status, _ = do(t, app, http.MethodGet, "/api/v1/matches?role=student", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, uc.findOpts.MinScore)
}

func TestMatchHandler_FindMatchesErrors(t *testing.T) {
	uc := &fakeUsecase{}
	app := newTestApp(uc, uuid.New())

	status, _ := do(t, app, http.MethodGet, "/api/v1/matches?role=mentor", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/matches?role=student&limit=ten", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{usecase.ErrProfileNotFound, 404, "Profile not found"},
		{fmt.Errorf("%w: limit must be positive", usecase.ErrInvalidInput), 400, "limit must be positive"},
		{fmt.Errorf("%w: load seeker: timeout", usecase.ErrMatchingUnavailable), 503, "matching temporarily unavailable"},
		{errors.New("unexpected"), 500, "internal server error"},
	}
	for _, tc := range cases {
		uc.findErr = tc.err
		status, env := do(t, app, http.MethodGet, "/api/v1/matches?role=student", "")
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, env.Message)
	}

	status, _ = do(t, newTestApp(uc, uuid.Nil), http.MethodGet, "/api/v1/matches?role=student", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestMatchHandler_Cached(t *testing.T) {
	uc := &fakeUsecase{}
	app := newTestApp(uc, uuid.New())

	status, _ := do(t, app, http.MethodGet, "/api/v1/matches/cached", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.cached = usecase.CachedMatches{Matches: []matching.MatchResult{{ID: uuid.New()}}, Timestamp: at, ExpiresAt: at.Add(30 * time.Minute)}
	uc.cachedOK = true
	status, env := do(t, app, http.MethodGet, "/api/v1/matches/cached", "")
	assert.Equal(t, fiber.StatusOK, status)

	var body struct {
		Count     int       `json:"count"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.Count)
	assert.True(t, at.Add(30*time.Minute).Equal(body.ExpiresAt))
}

func TestMatchHandler_Score(t *testing.T) {
	uc := &fakeUsecase{}
	app := newTestApp(uc, uuid.New())
	cand := uuid.New()

	status, env := do(t, app, http.MethodPost, "/api/v1/matches/score", fmt.Sprintf(`{"candidate_id":%q,"role":"startup"}`, cand))
	assert.Equal(t, fiber.StatusOK, status)
	var res matching.MatchResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, cand, res.ID)
	assert.Equal(t, 77, res.MatchScore.Overall)

	status, _ = do(t, app, http.MethodPost, "/api/v1/matches/score", `{"candidate_id":"nope","role":"startup"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/matches/score", fmt.Sprintf(`{"candidate_id":%q,"role":""}`, cand))
	assert.Equal(t, fiber.StatusBadRequest, status)

	uc.scoreErr = usecase.ErrProfileNotFound
	status, _ = do(t, app, http.MethodPost, "/api/v1/matches/score", fmt.Sprintf(`{"candidate_id":%q,"role":"startup"}`, cand))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMatchHandler_Feedback(t *testing.T) {
	uc := &fakeUsecase{}
	app := newTestApp(uc, uuid.New())
	match := uuid.New()
	path := "/api/v1/matches/" + match.String() + "/feedback"

	status, env := do(t, app, http.MethodPost, path, `{"feedback":"accepted"}`)
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, "accepted", env.Message)
	assert.Equal(t, match, uc.feedbackTo)
	assert.Equal(t, "accepted", uc.feedback)

	uc.fbErr = fmt.Errorf("enqueue feedback: %w", errors.New("queue full"))
	status, _ = do(t, app, http.MethodPost, path, `{"feedback":"saved"}`)
	assert.Equal(t, fiber.StatusAccepted, status)

	uc.fbErr = usecase.ErrInvalidFeedback
	status, _ = do(t, app, http.MethodPost, path, `{"feedback":"meh"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/v1/matches/xyz/feedback", `{"feedback":"accepted"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMatchHandler_Statistics(t *testing.T) {
	uc := &fakeUsecase{stats: matching.Statistics{TotalMatches: 3, AverageScore: 70, SuccessRate: 0.5, TopSkills: []matching.SkillCount{{Name: "Go", Count: 2}}}}
	app := newTestApp(uc, uuid.New())

	status, env := do(t, app, http.MethodGet, "/api/v1/matches/statistics", "")
	assert.Equal(t, fiber.StatusOK, status)
	var stats matching.Statistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, uc.stats, stats)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	app := fiber.New()
	NewHealthHandler(pinger{}, map[string]Pinger{"redis": pinger{errors.New("down")}}).RegisterRoutes(app)

	status, env := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"degraded"`)

	app = fiber.New()
	NewHealthHandler(pinger{errors.New("down")}, nil).RegisterRoutes(app)
	status, env = do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, string(env.Data), `"database":"down"`)
}
