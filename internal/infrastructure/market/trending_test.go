package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsync/internal/domain/matching"
)

func serve(t *testing.T, contentType, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetcher_JSON(t *testing.T) {
	srv, _ := serve(t, "application/json", `{"skills":[{"name":"React","growthRate":0.25},{"name":" ","growthRate":1}]}`, http.StatusOK)

	got, err := NewFetcher(Config{URL: srv.URL}, nil).TrendingSkills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []matching.TrendingSkill{{Name: "React", GrowthRate: 0.25}}, got)
}

func TestFetcher_JSONArray(t *testing.T) {
	srv, _ := serve(t, "application/json; charset=utf-8", `[{"name":"Rust","growthRate":0.4}]`, http.StatusOK)

	got, err := NewFetcher(Config{URL: srv.URL}, nil).TrendingSkills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []matching.TrendingSkill{{Name: "Rust", GrowthRate: 0.4}}, got)
}

func TestFetcher_HTML(t *testing.T) {
	page := `<html><body><ul>
		<li data-skill="Kubernetes" data-growth="0.31">Kubernetes</li>
		<li data-skill="Go" data-growth="18%">Go</li>
		<li data-skill="Broken" data-growth="n/a">Broken</li>
	</ul></body></html>`
	srv, _ := serve(t, "text/html", page, http.StatusOK)

	got, err := NewFetcher(Config{URL: srv.URL}, nil).TrendingSkills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []matching.TrendingSkill{{Name: "Kubernetes", GrowthRate: 0.31}, {Name: "Go", GrowthRate: 18}}, got)
}

func TestFetcher_CachesWithinTTL(t *testing.T) {
	srv, hits := serve(t, "application/json", `{"skills":[{"name":"Go","growthRate":0.2}]}`, http.StatusOK)

	f := NewFetcher(Config{URL: srv.URL, TTL: time.Minute}, nil)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	_, err := f.TrendingSkills(context.Background())
	require.NoError(t, err)
	_, err = f.TrendingSkills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(2 * time.Minute)
	_, err = f.TrendingSkills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcher_ServesStaleOnError(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"skills":[{"name":"Go","growthRate":0.2}]}`))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(Config{URL: srv.URL, TTL: time.Minute}, nil)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	_, err := f.TrendingSkills(context.Background())
	require.NoError(t, err)

	status.Store(http.StatusServiceUnavailable)
	now = now.Add(time.Hour)
	got, err := f.TrendingSkills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Go", got[0].Name)
}

func TestFetcher_Errors(t *testing.T) {
	_, err := NewFetcher(Config{}, nil).TrendingSkills(context.Background())
	assert.ErrorContains(t, err, "not configured")

	srv, _ := serve(t, "text/plain", "down", http.StatusInternalServerError)
	_, err = NewFetcher(Config{URL: srv.URL}, nil).TrendingSkills(context.Background())
	assert.Error(t, err)

	srv, _ = serve(t, "application/json", `{"skills":`, http.StatusOK)
	_, err = NewFetcher(Config{URL: srv.URL}, nil).TrendingSkills(context.Background())
	assert.ErrorContains(t, err, "decode market trends")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFetcher(Config{URL: srv.URL}, nil).TrendingSkills(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_CachesEmptyResult(t *testing.T) {
	srv, hits := serve(t, "text/html", `<html><body><p>no data yet</p></body></html>`, http.StatusOK)

	f := NewFetcher(Config{URL: srv.URL, TTL: time.Minute}, nil)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	for range 3 {
		got, err := f.TrendingSkills(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(1), hits.Load())
}
