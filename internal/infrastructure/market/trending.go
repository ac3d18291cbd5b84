// Package market fetches trending-skill growth figures from an external market data page.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"skillsync/internal/domain/matching"
)

const (
	defaultTTL       = time.Hour
	defaultUserAgent = "skillsync-market/1.0"
	defaultTimeout   = 10 * time.Second
)

// Fetcher implements matching.TrendingSource. It accepts either a JSON document of the form
// {"skills":[{"name":..,"growthRate":..}]} or an HTML page whose elements carry
// data-skill and data-growth attributes. Results are cached for the configured TTL.
type Fetcher struct {
	url       string
	userAgent string
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	cached    []matching.TrendingSkill
	fetchedAt time.Time
}

type Config struct {
	URL       string
	UserAgent string
	TTL       time.Duration
}

func NewFetcher(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Fetcher{
		url:       strings.TrimSpace(cfg.URL),
		userAgent: ua,
		ttl:       ttl,
		logger:    logger.Named("market"),
		now:       time.Now,
	}
}

func (f *Fetcher) TrendingSkills(ctx context.Context) ([]matching.TrendingSkill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fetched := !f.fetchedAt.IsZero()
	if fetched && f.now().Sub(f.fetchedAt) < f.ttl {
		return copySkills(f.cached), nil
	}

	skills, err := f.fetch(ctx)
	if err != nil {
		if fetched {
			f.logger.Warn("market fetch failed, serving stale trends", zap.Error(err), zap.Time("fetched_at", f.fetchedAt))
			return copySkills(f.cached), nil
		}
		return nil, err
	}

	f.cached = skills
	f.fetchedAt = f.now()
	f.logger.Debug("market trends refreshed", zap.Int("skills", len(skills)))
	return copySkills(skills), nil
}

func (f *Fetcher) fetch(ctx context.Context) ([]matching.TrendingSkill, error) {
	if f.url == "" {
		return nil, errors.New("market trends url is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	timeout := defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	c.SetRequestTimeout(timeout)

	var (
		out    []matching.TrendingSkill
		reqErr error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json, text/html;q=0.9")
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if !strings.Contains(strings.ToLower(r.Headers.Get("Content-Type")), "json") {
			return
		}
		skills, err := parseJSON(r.Body)
		if err != nil {
			reqErr = err
			return
		}
		out = append(out, skills...)
	})

	c.OnHTML("[data-skill]", func(e *colly.HTMLElement) {
		name := strings.TrimSpace(e.Attr("data-skill"))
		if name == "" {
			return
		}
		growth, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(e.Attr("data-growth")), "%"), 64)
		if err != nil {
			return
		}
		out = append(out, matching.TrendingSkill{Name: name, GrowthRate: growth})
	})

	c.OnError(func(r *colly.Response, err error) {
		reqErr = fmt.Errorf("fetch %s (status %d): %w", f.url, r.StatusCode, err)
	})

	if err := c.Visit(f.url); err != nil {
		return nil, err
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reqErr != nil {
		return nil, reqErr
	}
	return out, nil
}

func parseJSON(body []byte) ([]matching.TrendingSkill, error) {
	var doc struct {
		Skills []matching.TrendingSkill `json:"skills"`
	}
	if err := json.Unmarshal(body, &doc); err == nil && doc.Skills != nil {
		return clean(doc.Skills), nil
	}

	var list []matching.TrendingSkill
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode market trends: %w", err)
	}
	return clean(list), nil
}

func clean(in []matching.TrendingSkill) []matching.TrendingSkill {
	out := make([]matching.TrendingSkill, 0, len(in))
	for _, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func copySkills(in []matching.TrendingSkill) []matching.TrendingSkill {
	out := make([]matching.TrendingSkill, len(in))
	copy(out, in)
	return out
}
