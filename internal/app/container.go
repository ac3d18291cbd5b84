package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"skillsync/internal/config"
	"skillsync/internal/database"
	dbpostgres "skillsync/internal/database/postgres"
	"skillsync/internal/domain/matching"
	"skillsync/internal/infrastructure/ai"
	"skillsync/internal/infrastructure/ai/gemini"
	"skillsync/internal/infrastructure/ai/openaiembed"
	"skillsync/internal/infrastructure/cache"
	"skillsync/internal/infrastructure/market"
	"skillsync/internal/queue"
	"skillsync/internal/repository"
	"skillsync/internal/usecase"
	"skillsync/internal/ws"
)

const memoryQueueSize = 1024

type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB    database.DB
	Cache *cache.Redis

	Producer queue.Producer
	Consumer queue.Consumer

	Scorer   *matching.Scorer
	Matching *usecase.Matching
	Hub      *ws.Hub
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(cctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, DB: db}
	c.Cache = cache.NewRedis(cfg.Redis, logger)

	if err := c.initQueue(cctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	catalog, err := repository.LoadCatalog(cctx, repository.NewPostgresSkillCatalogRepository(db))
	if err != nil {
		logger.Warn("skill catalog unavailable, using defaults", zap.Error(err))
	}

	c.Scorer, err = BuildScorer(ctx, cfg, catalog, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Hub = ws.NewHub(logger)
	c.Matching = usecase.NewMatchingUsecase(usecase.Deps{
		Profiles: repository.NewPostgresProfileRepository(db),
		History:  repository.NewPostgresHistoryRepository(db),
		Cache:    c.Cache,
		Producer: c.Producer,
		Notifier: ws.NewNotifier(c.Hub),
		Scorer:   c.Scorer,
		Logger:   logger,
	}, MatchingConfig(cfg.Matching))

	return c, nil
}

// initQueue uses the Redis stream when Redis is reachable and an in-process queue
// otherwise.
func (c *Container) initQueue(ctx context.Context) error {
	if !c.Cache.Available() {
		c.Logger.Warn("redis unavailable, feedback queue is in-process and not durable")
		q := queue.NewMemoryQueue(memoryQueueSize, 0)
		c.Producer, c.Consumer = q, q
		return nil
	}

	client := c.Cache.Client()
	c.Producer = queue.NewRedisProducer(client, c.Config.Redis.FeedbackStream, c.Logger)
	consumer, err := queue.NewRedisConsumer(ctx, client, queue.ConsumerConfig{
		Stream:       c.Config.Redis.FeedbackStream,
		Group:        c.Config.Redis.FeedbackGroup,
		Consumer:     consumerName(),
		ClaimMinIdle: c.Config.Redis.FeedbackClaimIdle,
	}, c.Logger)
	if err != nil {
		return fmt.Errorf("init feedback consumer: %w", err)
	}
	c.Consumer = consumer
	return nil
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "skillsync"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func MatchingConfig(m config.MatchingConfig) usecase.Config {
	return usecase.Config{
		MinScore:        m.MinScore,
		Limit:           m.Limit,
		MaxLimit:        m.MaxLimit,
		CacheTTL:        m.CacheTTL,
		Concurrency:     m.Concurrency,
		ProfileTimeout:  m.ProfileTimeout,
		EnhancerTimeout: m.EnhancerTimeout,
		PerIndustry:     m.PerIndustry,
		DiversityCap:    m.DiversityCap,
	}
}

// BuildScorer wires the configured optional enhancers into a scorer. Enhancers that
// are not configured are left out and the rule-based paths are used.
func BuildScorer(ctx context.Context, cfg config.Config, catalog *matching.Catalog, logger *zap.Logger) (*matching.Scorer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []matching.Option{
		matching.WithWeights(cfg.Matching.Weights),
		matching.WithFallbackHook(usecase.NewFallbackHook(logger)),
	}
	if cfg.Matching.EnhancerTimeout > 0 {
		opts = append(opts, matching.WithEnhancerTimeout(cfg.Matching.EnhancerTimeout))
	}
	if catalog != nil {
		opts = append(opts, matching.WithCatalog(catalog))
	}

	var gem *gemini.Client
	geminiClient := func() (*gemini.Client, error) {
		if gem != nil {
			return gem, nil
		}
		var err error
		gem, err = gemini.NewClient(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, cfg.AI.GeminiEmbeddingModel)
		return gem, err
	}

	var embedder matching.Embedder
	switch provider := strings.ToLower(strings.TrimSpace(cfg.AI.EmbeddingProvider)); provider {
	case "", "none":
	case "gemini":
		g, err := geminiClient()
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		embedder = g
	case "openai":
		e, err := openaiembed.NewEmbedder(openaiembed.Config{APIKey: cfg.AI.OpenAIAPIKey, Model: cfg.AI.OpenAIEmbeddingModel})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		embedder = e
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
	if embedder != nil {
		opts = append(opts, matching.WithEmbedder(ai.NewCachedEmbedder(embedder, cfg.AI.EmbeddingCacheSize)))
		logger.Info("semantic skill matching enabled", zap.String("provider", cfg.AI.EmbeddingProvider))
	}

	if cfg.AI.CulturalPredictor {
		g, err := geminiClient()
		if err != nil {
			return nil, fmt.Errorf("cultural predictor: %w", err)
		}
		opts = append(opts, matching.WithCulturalPredictor(gemini.NewCulturalPredictor(g)))
	}
	if cfg.AI.SuccessModel {
		g, err := geminiClient()
		if err != nil {
			return nil, fmt.Errorf("success model: %w", err)
		}
		opts = append(opts, matching.WithSuccessModel(gemini.NewSuccessModel(g)))
	}

	if strings.TrimSpace(cfg.Market.TrendsURL) != "" {
		opts = append(opts, matching.WithTrendingSource(market.NewFetcher(market.Config{
			URL:       cfg.Market.TrendsURL,
			UserAgent: cfg.Market.UserAgent,
			TTL:       cfg.Market.RefreshTTL,
		}, logger)))
	}

	return matching.NewScorer(opts...)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil && c.Cache.Client() != nil {
		_ = c.Cache.Client().Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
