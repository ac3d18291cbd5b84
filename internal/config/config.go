package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"skillsync/internal/domain/matching"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Matching MatchingConfig `mapstructure:"matching"`
	AI       AIConfig       `mapstructure:"ai"`
	Market   MarketConfig   `mapstructure:"market"`
	Log      LogConfig      `mapstructure:"log"`
}

type AppConfig struct {
	AppName     string `mapstructure:"name"`
	Environment string `mapstructure:"env"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	DBHost     string `mapstructure:"host"`
	DBPort     string `mapstructure:"port"`
	DBName     string `mapstructure:"name"`
	DBUser     string `mapstructure:"user"`
	DBPassword string `mapstructure:"password"`
	DBSSLMode  string `mapstructure:"ssl_mode"`

	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	PoolMaxConns          int32         `mapstructure:"pool_max_conns"`
	PoolMinConns          int32         `mapstructure:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `mapstructure:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `mapstructure:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `mapstructure:"pool_health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	FeedbackStream      string        `mapstructure:"feedback_stream"`
	FeedbackGroup       string        `mapstructure:"feedback_group"`
	FeedbackMaxAttempts int           `mapstructure:"feedback_max_attempts"`
	FeedbackClaimIdle   time.Duration `mapstructure:"feedback_claim_idle"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type MatchingConfig struct {
	Weights         matching.Weights `mapstructure:"weights"`
	MinScore        int              `mapstructure:"min_score"`
	Limit           int              `mapstructure:"limit"`
	MaxLimit        int              `mapstructure:"max_limit"`
	CacheTTL        time.Duration    `mapstructure:"cache_ttl"`
	Concurrency     int              `mapstructure:"concurrency"`
	ProfileTimeout  time.Duration    `mapstructure:"profile_timeout"`
	EnhancerTimeout time.Duration    `mapstructure:"enhancer_timeout"`
	PerIndustry     int              `mapstructure:"per_industry"`
	DiversityCap    int              `mapstructure:"diversity_cap"`
}

type AIConfig struct {
	// EmbeddingProvider is one of none, gemini or openai.
	EmbeddingProvider  string `mapstructure:"embedding_provider"`
	EmbeddingCacheSize int    `mapstructure:"embedding_cache_size"`

	GeminiAPIKey         string `mapstructure:"gemini_api_key"`
	GeminiModel          string `mapstructure:"gemini_model"`
	GeminiEmbeddingModel string `mapstructure:"gemini_embedding_model"`

	OpenAIAPIKey         string `mapstructure:"openai_api_key"`
	OpenAIEmbeddingModel string `mapstructure:"openai_embedding_model"`

	CulturalPredictor bool `mapstructure:"cultural_predictor"`
	SuccessModel      bool `mapstructure:"success_model"`
}

type MarketConfig struct {
	TrendsURL  string        `mapstructure:"trends_url"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

var requiredKeys = []string{"app.name", "app.env", "http.port"}

func setDefaults(v *viper.Viper) {
	for _, k := range requiredKeys {
		v.SetDefault(k, "")
	}

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.name", "skillsync")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.connect_timeout", 5*time.Second)
	v.SetDefault("db.pool_max_conns", 10)
	v.SetDefault("db.pool_min_conns", 0)
	v.SetDefault("db.pool_max_conn_lifetime", time.Hour)
	v.SetDefault("db.pool_max_conn_idle_time", 30*time.Minute)
	v.SetDefault("db.pool_health_check_period", time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.feedback_stream", "skillsync:feedback")
	v.SetDefault("redis.feedback_group", "skillsync-feedback")
	v.SetDefault("redis.feedback_max_attempts", 5)
	v.SetDefault("redis.feedback_claim_idle", time.Minute)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")

	w := matching.DefaultWeights()
	v.SetDefault("matching.weights.skill", w.Skill)
	v.SetDefault("matching.weights.experience", w.Experience)
	v.SetDefault("matching.weights.cultural", w.Cultural)
	v.SetDefault("matching.weights.location", w.Location)
	v.SetDefault("matching.weights.salary", w.Salary)
	v.SetDefault("matching.weights.availability", w.Availability)
	v.SetDefault("matching.min_score", 60)
	v.SetDefault("matching.limit", 20)
	v.SetDefault("matching.max_limit", 100)
	v.SetDefault("matching.cache_ttl", 30*time.Minute)
	v.SetDefault("matching.concurrency", 8)
	v.SetDefault("matching.profile_timeout", 5*time.Second)
	v.SetDefault("matching.enhancer_timeout", 2*time.Second)
	v.SetDefault("matching.per_industry", matching.DefaultPerIndustry)
	v.SetDefault("matching.diversity_cap", matching.DefaultDiversityCap)

	v.SetDefault("ai.embedding_provider", "none")
	v.SetDefault("ai.embedding_cache_size", 4096)
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.gemini_model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini_embedding_model", "text-embedding-004")
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.openai_embedding_model", "text-embedding-3-small")
	v.SetDefault("ai.cultural_predictor", false)
	v.SetDefault("ai.success_model", false)

	v.SetDefault("market.trends_url", "")
	v.SetDefault("market.refresh_ttl", time.Hour)
	v.SetDefault("market.user_agent", "skillsync-market/1.0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from the environment (optionally seeded from .env) and an
// optional config file. Environment variables win; APP_NAME maps to app.name and so on.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, envName(key))
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Matching.Weights.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Matching.Concurrency <= 0 {
		cfg.Matching.Concurrency = 1
	}
	if cfg.Matching.MaxLimit <= 0 {
		cfg.Matching.MaxLimit = 100
	}

	return cfg, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.App.Environment))
	return env == "production" || env == "prod"
}
