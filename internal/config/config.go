package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Redis      RedisConfig
	Session    SessionConfig
	Classifier ClassifierConfig
	Simulation SimulationConfig
	Dedup      DedupConfig
	Hub        HubConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RedisConfig holds optional Redis connection values for the vote ledger.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	VoteTTL  time.Duration
}

// SessionConfig defines voter session token parameters.
type SessionConfig struct {
	Secret     string
	TTLMinutes int
}

// ClassifierConfig selects and tunes the classification worker.
type ClassifierConfig struct {
	Provider       string
	OpenAIKey      string
	OpenAIModel    string
	TimeoutSeconds int
	MinLatencyMs   int
	MaxLatencyMs   int
}

// SimulationConfig drives the synthetic traffic generator.
type SimulationConfig struct {
	Live               bool
	Seed               bool
	EngagementInterval time.Duration
	IncidentInterval   time.Duration
	SocialInterval     time.Duration
	StatsInterval      time.Duration
	ProgressInterval   time.Duration
	EngagementChance   float64
	IncidentChance     float64
	SocialChance       float64
	ProgressChance     float64
}

// DedupConfig selects the duplicate-report policy.
type DedupConfig struct {
	Strategy       string
	GeoThresholdKM float64
}

// HubConfig tunes broadcast delivery.
type HubConfig struct {
	SubscriberBuffer int
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-pulse"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3001"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			VoteTTL:  time.Duration(getEnvAsInt("REDIS_VOTE_TTL_HOURS", 24)) * time.Hour,
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_JWT_SECRET", "dev-secret"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 24*60),
		},
		Classifier: ClassifierConfig{
			Provider:       getEnv("CLASSIFIER_PROVIDER", "keyword"),
			OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:    getEnv("OPENAI_MODEL", ""),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 5),
			MinLatencyMs:   getEnvAsInt("CLASSIFIER_MIN_LATENCY_MS", 800),
			MaxLatencyMs:   getEnvAsInt("CLASSIFIER_MAX_LATENCY_MS", 2500),
		},
		Simulation: SimulationConfig{
			Live:               getEnvAsBool("SIM_LIVE", true),
			Seed:               getEnvAsBool("SIM_SEED", true),
			EngagementInterval: getEnvAsDuration("SIM_ENGAGEMENT_INTERVAL", 2*time.Second),
			IncidentInterval:   getEnvAsDuration("SIM_INCIDENT_INTERVAL", 2*time.Second),
			SocialInterval:     getEnvAsDuration("SIM_SOCIAL_INTERVAL", 2*time.Second),
			StatsInterval:      getEnvAsDuration("SIM_STATS_INTERVAL", 2*time.Second),
			ProgressInterval:   getEnvAsDuration("SIM_PROGRESS_INTERVAL", 2*time.Second),
			EngagementChance:   getEnvAsFloat("SIM_ENGAGEMENT_CHANCE", 0.40),
			IncidentChance:     getEnvAsFloat("SIM_INCIDENT_CHANCE", 0.10),
			SocialChance:       getEnvAsFloat("SIM_SOCIAL_CHANCE", 0.40),
			ProgressChance:     getEnvAsFloat("SIM_PROGRESS_CHANCE", 0.30),
		},
		Dedup: DedupConfig{
			Strategy:       getEnv("DEDUP_STRATEGY", "substring"),
			GeoThresholdKM: getEnvAsFloat("DEDUP_GEO_THRESHOLD_KM", 0.5),
		},
		Hub: HubConfig{
			SubscriberBuffer: getEnvAsInt("HUB_SUBSCRIBER_BUFFER", 64),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ClassifyTimeout returns the classification deadline.
func (c ClassifierConfig) ClassifyTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
