package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the attribution engine.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	AttributionWindow time.Duration
	MinConfidence     float64
	TierTimeout       time.Duration

	MaxClicksPerUser int
	SweepInterval    time.Duration

	MinTrainingSamples int
	RetrainEvery       int
	LearningRate       float64
	BatchIterations    int
	MaxSamples         int

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Attribution struct {
		WindowHours   int     `yaml:"window_hours"`
		MinConfidence float64 `yaml:"min_confidence"`
	} `yaml:"attribution"`
	Model struct {
		MinTrainingSamples int     `yaml:"min_training_samples"`
		RetrainEvery       int     `yaml:"retrain_every"`
		LearningRate       float64 `yaml:"learning_rate"`
	} `yaml:"model"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "attribution-engine",
		HTTPPort:           8080,
		GRPCPort:           9090,
		AttributionWindow:  24 * time.Hour,
		MinConfidence:      0.5,
		TierTimeout:        2 * time.Second,
		MaxClicksPerUser:   100,
		SweepInterval:      5 * time.Minute,
		MinTrainingSamples: 50,
		RetrainEvery:       10,
		LearningRate:       0.01,
		BatchIterations:    100,
		MaxSamples:         10000,
		MaxDBConns:         20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Attribution.WindowHours > 0 {
			cfg.AttributionWindow = time.Duration(f.Attribution.WindowHours) * time.Hour
		}
		if f.Attribution.MinConfidence > 0 {
			cfg.MinConfidence = f.Attribution.MinConfidence
		}
		if f.Model.MinTrainingSamples > 0 {
			cfg.MinTrainingSamples = f.Model.MinTrainingSamples
		}
		if f.Model.RetrainEvery > 0 {
			cfg.RetrainEvery = f.Model.RetrainEvery
		}
		if f.Model.LearningRate > 0 {
			cfg.LearningRate = f.Model.LearningRate
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.AttributionWindow = time.Duration(envInt("ATTRIBUTION_WINDOW_HOURS", int(cfg.AttributionWindow.Hours()))) * time.Hour
	cfg.MinConfidence = envFloat("MIN_CONFIDENCE", cfg.MinConfidence)
	cfg.TierTimeout = time.Duration(envInt("TIER_TIMEOUT_MS", int(cfg.TierTimeout.Milliseconds()))) * time.Millisecond
	cfg.MaxClicksPerUser = envInt("MAX_CLICKS_PER_USER", cfg.MaxClicksPerUser)
	cfg.SweepInterval = time.Duration(envInt("SWEEP_INTERVAL_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second

	cfg.MinTrainingSamples = envInt("MODEL_MIN_TRAINING_SAMPLES", cfg.MinTrainingSamples)
	cfg.RetrainEvery = envInt("MODEL_RETRAIN_EVERY", cfg.RetrainEvery)
	cfg.LearningRate = envFloat("MODEL_LEARNING_RATE", cfg.LearningRate)
	cfg.BatchIterations = envInt("MODEL_BATCH_ITERATIONS", cfg.BatchIterations)
	cfg.MaxSamples = envInt("MODEL_MAX_SAMPLES", cfg.MaxSamples)

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envFloat parses float env vars with safe fallback on empty/invalid values.
func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
