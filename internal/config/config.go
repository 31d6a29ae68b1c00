package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "VG_"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Stats    StatsConfig    `yaml:"stats"`
}

type DatabaseConfig struct {
	// DSN is a SQLite file path or a postgres:// URL.
	DSN string `yaml:"dsn"`
}

type ServerConfig struct {
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the assignment cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // empty publishes notifications to the log
	Topic   string   `yaml:"topic"`
}

type StatsConfig struct {
	ConfidenceLevel       float64 `yaml:"confidence_level"`
	SignificanceThreshold float64 `yaml:"significance_threshold"`
	MinSampleSize         int     `yaml:"min_sample_size"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{DSN: "variant-goat.db"},
		Server:   ServerConfig{Port: 8080},
		Log:      LogConfig{Level: "info", Format: "console"},
		Redis:    RedisConfig{TTL: 24 * time.Hour},
		Kafka:    KafkaConfig{Topic: "variant-goat.events"},
		Stats: StatsConfig{
			ConfidenceLevel:       0.95,
			SignificanceThreshold: 0.95,
			MinSampleSize:         100,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then VG_* environment variables.
// ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Database.DSN = envOrDefault("DB", c.Database.DSN)
	c.Server.Token = envOrDefault("TOKEN", c.Server.Token)
	c.Log.Level = envOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOrDefault("LOG_FORMAT", c.Log.Format)
	c.Redis.Addr = envOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Kafka.Brokers = envCSV("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = envOrDefault("KAFKA_TOPIC", c.Kafka.Topic)

	var err error
	if c.Server.Port, err = envInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Redis.DB, err = envInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Stats.MinSampleSize, err = envInt("MIN_SAMPLE_SIZE", c.Stats.MinSampleSize); err != nil {
		return err
	}
	if c.Stats.ConfidenceLevel, err = envFloat("CONFIDENCE_LEVEL", c.Stats.ConfidenceLevel); err != nil {
		return err
	}
	if c.Stats.SignificanceThreshold, err = envFloat("SIGNIFICANCE_THRESHOLD", c.Stats.SignificanceThreshold); err != nil {
		return err
	}
	if raw := os.Getenv(envPrefix + "REDIS_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_TTL: %w", envPrefix, err)
		}
		c.Redis.TTL = ttl
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if c.Stats.ConfidenceLevel != 0.95 && c.Stats.ConfidenceLevel != 0.99 {
		errs = append(errs, fmt.Errorf("confidence level must be 0.95 or 0.99, got %v", c.Stats.ConfidenceLevel))
	}
	if c.Stats.SignificanceThreshold <= 0 || c.Stats.SignificanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("significance threshold must be in (0, 1], got %v", c.Stats.SignificanceThreshold))
	}
	if c.Stats.MinSampleSize < 0 {
		errs = append(errs, fmt.Errorf("minimum sample size must not be negative, got %d", c.Stats.MinSampleSize))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be console or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(envPrefix + name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	return v, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	return v, nil
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
