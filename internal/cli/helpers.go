package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/config"
	"github.com/headline-goat/variant-goat/internal/experiment"
	"github.com/headline-goat/variant-goat/internal/logging"
	"github.com/headline-goat/variant-goat/internal/metrics"
	"github.com/headline-goat/variant-goat/internal/stats"
	"github.com/headline-goat/variant-goat/internal/store"
)

// env is everything a command needs to talk to the engine.
type env struct {
	cfg       *config.Config
	logger    zerolog.Logger
	store     store.Store
	publisher broker.Publisher
	registry  *prometheus.Registry
	engine    *experiment.Engine
}

// loadConfig reads the config file and environment, then applies the
// global flags that were set explicitly.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.DSN = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// withEngine opens the store, builds the engine, executes the function,
// and handles cleanup.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := openEnv(ctx, cfg, logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer e.close()

	return fn(ctx, e)
}

func openEnv(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*env, error) {
	sqlStore, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var s store.Store = sqlStore
	if cfg.Redis.Addr != "" {
		client, err := store.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlStore.Close()
			return nil, err
		}
		s = store.NewCachedStore(sqlStore, client, cfg.Redis.TTL, logger)
	}

	var publisher broker.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			s.Close()
			return nil, err
		}
	} else {
		publisher = broker.NewLogPublisher(logger)
	}

	registry := prometheus.NewRegistry()
	engine := experiment.New(s,
		experiment.WithLogger(logger),
		experiment.WithPublisher(publisher),
		experiment.WithMetrics(metrics.New(registry)),
		experiment.WithStatsOptions(stats.Options{
			ConfidenceLevel:       cfg.Stats.ConfidenceLevel,
			SignificanceThreshold: cfg.Stats.SignificanceThreshold,
			MinSampleSize:         cfg.Stats.MinSampleSize,
		}),
	)

	return &env{
		cfg:       cfg,
		logger:    logger,
		store:     s,
		publisher: publisher,
		registry:  registry,
		engine:    engine,
	}, nil
}

func (e *env) close() error {
	return errors.Join(e.publisher.Close(), e.store.Close())
}

// confirm asks a yes/no question on the terminal.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getTokenFilePath returns the path to the token file
func getTokenFilePath(dsn string) string {
	// Store token file alongside the database
	dir := "."
	if !strings.Contains(dsn, "://") {
		dir = filepath.Dir(dsn)
	}
	return filepath.Join(dir, ".vg-token")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// slug turns a variant name into a readable id.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate)
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
