package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/internal/pipeline"
	"github.com/jogardn/order-forwarder/internal/report"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Shopify   ShopifyConfig   `env:",prefix=SHOPIFY_"`
	Everstox  EverstoxConfig  `env:",prefix=EVERSTOX_"`
	Forwarder ForwarderConfig `env:",prefix=FORWARDER_"`
	Report    ReportConfig    `env:",prefix=REPORT_"`
	Kafka     KafkaConfig     `env:",prefix=KAFKA_"`
	LogLevel  string          `env:"LOG_LEVEL,default=info"`
}

type ShopifyConfig struct {
	ShopName    string        `env:"SHOP_NAME,required"`
	AccessToken string        `env:"ACCESS_TOKEN,required"`
	APIVersion  string        `env:"API_VERSION,default=2025-01"`
	PageSize    int           `env:"PAGE_SIZE,default=50"`
	CostBuffer  int           `env:"COST_BUFFER,default=50"`
	DenyTags    []string      `env:"DENY_TAGS"`
	AllowTags   []string      `env:"ALLOW_TAGS"`
	Timeout     time.Duration `env:"TIMEOUT,default=30s"`
}

type EverstoxConfig struct {
	BaseURL           string        `env:"BASE_URL,default=https://api.everstox.com"`
	APIKey            string        `env:"API_KEY,required"`
	RawShopInstanceID string        `env:"SHOP_INSTANCE_ID,required"`
	Timeout           time.Duration `env:"TIMEOUT,default=30s"`
	// ShopInstanceID is parsed from RawShopInstanceID by Validate.
	ShopInstanceID uuid.UUID
}

type ForwarderConfig struct {
	Days                   int                    `env:"DAYS,default=14"`
	FailurePolicy          pipeline.FailurePolicy `env:"FAILURE_POLICY,default=abort"`
	MaxConsecutiveFailures int                    `env:"MAX_CONSECUTIVE_FAILURES,default=5"`
}

type ReportConfig struct {
	Dir    string        `env:"DIR,default=."`
	Format report.Format `env:"FORMAT,default=html"`
}

type KafkaConfig struct {
	// Brokers is a comma separated list; empty disables publishing.
	Brokers string `env:"BROKERS"`
	Topic   string `env:"TOPIC,default=order.forwarded"`
}

// ReceiverConfig configures the mock Everstox receiver.
type ReceiverConfig struct {
	Port        int    `env:"MOCK_PORT,default=8082"`
	APIKey      string `env:"MOCK_API_KEY"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadReceiver(ctx context.Context) (*ReceiverConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return LoadReceiverFrom(ctx, envconfig.OsLookuper())
}

func LoadReceiverFrom(ctx context.Context, lookuper envconfig.Lookuper) (*ReceiverConfig, error) {
	var cfg ReceiverConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MOCK_PORT invalid: %d", cfg.Port)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate normalises enum and tag values and rejects settings the
// forwarder cannot run with.
func (c *Config) Validate() error {
	id, err := uuid.Parse(strings.TrimSpace(c.Everstox.RawShopInstanceID))
	if err != nil {
		return fmt.Errorf("EVERSTOX_SHOP_INSTANCE_ID invalid: %w", err)
	}
	if id == uuid.Nil {
		return errors.New("EVERSTOX_SHOP_INSTANCE_ID must not be the nil UUID")
	}
	c.Everstox.ShopInstanceID = id

	policy, err := pipeline.ParseFailurePolicy(string(c.Forwarder.FailurePolicy))
	if err != nil {
		return fmt.Errorf("FORWARDER_FAILURE_POLICY invalid: %w", err)
	}
	c.Forwarder.FailurePolicy = policy

	format, err := report.ParseFormat(string(c.Report.Format))
	if err != nil {
		return fmt.Errorf("REPORT_FORMAT invalid: %w", err)
	}
	c.Report.Format = format

	if c.Forwarder.Days < 0 {
		return fmt.Errorf("FORWARDER_DAYS invalid: %d", c.Forwarder.Days)
	}
	if c.Forwarder.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("FORWARDER_MAX_CONSECUTIVE_FAILURES invalid: %d", c.Forwarder.MaxConsecutiveFailures)
	}

	c.Shopify.DenyTags = lowerTags(c.Shopify.DenyTags)
	c.Shopify.AllowTags = lowerTags(c.Shopify.AllowTags)

	return nil
}

func lowerTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NewLogger returns a JSON logger at level, falling back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("invalid_value", level).Warn("Invalid LOG_LEVEL, using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}
