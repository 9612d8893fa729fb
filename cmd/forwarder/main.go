package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jogardn/order-forwarder/internal/config"
	"github.com/jogardn/order-forwarder/internal/events"
	"github.com/jogardn/order-forwarder/internal/everstox"
	"github.com/jogardn/order-forwarder/internal/mapper"
	"github.com/jogardn/order-forwarder/internal/pipeline"
	"github.com/jogardn/order-forwarder/internal/report"
	"github.com/jogardn/order-forwarder/internal/shopify"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	days := flag.Int("days", cfg.Forwarder.Days, "look-back window in days")
	policy := flag.String("failure-policy", string(cfg.Forwarder.FailurePolicy), "abort or continue")
	format := flag.String("report-format", string(cfg.Report.Format), "html, json or summary")
	flag.Parse()

	if *days < 0 {
		return fmt.Errorf("-days must not be negative")
	}
	if cfg.Forwarder.FailurePolicy, err = pipeline.ParseFailurePolicy(*policy); err != nil {
		return err
	}
	if cfg.Report.Format, err = report.ParseFormat(*format); err != nil {
		return err
	}

	logger := config.NewLogger(cfg.LogLevel)

	shopifyClient := shopify.NewClient(shopify.ClientConfig{
		ShopName:    cfg.Shopify.ShopName,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Timeout:     cfg.Shopify.Timeout,
	}, logger)

	repository := shopify.NewOrderRepository(shopifyClient, shopify.RepositoryConfig{
		PageSize:   cfg.Shopify.PageSize,
		CostBuffer: cfg.Shopify.CostBuffer,
		Filter:     shopify.NewTagFilter(cfg.Shopify.DenyTags, cfg.Shopify.AllowTags),
	}, logger)

	everstoxClient := everstox.NewClient(cfg.Everstox.BaseURL, cfg.Everstox.APIKey, cfg.Everstox.Timeout, logger)
	generator := report.NewGenerator(cfg.Report.Dir, cfg.Report.Format, logger)

	var publisher pipeline.EventPublisher
	if cfg.Kafka.Brokers != "" {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.WithError(err).Warn("Kafka unavailable, continuing without order-forwarded events")
		} else {
			defer producer.Close()
			publisher = producer
		}
	}

	executor := pipeline.NewExecutor(
		repository,
		mapper.New(cfg.Everstox.ShopInstanceID),
		everstoxClient,
		generator,
		publisher,
		pipeline.Config{
			FailurePolicy:          cfg.Forwarder.FailurePolicy,
			MaxConsecutiveFailures: cfg.Forwarder.MaxConsecutiveFailures,
		},
		logger,
	)

	result, err := executor.Run(ctx, *days)
	if err != nil {
		logger.WithError(err).Error("Forwarding run failed")
		return err
	}

	logger.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"sent":   len(result.Sent),
		"report": result.ReportPath,
	}).Info("Forwarding run finished")

	return nil
}
