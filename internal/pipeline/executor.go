// Package pipeline runs one forwarding pass: fetch open Shopify orders, map
// each to an Everstox payload, submit it, and write the run report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/internal/circuitbreaker"
	"github.com/jogardn/order-forwarder/internal/events"
	"github.com/jogardn/order-forwarder/internal/everstox"
	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/sirupsen/logrus"
)

type OrderFetcher interface {
	FetchOrders(ctx context.Context, days int) ([]models.Order, error)
}

type OrderMapper interface {
	Map(order models.Order) models.EverstoxOrder
}

type OrderSender interface {
	SendOrder(ctx context.Context, order *models.EverstoxOrder) (everstox.Acknowledgement, error)
}

type ReportGenerator interface {
	Generate(result *models.RunResult) (string, error)
}

type EventPublisher interface {
	PublishOrderForwarded(ctx context.Context, event events.OrderForwardedEvent) error
}

type FailurePolicy string

const (
	// FailureAbort stops the run at the first rejected order and writes no report.
	FailureAbort FailurePolicy = "abort"
	// FailureContinue records rejected orders and keeps going until the
	// circuit breaker opens.
	FailureContinue FailurePolicy = "continue"

	DefaultMaxConsecutiveFailures = 5
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailureAbort, FailureContinue:
		return p, nil
	case "":
		return FailureAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want abort or continue)", s)
	}
}

// SubmissionError is returned for an order Everstox did not accept.
type SubmissionError struct {
	OrderID     string
	OrderNumber string
	Err         error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit order %s (%s): %v", e.OrderNumber, e.OrderID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

type Config struct {
	FailurePolicy          FailurePolicy
	MaxConsecutiveFailures int
	// Now and NewRunID default to time.Now and uuid.New.
	Now      func() time.Time
	NewRunID func() uuid.UUID
}

type Executor struct {
	fetcher   OrderFetcher
	mapper    OrderMapper
	sender    OrderSender
	reporter  ReportGenerator
	publisher EventPublisher
	policy    FailurePolicy
	breaker   *circuitbreaker.CircuitBreaker
	now       func() time.Time
	newRunID  func() uuid.UUID
	logger    *logrus.Logger
}

// NewExecutor wires the collaborators. publisher may be nil.
func NewExecutor(
	fetcher OrderFetcher,
	mapper OrderMapper,
	sender OrderSender,
	reporter ReportGenerator,
	publisher EventPublisher,
	config Config,
	logger *logrus.Logger,
) *Executor {
	if config.FailurePolicy == "" {
		config.FailurePolicy = FailureAbort
	}
	if config.MaxConsecutiveFailures <= 0 {
		config.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.NewRunID == nil {
		config.NewRunID = uuid.New
	}

	e := &Executor{
		fetcher:   fetcher,
		mapper:    mapper,
		sender:    sender,
		reporter:  reporter,
		publisher: publisher,
		policy:    config.FailurePolicy,
		now:       config.Now,
		newRunID:  config.NewRunID,
		logger:    logger,
	}

	if config.FailurePolicy == FailureContinue {
		e.breaker = circuitbreaker.New(circuitbreaker.Config{
			Name:        "everstox",
			MaxFailures: config.MaxConsecutiveFailures,
			Timeout:     10 * time.Minute,
			MaxRequests: 1,
			Now:         config.Now,
		}, logger)
	}

	return e
}

// Run executes one pass over the last days days. In abort mode the first
// submission error ends the run without a report. In continue mode every
// failure is collected, the report is written, and the failures are returned
// joined.
func (e *Executor) Run(ctx context.Context, days int) (*models.RunResult, error) {
	result := &models.RunResult{
		RunID:     e.newRunID(),
		Days:      days,
		StartedAt: e.now().UTC(),
	}
	log := e.logger.WithField("run_id", result.RunID)

	log.Infof("Fetching paid, unfulfilled orders from the last %d days", days)
	orders, err := e.fetcher.FetchOrders(ctx, days)
	if err != nil {
		log.WithError(err).Error("Failed to fetch orders")
		return result, fmt.Errorf("fetch orders: %w", err)
	}
	result.Orders = orders
	log.WithField("count", len(orders)).Infof("Found %d order(s), forwarding to Everstox", len(orders))

	for _, order := range orders {
		log.WithFields(logrus.Fields{
			"order_number":       order.Name,
			"financial_status":   order.FinancialStatus,
			"fulfillment_status": stringValue(order.FulfillmentStatus),
			"line_items":         len(order.LineItems),
			"tags":               order.Tags,
			"total":              order.TotalPrice.String() + " " + order.Currency,
		}).Debug("Loaded order")
	}

	var failures []error
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		payload := e.mapper.Map(order)
		orderLog := log.WithFields(logrus.Fields{
			"order_id":     order.ID,
			"order_number": order.Name,
		})

		if err := e.submit(ctx, &payload); err != nil {
			subErr := &SubmissionError{OrderID: order.ID, OrderNumber: order.Name, Err: err}
			orderLog.WithError(err).Error("Failed to send order to Everstox")

			if e.policy == FailureAbort {
				return result, subErr
			}
			result.Failed = append(result.Failed, models.FailedOrder{
				Source:  order,
				Payload: payload,
				Error:   err.Error(),
			})
			failures = append(failures, subErr)
			if !errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) && e.breaker.State() == circuitbreaker.StateOpen {
				orderLog.Warn("Everstox keeps failing, remaining orders will be skipped")
			}
			continue
		}

		orderLog.Info("Order sent to Everstox")
		result.Sent = append(result.Sent, models.SentOrder{Source: order, Payload: payload})
		e.publish(ctx, result.RunID, order, payload, orderLog)
	}

	result.FinishedAt = e.now().UTC()
	result.Circuit = e.circuitSummary(log)

	path, err := e.reporter.Generate(result)
	if err != nil {
		log.WithError(err).Error("Failed to write report")
		return result, errors.Join(append(failures, fmt.Errorf("generate report: %w", err))...)
	}
	result.ReportPath = path

	log.WithFields(logrus.Fields{
		"sent":   len(result.Sent),
		"failed": len(result.Failed),
	}).Infof("Done. Report written to: %s", path)

	return result, errors.Join(failures...)
}

func (e *Executor) submit(ctx context.Context, payload *models.EverstoxOrder) error {
	send := func() error {
		_, err := e.sender.SendOrder(ctx, payload)
		return err
	}
	if e.breaker == nil {
		return send()
	}
	return e.breaker.Execute(send)
}

func (e *Executor) circuitSummary(log *logrus.Entry) *models.CircuitSummary {
	if e.breaker == nil {
		return nil
	}

	m := e.breaker.Metrics()
	log.WithFields(logrus.Fields{
		"circuit_breaker": m.Name,
		"state":           m.State.String(),
		"total_requests":  m.TotalRequests,
		"total_failures":  m.TotalFailures,
		"total_rejected":  m.TotalRejected,
		"state_changes":   m.StateChanges,
	}).Info("Everstox circuit breaker summary")

	return &models.CircuitSummary{
		State:        m.State.String(),
		Failures:     m.TotalFailures,
		Rejected:     m.TotalRejected,
		StateChanges: m.StateChanges,
	}
}

func (e *Executor) publish(ctx context.Context, runID uuid.UUID, order models.Order, payload models.EverstoxOrder, log *logrus.Entry) {
	if e.publisher == nil {
		return
	}

	event := events.OrderForwardedEvent{
		RunID:          runID,
		ShopifyOrderID: order.ID,
		OrderNumber:    payload.OrderNumber,
		ShopInstanceID: payload.ShopInstanceID,
		ItemCount:      len(payload.OrderItems),
	}
	if err := e.publisher.PublishOrderForwarded(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to publish order-forwarded event")
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
