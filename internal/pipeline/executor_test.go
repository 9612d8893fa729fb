package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/internal/circuitbreaker"
	"github.com/jogardn/order-forwarder/internal/events"
	"github.com/jogardn/order-forwarder/internal/everstox"
	"github.com/jogardn/order-forwarder/internal/mapper"
	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	shopID = uuid.MustParse("0b3e9d4a-5f7c-4c2b-8a61-2f4d9c8e7b10")
	runID  = uuid.MustParse("1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d")
	now    = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
)

type fakeFetcher struct {
	orders []models.Order
	err    error
	days   []int
}

func (f *fakeFetcher) FetchOrders(ctx context.Context, days int) ([]models.Order, error) {
	f.days = append(f.days, days)
	return f.orders, f.err
}

type fakeSender struct {
	failFor map[string]error
	sent    []string
}

func (s *fakeSender) SendOrder(ctx context.Context, order *models.EverstoxOrder) (everstox.Acknowledgement, error) {
	s.sent = append(s.sent, order.OrderNumber)
	if err, ok := s.failFor[order.OrderNumber]; ok {
		return nil, err
	}
	return everstox.Acknowledgement{"status": "accepted"}, nil
}

type fakeReporter struct {
	results []*models.RunResult
	err     error
}

func (r *fakeReporter) Generate(result *models.RunResult) (string, error) {
	r.results = append(r.results, result)
	if r.err != nil {
		return "", r.err
	}
	return "report_2025-06-15T12-00-00.html", nil
}

type fakePublisher struct {
	events []events.OrderForwardedEvent
	err    error
}

func (p *fakePublisher) PublishOrderForwarded(ctx context.Context, event events.OrderForwardedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func makeOrders(names ...string) []models.Order {
	orders := make([]models.Order, 0, len(names))
	for i, name := range names {
		orders = append(orders, models.Order{
			ID:              "gid://shopify/Order/" + string(rune('1'+i)),
			Name:            name,
			CreatedAt:       now.Add(-time.Hour),
			FinancialStatus: "PAID",
			TotalPrice:      decimal.NewFromInt(10),
			Currency:        "EUR",
			LineItems: []models.OrderLineItem{
				{ID: "li", Title: "Widget", Quantity: 2, SKU: "W-1", Price: decimal.NewFromInt(5), Currency: "EUR"},
			},
		})
	}
	return orders
}

func newTestExecutor(fetcher OrderFetcher, sender OrderSender, reporter ReportGenerator, publisher EventPublisher, policy FailurePolicy, maxFailures int) *Executor {
	return NewExecutor(fetcher, mapper.New(shopID), sender, reporter, publisher, Config{
		FailurePolicy:          policy,
		MaxConsecutiveFailures: maxFailures,
		Now:                    func() time.Time { return now },
		NewRunID:               func() uuid.UUID { return runID },
	}, testLogger())
}

func TestRunForwardsAllOrders(t *testing.T) {
	fetcher := &fakeFetcher{orders: makeOrders("#1001", "#1002")}
	sender := &fakeSender{}
	reporter := &fakeReporter{}
	publisher := &fakePublisher{}

	result, err := newTestExecutor(fetcher, sender, reporter, publisher, FailureAbort, 0).Run(context.Background(), 14)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(fetcher.days) != 1 || fetcher.days[0] != 14 {
		t.Errorf("Expected one fetch for 14 days, got %v", fetcher.days)
	}
	if len(sender.sent) != 2 || sender.sent[0] != "#1001" || sender.sent[1] != "#1002" {
		t.Errorf("Expected orders sent in fetch order, got %v", sender.sent)
	}
	if len(result.Sent) != 2 || len(result.Failed) != 0 {
		t.Errorf("Expected 2 sent and 0 failed, got %d and %d", len(result.Sent), len(result.Failed))
	}
	if result.Sent[0].Payload.ShopInstanceID != shopID {
		t.Errorf("Expected payload for shop %s, got %s", shopID, result.Sent[0].Payload.ShopInstanceID)
	}
	if result.RunID != runID || result.ReportPath == "" {
		t.Errorf("Unexpected run metadata: %+v", result)
	}
	if len(reporter.results) != 1 || len(reporter.results[0].Orders) != 2 {
		t.Errorf("Expected the report to receive all loaded orders")
	}

	if len(publisher.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.RunID != runID || event.ShopifyOrderID != "gid://shopify/Order/1" || event.ItemCount != 1 || event.ShopInstanceID != shopID {
		t.Errorf("Unexpected event: %+v", event)
	}
}

func TestRunWithoutOrdersStillWritesReport(t *testing.T) {
	reporter := &fakeReporter{}

	result, err := newTestExecutor(&fakeFetcher{}, &fakeSender{}, reporter, nil, FailureAbort, 0).Run(context.Background(), 7)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(reporter.results) != 1 {
		t.Errorf("Expected report to be written once, got %d", len(reporter.results))
	}
	if len(result.Orders) != 0 || len(result.Sent) != 0 {
		t.Errorf("Expected empty run, got %+v", result)
	}
}

func TestRunFetchErrorAborts(t *testing.T) {
	fetchErr := errors.New("shopify graphql error: throttled")
	sender := &fakeSender{}
	reporter := &fakeReporter{}

	_, err := newTestExecutor(&fakeFetcher{err: fetchErr}, sender, reporter, nil, FailureContinue, 0).Run(context.Background(), 14)
	if !errors.Is(err, fetchErr) {
		t.Errorf("Expected fetch error, got %v", err)
	}
	if len(sender.sent) != 0 || len(reporter.results) != 0 {
		t.Error("Expected nothing sent and no report after fetch failure")
	}
}

func TestRunAbortPolicy(t *testing.T) {
	apiErr := &everstox.APIError{StatusCode: 400, Body: "bad sku"}
	sender := &fakeSender{failFor: map[string]error{"#1002": apiErr}}
	reporter := &fakeReporter{}

	result, err := newTestExecutor(&fakeFetcher{orders: makeOrders("#1001", "#1002", "#1003")}, sender, reporter, nil, FailureAbort, 0).Run(context.Background(), 14)

	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("Expected SubmissionError, got %v", err)
	}
	if subErr.OrderNumber != "#1002" || !errors.Is(err, apiErr) {
		t.Errorf("Unexpected submission error: %v", subErr)
	}
	if len(sender.sent) != 2 {
		t.Errorf("Expected run to stop after the failing order, sent %v", sender.sent)
	}
	if len(reporter.results) != 0 {
		t.Error("Expected no report in abort mode")
	}
	if len(result.Sent) != 1 {
		t.Errorf("Expected 1 sent order before abort, got %d", len(result.Sent))
	}
	if result.Circuit != nil {
		t.Errorf("Expected no circuit summary in abort mode, got %+v", result.Circuit)
	}
}

func TestRunContinuePolicy(t *testing.T) {
	apiErr := &everstox.APIError{StatusCode: 422, Body: "invalid address"}
	sender := &fakeSender{failFor: map[string]error{"#1002": apiErr}}
	reporter := &fakeReporter{}
	publisher := &fakePublisher{}

	result, err := newTestExecutor(&fakeFetcher{orders: makeOrders("#1001", "#1002", "#1003")}, sender, reporter, publisher, FailureContinue, 5).Run(context.Background(), 14)

	if !errors.Is(err, apiErr) {
		t.Errorf("Expected joined error to contain API error, got %v", err)
	}
	if len(sender.sent) != 3 {
		t.Errorf("Expected every order attempted, got %v", sender.sent)
	}
	if len(result.Sent) != 2 || len(result.Failed) != 1 {
		t.Fatalf("Expected 2 sent and 1 failed, got %d and %d", len(result.Sent), len(result.Failed))
	}
	if result.Failed[0].Source.Name != "#1002" || result.Failed[0].Error != apiErr.Error() {
		t.Errorf("Unexpected failed order: %+v", result.Failed[0])
	}
	if len(reporter.results) != 1 {
		t.Error("Expected report to be written in continue mode")
	}
	if len(publisher.events) != 2 {
		t.Errorf("Expected events only for sent orders, got %d", len(publisher.events))
	}
}

func TestRunContinuePolicyOpensCircuit(t *testing.T) {
	down := errors.New("connection refused")
	failing := map[string]error{}
	names := []string{"#1", "#2", "#3", "#4", "#5"}
	for _, n := range names {
		failing[n] = down
	}
	sender := &fakeSender{failFor: failing}

	result, err := newTestExecutor(&fakeFetcher{orders: makeOrders(names...)}, sender, &fakeReporter{}, nil, FailureContinue, 2).Run(context.Background(), 14)

	if !errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		t.Errorf("Expected open circuit in joined error, got %v", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("Expected only 2 attempts before the circuit opened, got %v", sender.sent)
	}
	if len(result.Failed) != 5 {
		t.Errorf("Expected all 5 orders recorded as failed, got %d", len(result.Failed))
	}
	if result.Circuit == nil {
		t.Fatal("Expected circuit summary in continue mode")
	}
	if result.Circuit.State != "open" || result.Circuit.Failures != 2 || result.Circuit.Rejected != 3 {
		t.Errorf("Unexpected circuit summary: %+v", result.Circuit)
	}
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("kafka down")}

	result, err := newTestExecutor(&fakeFetcher{orders: makeOrders("#1001")}, &fakeSender{}, &fakeReporter{}, publisher, FailureAbort, 0).Run(context.Background(), 14)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Sent) != 1 {
		t.Errorf("Expected order to count as sent, got %d", len(result.Sent))
	}
}

func TestRunReportFailure(t *testing.T) {
	reportErr := errors.New("read-only filesystem")

	_, err := newTestExecutor(&fakeFetcher{orders: makeOrders("#1001")}, &fakeSender{}, &fakeReporter{err: reportErr}, nil, FailureAbort, 0).Run(context.Background(), 14)
	if !errors.Is(err, reportErr) {
		t.Errorf("Expected report error, got %v", err)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &fakeSender{}

	_, err := newTestExecutor(&fakeFetcher{orders: makeOrders("#1001")}, sender, &fakeReporter{}, nil, FailureAbort, 0).Run(ctx, 14)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("Expected nothing sent, got %v", sender.sent)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected FailurePolicy
		wantErr  bool
	}{
		{input: "", expected: FailureAbort},
		{input: "abort", expected: FailureAbort},
		{input: "Continue", expected: FailureContinue},
		{input: "retry", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFailurePolicy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFailurePolicy(%q): expected error=%v, got %v", tt.input, tt.wantErr, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseFailurePolicy(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}
