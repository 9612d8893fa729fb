package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func strPtr(s string) *string { return &s }

func sampleResult() *models.RunResult {
	started := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	first := models.Order{
		ID:                "gid://shopify/Order/1",
		Name:              "#1001",
		CreatedAt:         started.Add(-24 * time.Hour),
		FinancialStatus:   "PAID",
		FulfillmentStatus: strPtr("UNFULFILLED"),
		TotalPrice:        decimal.RequireFromString("42.50"),
		Currency:          "EUR",
	}
	second := models.Order{
		ID:              "gid://shopify/Order/2",
		Name:            "#1002<script>",
		CreatedAt:       started.Add(-48 * time.Hour),
		FinancialStatus: "PAID",
		TotalPrice:      decimal.RequireFromString("10"),
		Currency:        "EUR",
	}

	return &models.RunResult{
		RunID:      uuid.MustParse("6f1c2b1e-8a8f-4c1e-9d7e-0d3f5b7a9c11"),
		Days:       14,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Orders:     []models.Order{first, second},
		Sent: []models.SentOrder{{
			Source: first,
			Payload: models.EverstoxOrder{
				OrderNumber: "#1001",
				OrderItems: []models.OrderItem{
					{Quantity: 2, Product: models.Product{SKU: "SKU-1"}},
					{Quantity: 1, Product: models.Product{SKU: "SKU-2"}},
				},
			},
		}},
		Failed: []models.FailedOrder{{
			Source:  second,
			Payload: models.EverstoxOrder{OrderNumber: "#1002"},
			Error:   "everstox API error 400: invalid sku",
		}},
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(r *models.RunResult)
		expectedStatus string
		expectedRate   float64
	}{
		{
			name:           "partial_run",
			mutate:         func(r *models.RunResult) {},
			expectedStatus: StatusPartial,
			expectedRate:   50,
		},
		{
			name:           "all_sent",
			mutate:         func(r *models.RunResult) { r.Failed = nil },
			expectedStatus: StatusSuccess,
			expectedRate:   100,
		},
		{
			name:           "all_failed",
			mutate:         func(r *models.RunResult) { r.Sent = nil },
			expectedStatus: StatusFailed,
			expectedRate:   0,
		},
		{
			name: "nothing_loaded",
			mutate: func(r *models.RunResult) {
				r.Orders, r.Sent, r.Failed = nil, nil, nil
			},
			expectedStatus: StatusEmpty,
			expectedRate:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sampleResult()
			tt.mutate(result)

			stats := Analyze(result)
			if stats.OverallStatus != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, stats.OverallStatus)
			}
			if stats.SuccessRate != tt.expectedRate {
				t.Errorf("Expected success rate %.2f, got %.2f", tt.expectedRate, stats.SuccessRate)
			}
		})
	}
}

func TestAnalyzeCountsItemsAndDuration(t *testing.T) {
	stats := Analyze(sampleResult())

	if stats.Items != 3 {
		t.Errorf("Expected 3 items, got %d", stats.Items)
	}
	if stats.Duration != 3*time.Second {
		t.Errorf("Expected duration 3s, got %s", stats.Duration)
	}
	if stats.FailuresByError["everstox API error 400: invalid sku"] != 1 {
		t.Errorf("Expected failure grouped by error, got %v", stats.FailuresByError)
	}
}

func TestGenerateWritesTimestampedFile(t *testing.T) {
	tests := []struct {
		format       Format
		expectedName string
		contains     []string
	}{
		{
			format:       FormatHTML,
			expectedName: "report_2025-06-15T12-00-05.html",
			contains: []string{
				"<h1>Shopify to Everstox Report</h1>",
				`<span class="badge badge-paid">PAID</span>`,
				`<span class="badge badge-unfulfilled">UNFULFILLED</span>`,
				"42.5 EUR",
				"&#34;order_number&#34;: &#34;#1001&#34;",
				"#1002&lt;script&gt;",
				"everstox API error 400: invalid sku",
			},
		},
		{
			format:       FormatSummary,
			expectedName: "report_2025-06-15T12-00-05.txt",
			contains: []string{
				"Orders loaded: 2",
				"Sent to Everstox: 1",
				"Failed: 1",
				"STATUS: PARTIAL",
			},
		},
		{
			format:       FormatJSON,
			expectedName: "report_2025-06-15T12-00-05.json",
			contains: []string{
				`"overall_status": "partial"`,
				`"run_id": "6f1c2b1e-8a8f-4c1e-9d7e-0d3f5b7a9c11"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "reports")
			gen := NewGenerator(dir, tt.format, testLogger())
			gen.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 5, 0, time.UTC) }

			path, err := gen.Generate(sampleResult())
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if filepath.Base(path) != tt.expectedName {
				t.Errorf("Expected file %s, got %s", tt.expectedName, filepath.Base(path))
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read report: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(string(data), want) {
					t.Errorf("Expected report to contain %q", want)
				}
			}
		})
	}
}

func TestReportsShowCircuitBreaker(t *testing.T) {
	result := sampleResult()
	result.Circuit = &models.CircuitSummary{State: "open", Failures: 5, Rejected: 4, StateChanges: 1}
	generatedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		format   Format
		contains []string
	}{
		{format: FormatSummary, contains: []string{"Circuit breaker: open (4 rejected)", "4 orders were not attempted"}},
		{format: FormatHTML, contains: []string{"Everstox circuit breaker: open &middot; 4 rejected"}},
		{format: FormatJSON, contains: []string{`"circuit_state": "open"`, `"rejected": 4`}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			data, err := NewGenerator(t.TempDir(), tt.format, testLogger()).Render(result, generatedAt)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(string(data), want) {
					t.Errorf("Expected report to contain %q", want)
				}
			}
		})
	}

	summary := string(summaryReport(sampleResult(), Analyze(sampleResult()), generatedAt))
	if !strings.Contains(summary, "Circuit breaker: not used") {
		t.Error("Expected summary to mark the circuit breaker as unused in abort mode")
	}
}

func TestJSONReportIsValid(t *testing.T) {
	gen := NewGenerator(t.TempDir(), FormatJSON, testLogger())

	data, err := gen.Render(sampleResult(), time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var decoded struct {
		Statistics Statistics        `json:"statistics"`
		Result     *models.RunResult `json:"result"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded.Statistics.Sent != 1 || len(decoded.Result.Failed) != 1 {
		t.Errorf("Unexpected decoded report: %+v", decoded.Statistics)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{input: "", expected: FormatHTML},
		{input: "HTML", expected: FormatHTML},
		{input: " json ", expected: FormatJSON},
		{input: "summary", expected: FormatSummary},
		{input: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q): expected error=%v, got %v", tt.input, tt.wantErr, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseFormat(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}
