package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jogardn/order-forwarder/pkg/models"
)

const (
	StatusEmpty   = "empty"
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

type Statistics struct {
	Loaded          int            `json:"loaded"`
	Sent            int            `json:"sent"`
	Failed          int            `json:"failed"`
	Items           int            `json:"items"`
	SuccessRate     float64        `json:"success_rate"`
	Duration        time.Duration  `json:"duration"`
	OverallStatus   string         `json:"overall_status"`
	FailuresByError map[string]int `json:"failures_by_error,omitempty"`
	CircuitState    string         `json:"circuit_state,omitempty"`
	Rejected        int64          `json:"rejected,omitempty"`
}

// Analyze derives the headline numbers shown in every report format.
func Analyze(result *models.RunResult) Statistics {
	stats := Statistics{
		Loaded:   len(result.Orders),
		Sent:     len(result.Sent),
		Failed:   len(result.Failed),
		Duration: result.FinishedAt.Sub(result.StartedAt),
	}

	for _, sent := range result.Sent {
		for _, item := range sent.Payload.OrderItems {
			stats.Items += item.Quantity
		}
	}

	if stats.Failed > 0 {
		stats.FailuresByError = make(map[string]int)
		for _, failed := range result.Failed {
			stats.FailuresByError[failed.Error]++
		}
	}

	if result.Circuit != nil {
		stats.CircuitState = result.Circuit.State
		stats.Rejected = result.Circuit.Rejected
	}

	attempted := stats.Sent + stats.Failed
	if attempted > 0 {
		stats.SuccessRate = float64(stats.Sent) * 100 / float64(attempted)
	}

	switch {
	case attempted == 0:
		stats.OverallStatus = StatusEmpty
	case stats.Failed == 0:
		stats.OverallStatus = StatusSuccess
	case stats.Sent == 0:
		stats.OverallStatus = StatusFailed
	default:
		stats.OverallStatus = StatusPartial
	}

	return stats
}

func recommendations(stats Statistics) []string {
	var recs []string

	if stats.Failed > 0 {
		recs = append(recs, fmt.Sprintf("Review %d failed submissions and re-run once Everstox accepts them", stats.Failed))
	}

	if len(stats.FailuresByError) == 1 && stats.Failed > 1 {
		recs = append(recs, "All failures share one error, check credentials and the shop instance id")
	}

	if stats.CircuitState == "open" {
		recs = append(recs, fmt.Sprintf("Everstox circuit breaker opened, %d orders were not attempted", stats.Rejected))
	}

	if stats.Loaded == 0 {
		recs = append(recs, "No open paid orders in the look-back window")
	}

	if len(recs) == 0 {
		recs = append(recs, "All loaded orders were forwarded, no action required")
	}

	return recs
}

func summaryReport(result *models.RunResult, stats Statistics, generatedAt time.Time) []byte {
	var failures strings.Builder
	if len(result.Failed) == 0 {
		failures.WriteString("none\n")
	}
	for _, failed := range result.Failed {
		fmt.Fprintf(&failures, "%s: %s\n", failed.Source.Name, failed.Error)
	}

	report := fmt.Sprintf(`ORDER FORWARDING REPORT
=======================
Generated: %s
Run ID: %s
Look-back: %d days

OVERVIEW
--------
Orders loaded: %d
Sent to Everstox: %d
Failed: %d
Items forwarded: %d
Success rate: %.2f%%
Duration: %s
Circuit breaker: %s

FAILURES
--------
%s
RECOMMENDATIONS
---------------
%s

STATUS: %s
`,
		generatedAt.Format(time.RFC3339),
		result.RunID,
		result.Days,
		stats.Loaded,
		stats.Sent,
		stats.Failed,
		stats.Items,
		stats.SuccessRate,
		stats.Duration,
		circuitLine(stats),
		failures.String(),
		strings.Join(recommendations(stats), "\n"),
		strings.ToUpper(stats.OverallStatus))

	return []byte(report)
}

func circuitLine(stats Statistics) string {
	if stats.CircuitState == "" {
		return "not used"
	}
	return fmt.Sprintf("%s (%d rejected)", stats.CircuitState, stats.Rejected)
}
