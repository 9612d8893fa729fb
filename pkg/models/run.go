package models

import (
	"time"

	"github.com/google/uuid"
)

// SentOrder pairs a loaded Shopify order with the payload accepted by Everstox.
type SentOrder struct {
	Source  Order         `json:"source"`
	Payload EverstoxOrder `json:"payload"`
}

// FailedOrder records a submission that did not go through.
type FailedOrder struct {
	Source  Order         `json:"source"`
	Payload EverstoxOrder `json:"payload"`
	Error   string        `json:"error"`
}

// CircuitSummary describes the sender circuit breaker at the end of a run
// in continue mode.
type CircuitSummary struct {
	State        string `json:"state"`
	Failures     int64  `json:"failures"`
	Rejected     int64  `json:"rejected"`
	StateChanges int64  `json:"state_changes"`
}

// RunResult is everything one pipeline pass produced, handed to the report
// generator.
type RunResult struct {
	RunID      uuid.UUID     `json:"run_id"`
	Days       int           `json:"days"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Orders     []Order       `json:"orders"`
	Sent       []SentOrder   `json:"sent"`
	Failed     []FailedOrder `json:"failed"`
	// Circuit is nil in abort mode.
	Circuit *CircuitSummary `json:"circuit,omitempty"`
	// ReportPath is set once the report has been written.
	ReportPath string `json:"report_path,omitempty"`
}
