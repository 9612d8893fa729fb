package shopify

import (
	"context"
	"time"
)

// QueryCost is the cost extension Shopify attaches to every response.
type QueryCost struct {
	RequestedQueryCost float64         `json:"requestedQueryCost"`
	ActualQueryCost    float64         `json:"actualQueryCost"`
	ThrottleStatus     *ThrottleStatus `json:"throttleStatus,omitempty"`
}

type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// throttleDelay returns how long to wait before the next page so the bucket
// holds at least the last query's cost plus buffer. It only looks at the last
// observed budget.
func throttleDelay(cost *QueryCost, buffer int) time.Duration {
	if cost == nil || cost.ThrottleStatus == nil {
		return 0
	}

	status := cost.ThrottleStatus
	needed := cost.ActualQueryCost + float64(buffer)
	if status.CurrentlyAvailable >= needed || status.RestoreRate <= 0 {
		return 0
	}

	points := needed - status.CurrentlyAvailable
	return time.Duration(points / status.RestoreRate * float64(time.Second))
}
