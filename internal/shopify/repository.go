package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize   = 50
	DefaultCostBuffer = 50
	maxPageSize       = 250
)

// Executor issues a single GraphQL request. *Client implements it.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}) (*Response, error)
}

type RepositoryConfig struct {
	PageSize   int
	CostBuffer int
	Filter     TagFilter
	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep Sleeper
}

// OrderRepository loads paid, unshipped or partially shipped orders page by
// page, throttling against the cost budget reported by each page.
type OrderRepository struct {
	executor   Executor
	pageSize   int
	costBuffer int
	filter     TagFilter
	now        func() time.Time
	sleep      Sleeper
	logger     *logrus.Logger
}

func NewOrderRepository(executor Executor, config RepositoryConfig, logger *logrus.Logger) *OrderRepository {
	if config.PageSize <= 0 || config.PageSize > maxPageSize {
		logger.WithFields(logrus.Fields{
			"invalid_value": config.PageSize,
			"default_value": DefaultPageSize,
		}).Warn("Invalid PageSize value, using default")
		config.PageSize = DefaultPageSize
	}

	if config.CostBuffer < 0 {
		logger.WithFields(logrus.Fields{
			"invalid_value": config.CostBuffer,
			"default_value": DefaultCostBuffer,
		}).Warn("Invalid CostBuffer value, using default")
		config.CostBuffer = DefaultCostBuffer
	}

	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}

	return &OrderRepository{
		executor:   executor,
		pageSize:   config.PageSize,
		costBuffer: config.CostBuffer,
		filter:     config.Filter,
		now:        config.Now,
		sleep:      config.Sleep,
		logger:     logger,
	}
}

// SearchQuery builds the orders search expression for orders created at or
// after since.
func SearchQuery(since time.Time) string {
	return fmt.Sprintf(
		"financial_status:paid AND (fulfillment_status:unshipped OR fulfillment_status:partial) AND created_at:>=%s",
		since.UTC().Format("2006-01-02T15:04:05Z"),
	)
}

// FetchOrders returns the matching orders created in the last days days, in
// the order Shopify returns them.
func (r *OrderRepository) FetchOrders(ctx context.Context, days int) ([]models.Order, error) {
	if days < 0 {
		return nil, fmt.Errorf("days must be >= 0, got %d", days)
	}

	since := r.now().UTC().AddDate(0, 0, -days)
	search := SearchQuery(since)

	r.logger.WithFields(logrus.Fields{
		"days":      days,
		"since":     since.Format(time.RFC3339),
		"page_size": r.pageSize,
	}).Info("Fetching orders from Shopify")

	var (
		orders []models.Order
		cursor *string
		page   int
	)

	for {
		page++
		variables := map[string]interface{}{
			"query": search,
			"first": r.pageSize,
			"after": cursor,
		}

		resp, err := r.executor.Execute(ctx, ordersQuery, variables)
		if err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"operation": "FetchOrders",
				"page":      page,
			}).Error("Failed to fetch orders page")
			return nil, fmt.Errorf("fetch orders page %d: %w", page, err)
		}

		var data ordersData
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("decode orders page %d: %w", page, err)
		}
		if data.Orders == nil {
			return nil, &MappingError{OrderID: "<page>", Field: "orders"}
		}

		kept, err := r.collect(data.Orders.Edges)
		if err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"operation": "FetchOrders",
				"page":      page,
			}).Error("Failed to map order node")
			return nil, err
		}
		orders = append(orders, kept...)

		r.logger.WithFields(logrus.Fields{
			"page":  page,
			"edges": len(data.Orders.Edges),
			"kept":  len(kept),
		}).Debug("Orders page processed")

		info := data.Orders.PageInfo
		if !info.HasNextPage {
			break
		}
		if info.EndCursor == nil || *info.EndCursor == "" {
			return nil, &MappingError{OrderID: "<page>", Field: "pageInfo.endCursor"}
		}
		cursor = info.EndCursor

		if err := r.throttle(ctx, resp); err != nil {
			return nil, err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"pages":  page,
		"orders": len(orders),
	}).Info("Fetched orders from Shopify")

	return orders, nil
}

func (r *OrderRepository) throttle(ctx context.Context, resp *Response) error {
	if resp.Extensions == nil {
		return nil
	}

	delay := throttleDelay(resp.Extensions.Cost, r.costBuffer)
	if delay <= 0 {
		return nil
	}

	cost := resp.Extensions.Cost
	r.logger.WithFields(logrus.Fields{
		"actual_cost":  cost.ActualQueryCost,
		"available":    cost.ThrottleStatus.CurrentlyAvailable,
		"restore_rate": cost.ThrottleStatus.RestoreRate,
		"delay":        delay.String(),
	}).Info("Shopify cost budget low, waiting before next page")

	if err := r.sleep(ctx, delay); err != nil {
		return fmt.Errorf("throttle wait: %w", err)
	}
	return nil
}

func (r *OrderRepository) collect(edges []orderEdge) ([]models.Order, error) {
	kept := make([]models.Order, 0, len(edges))
	for i := range edges {
		node := &edges[i].Node
		tags := normalizeTags(node.Tags)

		if denied := r.filter.Denied(tags); len(denied) > 0 {
			r.logger.WithFields(logrus.Fields{
				"order_id":    stringValue(node.ID),
				"order_name":  stringValue(node.Name),
				"denied_tags": denied,
			}).Info("Skipping order with deny-listed tags")
			continue
		}
		if !r.filter.Allowed(tags) {
			r.logger.WithFields(logrus.Fields{
				"order_id":   stringValue(node.ID),
				"order_name": stringValue(node.Name),
				"tags":       tags,
			}).Debug("Skipping order without allow-listed tags")
			continue
		}

		order, err := mapNode(node)
		if err != nil {
			return nil, err
		}
		kept = append(kept, order)
	}
	return kept, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
