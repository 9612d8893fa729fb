package everstox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL  = "https://api.everstox.com"
	CreateOrderPath = "/fulfillment/api/v1/orders/"
)

// APIError is returned for any non-2xx response from the create-order endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("everstox API error %d: %s", e.StatusCode, e.Body)
}

// Acknowledgement is the decoded JSON body of an accepted order.
type Acknowledgement map[string]interface{}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + CreateOrderPath,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SendOrder submits one order payload and returns the acknowledgement.
func (c *Client) SendOrder(ctx context.Context, order *models.EverstoxOrder) (Acknowledgement, error) {
	c.logger.WithField("order_number", order.OrderNumber).Info("Sending order to Everstox")

	jsonData, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Everstox: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Everstox response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	ack := Acknowledgement{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &ack); err != nil {
			return nil, fmt.Errorf("failed to decode Everstox response: %w", err)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"status":       resp.StatusCode,
	}).Info("Order accepted by Everstox")

	return ack, nil
}
