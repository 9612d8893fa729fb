package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAPIVersion = "2025-01"

type ClientConfig struct {
	ShopName    string
	AccessToken string
	APIVersion  string
	// Endpoint overrides the URL derived from ShopName and APIVersion.
	Endpoint string
	Timeout  time.Duration
}

// Response is the decoded body of a successful GraphQL call.
type Response struct {
	Data       json.RawMessage `json:"data"`
	Extensions *Extensions     `json:"extensions,omitempty"`
}

type Extensions struct {
	Cost *QueryCost `json:"cost,omitempty"`
}

// Client is a thin wrapper over the Shopify Admin GraphQL endpoint.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	logger      *logrus.Logger
}

func NewClient(cfg ClientConfig, logger *logrus.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", cfg.ShopName, cfg.APIVersion)
	}

	return &Client{
		endpoint:    endpoint,
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Execute posts one GraphQL document and returns its data and cost
// extensions. A top-level errors list yields *GraphQLError.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*Response, error) {
	payload := map[string]interface{}{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("operation", "shopify.Execute").Error("Shopify request failed")
		return nil, fmt.Errorf("failed to send request to shopify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read shopify response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		c.logger.WithFields(logrus.Fields{
			"operation": "shopify.Execute",
			"status":    resp.StatusCode,
		}).Error("Shopify returned error status")
		return nil, httpErr
	}

	var envelope struct {
		Response
		Errors []GraphQLErrorEntry `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode shopify response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		gqlErr := &GraphQLError{Errors: envelope.Errors}
		c.logger.WithError(gqlErr).WithField("operation", "shopify.Execute").Error("Shopify returned graphql errors")
		return nil, gqlErr
	}

	return &envelope.Response, nil
}
