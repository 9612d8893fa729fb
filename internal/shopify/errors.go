package shopify

import (
	"fmt"
	"strings"
)

// GraphQLErrorEntry is one element of a GraphQL top-level errors list.
type GraphQLErrorEntry struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLError is returned when the Admin API answers with an errors list
// instead of data.
type GraphQLError struct {
	Errors []GraphQLErrorEntry
}

func (e *GraphQLError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		messages = append(messages, entry.Message)
	}
	return "shopify graphql error: " + strings.Join(messages, "; ")
}

// HTTPError is returned for non-2xx responses from the GraphQL endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("shopify returned error status %d: %s", e.StatusCode, e.Body)
}

// MappingError marks a node that lacks a required field or carries a value
// that cannot be parsed.
type MappingError struct {
	OrderID string
	Field   string
	Reason  string
}

func (e *MappingError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("shopify order %s: field %q: %s", e.OrderID, e.Field, e.Reason)
	}
	return fmt.Sprintf("shopify order %s: missing required field %q", e.OrderID, e.Field)
}
