package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientExecute(t *testing.T) {
	var gotToken string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {"orders": {"pageInfo": {"hasNextPage": false, "endCursor": null}, "edges": []}},
			"extensions": {"cost": {"requestedQueryCost": 52, "actualQueryCost": 12,
				"throttleStatus": {"maximumAvailable": 2000, "currentlyAvailable": 1988, "restoreRate": 100}}}
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{AccessToken: "secret", Endpoint: server.URL}, testLogger())

	resp, err := client.Execute(context.Background(), "query { shop { name } }", map[string]interface{}{"first": 50})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotToken != "secret" {
		t.Errorf("Expected access token header, got %q", gotToken)
	}
	if gotBody["query"] != "query { shop { name } }" {
		t.Errorf("Unexpected query in body: %v", gotBody["query"])
	}
	if vars, ok := gotBody["variables"].(map[string]interface{}); !ok || vars["first"] != float64(50) {
		t.Errorf("Unexpected variables in body: %v", gotBody["variables"])
	}

	if resp.Extensions == nil || resp.Extensions.Cost == nil {
		t.Fatal("Expected cost extensions")
	}
	cost := resp.Extensions.Cost
	if cost.ActualQueryCost != 12 || cost.ThrottleStatus.CurrentlyAvailable != 1988 || cost.ThrottleStatus.RestoreRate != 100 {
		t.Errorf("Unexpected cost: %+v", cost)
	}
	if len(resp.Data) == 0 {
		t.Error("Expected data payload")
	}
}

func TestClientExecuteGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "Throttled"}, {"message": "Access denied"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL}, testLogger())

	_, err := client.Execute(context.Background(), "query {}", nil)

	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("Expected GraphQLError, got %v", err)
	}
	if len(gqlErr.Errors) != 2 {
		t.Errorf("Expected 2 error entries, got %d", len(gqlErr.Errors))
	}
	if gqlErr.Error() != "shopify graphql error: Throttled; Access denied" {
		t.Errorf("Unexpected message: %s", gqlErr.Error())
	}
}

func TestClientExecuteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`invalid token`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL}, testLogger())

	_, err := client.Execute(context.Background(), "query {}", nil)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized || httpErr.Body != "invalid token" {
		t.Errorf("Unexpected error: %+v", httpErr)
	}
}

func TestNewClientEndpoint(t *testing.T) {
	client := NewClient(ClientConfig{ShopName: "acme"}, testLogger())

	want := "https://acme.myshopify.com/admin/api/2025-01/graphql.json"
	if client.endpoint != want {
		t.Errorf("Expected endpoint %s, got %s", want, client.endpoint)
	}
}
