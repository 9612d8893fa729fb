package everstox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testOrder() *models.EverstoxOrder {
	return &models.EverstoxOrder{
		ShopInstanceID:  uuid.MustParse("6f1c2d1e-8a8b-4a52-9d3c-3b1f0e2a7c11"),
		OrderNumber:     "#1001",
		OrderDate:       time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		CustomerEmail:   "jane@example.com",
		FinancialStatus: "PAID",
		OrderItems: []models.OrderItem{
			{Quantity: 1, Product: models.Product{SKU: "A"}},
		},
	}
}

func TestSendOrder(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotPayload)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status": "accepted"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "key-123", time.Second, testLogger())

	ack, err := client.SendOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotPath != CreateOrderPath {
		t.Errorf("Expected path %s, got %s", CreateOrderPath, gotPath)
	}
	if gotAuth != "Token key-123" {
		t.Errorf("Expected token auth header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if gotPayload["order_number"] != "#1001" {
		t.Errorf("Unexpected payload order number: %v", gotPayload["order_number"])
	}
	if _, present := gotPayload["payment_method_id"]; present {
		t.Error("Expected absent optional fields to be omitted")
	}
	if ack["status"] != "accepted" {
		t.Errorf("Unexpected acknowledgement: %v", ack)
	}
}

func TestSendOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "invalid shop_instance_id"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second, testLogger())

	_, err := client.SendOrder(context.Background(), testOrder())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
	want := `everstox API error 400: {"detail": "invalid shop_instance_id"}`
	if apiErr.Error() != want {
		t.Errorf("Expected %q, got %q", want, apiErr.Error())
	}
}

func TestSendOrderEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second, testLogger())

	ack, err := client.SendOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ack) != 0 {
		t.Errorf("Expected empty acknowledgement, got %v", ack)
	}
}
