package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jogardn/order-forwarder/internal/everstox"
	"github.com/jogardn/order-forwarder/internal/websocket"
	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/sirupsen/logrus"
)

// Publisher receives a notification for every accepted order.
type Publisher interface {
	Publish(eventType string, data interface{})
}

type Handler struct {
	store     Store
	publisher Publisher
	apiKey    string
	newID     func() uuid.UUID
	now       func() time.Time
	logger    *logrus.Logger
}

// NewHandler builds the receiver. An empty apiKey disables authentication and
// a nil publisher disables live notifications.
func NewHandler(store Store, publisher Publisher, apiKey string, logger *logrus.Logger) *Handler {
	return &Handler{
		store:     store,
		publisher: publisher,
		apiKey:    apiKey,
		newID:     uuid.New,
		now:       time.Now,
		logger:    logger,
	}
}

// Register mounts the receiver routes on router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc(everstox.CreateOrderPath, h.CreateOrder).Methods("POST")
	router.HandleFunc(everstox.CreateOrderPath, h.ListOrders).Methods("GET")
	router.HandleFunc(everstox.CreateOrderPath+"{id}", h.GetOrder).Methods("GET")
}

type acceptedResponse struct {
	Status string    `json:"status"`
	ID     uuid.UUID `json:"id"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.respondWithError(w, http.StatusUnauthorized, "invalid or missing API token")
		return
	}

	var order models.EverstoxOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		h.logger.WithError(err).Error("Failed to decode order")
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateOrder(&order); err != nil {
		h.logger.WithError(err).WithField("order_number", order.OrderNumber).Warn("Rejected order")
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored := StoredOrder{
		ID:         h.newID(),
		ReceivedAt: h.now().UTC(),
		Order:      order,
	}
	if err := h.store.Save(r.Context(), stored); err != nil {
		h.logger.WithError(err).Error("Failed to store order")
		h.respondWithError(w, http.StatusInternalServerError, "failed to store order")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"id":           stored.ID,
		"order_number": order.OrderNumber,
		"items":        len(order.OrderItems),
	}).Info("Order received")

	if h.publisher != nil {
		h.publisher.Publish(websocket.EventOrderReceived, stored)
	}

	h.respondWithJSON(w, http.StatusCreated, acceptedResponse{Status: "accepted", ID: stored.ID})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		h.respondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get order")
		h.respondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": "everstox-mock",
			"error":   "store unavailable",
		})
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "everstox-mock",
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.apiKey == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Token ")
	return ok && token == h.apiKey
}

func validateOrder(order *models.EverstoxOrder) error {
	if order.ShopInstanceID == uuid.Nil {
		return errors.New("shop_instance_id is required")
	}
	if strings.TrimSpace(order.OrderNumber) == "" {
		return errors.New("order_number is required")
	}
	if len(order.OrderItems) == 0 {
		return errors.New("order_items must not be empty")
	}
	for i, item := range order.OrderItems {
		if item.Quantity < 1 {
			return fmt.Errorf("order_items[%d].quantity must be at least 1", i)
		}
	}
	return nil
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal response")
		code = http.StatusInternalServerError
		response = []byte(`{"status":"error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{
		"status": "rejected",
		"error":  message,
	})
}
