// Package receiver implements a stand-in for the Everstox create-order API,
// used to exercise the forwarder end to end without a real account.
package receiver

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/pkg/models"
)

var ErrNotFound = errors.New("order not found")

// StoredOrder is an accepted payload plus the id the receiver assigned to it.
type StoredOrder struct {
	ID         uuid.UUID            `json:"id"`
	ReceivedAt time.Time            `json:"received_at"`
	Order      models.EverstoxOrder `json:"order"`
}

type Store interface {
	Save(ctx context.Context, order StoredOrder) error
	Get(ctx context.Context, id uuid.UUID) (StoredOrder, error)
	List(ctx context.Context) ([]StoredOrder, error)
	Ping(ctx context.Context) error
}

type MemoryStore struct {
	orders map[uuid.UUID]StoredOrder
	mutex  sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[uuid.UUID]StoredOrder),
	}
}

func (s *MemoryStore) Save(ctx context.Context, order StoredOrder) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (StoredOrder, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return StoredOrder{}, ErrNotFound
	}
	return order, nil
}

// List returns orders oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]StoredOrder, error) {
	s.mutex.RLock()
	orders := make([]StoredOrder, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	s.mutex.RUnlock()

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].ReceivedAt.Before(orders[j].ReceivedAt)
	})
	return orders, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
