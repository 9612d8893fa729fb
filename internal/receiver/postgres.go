package receiver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type PostgresStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

// OpenPostgres connects, waits for the database to come up and creates the
// schema.
func OpenPostgres(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for i := 0; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			logger.Info("Database connection established")
			break
		}
		if i == 29 {
			db.Close()
			return nil, fmt.Errorf("database not reachable: %w", err)
		}
		logger.Info("Waiting for database...")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS everstox_orders (
			id UUID PRIMARY KEY,
			order_number VARCHAR(255) NOT NULL,
			shop_instance_id UUID NOT NULL,
			received_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_everstox_orders_order_number ON everstox_orders(order_number)`,
		`CREATE INDEX IF NOT EXISTS idx_everstox_orders_received_at ON everstox_orders(received_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

func (s *PostgresStore) Save(ctx context.Context, order StoredOrder) error {
	payload, err := json.Marshal(order.Order)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO everstox_orders (id, order_number, shop_instance_id, received_at, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		order.ID, order.Order.OrderNumber, order.Order.ShopInstanceID, order.ReceivedAt, payload)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (StoredOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, received_at, payload FROM everstox_orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredOrder{}, ErrNotFound
	}
	return order, err
}

func (s *PostgresStore) List(ctx context.Context) ([]StoredOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, received_at, payload FROM everstox_orders ORDER BY received_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []StoredOrder{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (StoredOrder, error) {
	var (
		order   StoredOrder
		payload []byte
	)
	if err := row.Scan(&order.ID, &order.ReceivedAt, &payload); err != nil {
		return StoredOrder{}, err
	}
	if err := json.Unmarshal(payload, &order.Order); err != nil {
		return StoredOrder{}, fmt.Errorf("corrupt payload for order %s: %w", order.ID, err)
	}
	return order, nil
}
