package services

import (
	"context"
	"fmt"

	"tavolo_server/database"
	"tavolo_server/structs/tables"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// orderStore persists orders and their item snapshots.
type orderStore interface {
	CreateOrder(ctx context.Context, order *tables.Order) error
	Order(ctx context.Context, orderID uuid.UUID) (*tables.Order, error)
	Orders(ctx context.Context, restaurantID uuid.UUID, status tables.OrderStatus, limit, offset int) ([]tables.Order, int, error)

	// TransitionStatus writes the order's new status, guarded on the
	// status the caller validated against. Returns false when the stored
	// status no longer matches, meaning a concurrent transition won.
	TransitionStatus(ctx context.Context, order *tables.Order, from tables.OrderStatus) (bool, error)
}

type pgOrderStore struct {
	db *database.DB
}

func newPgOrderStore(db *database.DB) *pgOrderStore {
	return &pgOrderStore{db: db}
}

func (s *pgOrderStore) CreateOrder(ctx context.Context, order *tables.Order) error {
	return database.Transaction(s.db, ctx, func(tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("order insert failed: %w", err)
		}
		if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
			return fmt.Errorf("order items insert failed: %w", err)
		}
		return nil
	})
}

func (s *pgOrderStore) Order(ctx context.Context, orderID uuid.UUID) (*tables.Order, error) {
	order := new(tables.Order)

	err := database.WithRetry(ctx, func() error {
		return s.db.NewSelect().
			Model(order).
			Relation("Items").
			Where("o.id = ?", orderID).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *pgOrderStore) Orders(ctx context.Context, restaurantID uuid.UUID, status tables.OrderStatus, limit, offset int) ([]tables.Order, int, error) {
	var orders []tables.Order
	var total int

	err := database.WithRetry(ctx, func() error {
		orders = nil

		query := s.db.NewSelect().
			Model(&orders).
			Relation("Items").
			Where("o.restaurant_id = ?", restaurantID)
		if status != "" {
			query = query.Where("o.status = ?", status)
		}

		count, err := query.
			Order("o.created_at DESC").
			Limit(limit).
			Offset(offset).
			ScanAndCount(ctx)
		if err != nil {
			return err
		}

		total = count
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// The status predicate makes the write conditional on the state the
// transition was validated against, so two racing transitions cannot
// both land; the loser matches zero rows.
const transitionStatusQuery = `
	UPDATE orders
	SET status = ?, updated_at = ?, completed_at = ?
	WHERE id = ? AND status = ?`

func (s *pgOrderStore) TransitionStatus(ctx context.Context, order *tables.Order, from tables.OrderStatus) (bool, error) {
	rows, err := database.RawExec(s.db, ctx, transitionStatusQuery,
		order.Status, order.UpdatedAt, order.CompletedAt,
		order.Id, from,
	)
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
