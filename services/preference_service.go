package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tavolo_server/database"
	"tavolo_server/lib"
	"tavolo_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PreferenceDelta is one order item's contribution to a customer's
// preference aggregates.
type PreferenceDelta struct {
	CustomerIdentifier string
	RestaurantId       uuid.UUID
	MenuItemId         uuid.UUID
	ItemName           string
	Quantity           int
	Spent              float64
	OrderedAt          time.Time
}

// preferenceOps is the write surface available inside a tracking transaction.
type preferenceOps interface {
	// MarkApplied records the (order, item) pair in the guard table.
	// Returns false when the pair was already applied.
	MarkApplied(ctx context.Context, orderID, menuItemID uuid.UUID) (bool, error)

	// ApplyDelta upserts the preference row, incrementing the aggregates.
	ApplyDelta(ctx context.Context, delta PreferenceDelta) error
}

type preferenceStore interface {
	RunInTx(ctx context.Context, fn func(ops preferenceOps) error) error
	CustomerPreferences(ctx context.Context, restaurantID uuid.UUID, customerIdentifier string, limit int) ([]tables.CustomerItemPreference, error)
}

// PreferenceService maintains per-customer RFM aggregates as orders
// complete. Replaying the same completion event is a no-op thanks to the
// applied-items guard, so callers may safely deliver at-least-once.
type PreferenceService struct {
	logger *gecho.Logger
	store  preferenceStore
}

func NewPreferenceService(logger *gecho.Logger, db *database.DB) *PreferenceService {
	return &PreferenceService{
		logger: logger,
		store:  newPgPreferenceStore(db),
	}
}

func newPreferenceServiceWithStore(logger *gecho.Logger, store preferenceStore) *PreferenceService {
	return &PreferenceService{logger: logger, store: store}
}

// TrackCompletedOrder folds a completed order into the customer's
// preference aggregates. Orders without any identity signal are skipped
// with a log line, never an error.
func (s *PreferenceService) TrackCompletedOrder(ctx context.Context, order *tables.Order) error {
	identifier, err := lib.ResolveCustomerIdentifier(order.CustomerId, order.CustomerEmail, order.CustomerPhone)
	if err != nil {
		if errors.Is(err, lib.ErrUnidentifiableCustomer) {
			s.logger.Info("Skipping preference tracking for unidentifiable customer",
				gecho.Field("order_id", order.Id),
				gecho.Field("restaurant_id", order.RestaurantId),
			)
			return nil
		}
		return err
	}

	orderedAt := order.CreatedAt
	if order.CompletedAt != nil {
		orderedAt = *order.CompletedAt
	}

	return s.store.RunInTx(ctx, func(ops preferenceOps) error {
		applied := 0
		for _, item := range order.Items {
			inserted, err := ops.MarkApplied(ctx, order.Id, item.MenuItemId)
			if err != nil {
				return fmt.Errorf("guard insert failed: %w", err)
			}
			if !inserted {
				// Already folded in by a previous delivery of this event.
				continue
			}

			delta := PreferenceDelta{
				CustomerIdentifier: identifier,
				RestaurantId:       order.RestaurantId,
				MenuItemId:         item.MenuItemId,
				ItemName:           item.ItemName,
				Quantity:           item.Quantity,
				Spent:              item.ItemPrice * float64(item.Quantity),
				OrderedAt:          orderedAt,
			}
			if err := ops.ApplyDelta(ctx, delta); err != nil {
				return fmt.Errorf("preference upsert failed: %w", err)
			}
			applied++
		}

		if applied > 0 {
			s.logger.Debug("Tracked order preferences",
				gecho.Field("order_id", order.Id),
				gecho.Field("customer", identifier),
				gecho.Field("items_applied", applied),
			)
		}
		return nil
	})
}

// CustomerPreferences returns a customer's preference rows with the
// derived recency and frequency scores filled in.
func (s *PreferenceService) CustomerPreferences(ctx context.Context, restaurantID uuid.UUID, customerIdentifier string, limit int) ([]tables.CustomerItemPreference, error) {
	prefs, err := s.store.CustomerPreferences(ctx, restaurantID, customerIdentifier, limit)
	if err != nil {
		return nil, fmt.Errorf("preference lookup failed: %w", err)
	}

	now := time.Now().UTC()
	for i := range prefs {
		prefs[i].ComputeScores(now)
	}

	return prefs, nil
}

// ============================================================================
// Postgres implementation
// ============================================================================

type pgPreferenceStore struct {
	db *database.DB
}

func newPgPreferenceStore(db *database.DB) *pgPreferenceStore {
	return &pgPreferenceStore{db: db}
}

type pgPreferenceOps struct {
	tx bun.Tx
}

func (s *pgPreferenceStore) RunInTx(ctx context.Context, fn func(ops preferenceOps) error) error {
	return database.Transaction(s.db, ctx, func(tx bun.Tx) error {
		return fn(&pgPreferenceOps{tx: tx})
	})
}

func (o *pgPreferenceOps) MarkApplied(ctx context.Context, orderID, menuItemID uuid.UUID) (bool, error) {
	res, err := o.tx.ExecContext(ctx, `
		INSERT INTO preference_applied_items (order_id, menu_item_id, applied_at)
		VALUES (?, ?, now())
		ON CONFLICT (order_id, menu_item_id) DO NOTHING`,
		orderID, menuItemID,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (o *pgPreferenceOps) ApplyDelta(ctx context.Context, delta PreferenceDelta) error {
	// first_ordered_at is deliberately absent from the update set so it
	// keeps the value from the customer's first qualifying order.
	_, err := o.tx.ExecContext(ctx, `
		INSERT INTO customer_item_preferences
			(customer_identifier, restaurant_id, menu_item_id, item_name,
			 order_count, total_quantity, total_spent,
			 first_ordered_at, last_ordered_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, now(), now())
		ON CONFLICT (customer_identifier, restaurant_id, menu_item_id) DO UPDATE SET
			order_count    = customer_item_preferences.order_count + 1,
			total_quantity = customer_item_preferences.total_quantity + EXCLUDED.total_quantity,
			total_spent    = customer_item_preferences.total_spent + EXCLUDED.total_spent,
			item_name      = EXCLUDED.item_name,
			last_ordered_at = GREATEST(customer_item_preferences.last_ordered_at, EXCLUDED.last_ordered_at),
			updated_at     = now()`,
		delta.CustomerIdentifier, delta.RestaurantId, delta.MenuItemId, delta.ItemName,
		delta.Quantity, delta.Spent,
		delta.OrderedAt, delta.OrderedAt,
	)
	return err
}

func (s *pgPreferenceStore) CustomerPreferences(ctx context.Context, restaurantID uuid.UUID, customerIdentifier string, limit int) ([]tables.CustomerItemPreference, error) {
	var prefs []tables.CustomerItemPreference

	err := database.WithRetry(ctx, func() error {
		prefs = nil
		return s.db.NewSelect().
			Model(&prefs).
			Where("restaurant_id = ?", restaurantID).
			Where("customer_identifier = ?", customerIdentifier).
			OrderExpr("order_count DESC, total_quantity DESC").
			Limit(limit).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	return prefs, nil
}
