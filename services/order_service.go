package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"tavolo_server/database"
	"tavolo_server/lib"
	"tavolo_server/structs"
	"tavolo_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// OrderService owns the order lifecycle. Transitions are monotonic
// forward; the first entry into a terminal state stamps completed_at,
// and entering COMPLETED feeds the preference tracker.
type OrderService struct {
	logger      *gecho.Logger
	config      *structs.Config
	store       orderStore
	preferences *PreferenceService
}

func NewOrderService(logger *gecho.Logger, cfg *structs.Config, db *database.DB, preferences *PreferenceService) *OrderService {
	return &OrderService{
		logger:      logger,
		config:      cfg,
		store:       newPgOrderStore(db),
		preferences: preferences,
	}
}

func newOrderServiceWithStore(logger *gecho.Logger, cfg *structs.Config, store orderStore, preferences *PreferenceService) *OrderService {
	return &OrderService{
		logger:      logger,
		config:      cfg,
		store:       store,
		preferences: preferences,
	}
}

func (s *OrderService) validateRequest(req *structs.OrderRequest) error {
	if req.RestaurantId == uuid.Nil {
		return errors.New("restaurant_id is required")
	}
	if len(req.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	if req.OrderType == tables.OrderTypeTable && req.TableId == nil {
		return errors.New("table orders require a table_id")
	}
	if req.Discount < 0 {
		return errors.New("discount cannot be negative")
	}

	for i, item := range req.Items {
		if item.MenuItemId == uuid.Nil {
			return fmt.Errorf("item %d: menu_item_id is required", i)
		}
		if item.ItemName == "" {
			return fmt.Errorf("item %d: item_name is required", i)
		}
		if item.ItemPrice < 0 {
			return fmt.Errorf("item %d: item_price cannot be negative", i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i)
		}
	}

	return nil
}

// CreateOrder persists a new order with its item snapshots in one
// transaction. Pricing is computed server side from the snapshots.
func (s *OrderService) CreateOrder(ctx context.Context, req *structs.OrderRequest) (*tables.Order, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	var subtotal float64
	for _, item := range req.Items {
		subtotal += item.ItemPrice * float64(item.Quantity)
	}
	subtotal = roundMoney(subtotal)
	tax := roundMoney(subtotal * s.config.Order.TaxRate)

	total := roundMoney(subtotal + tax - req.Discount)
	if total < 0 {
		return nil, errors.New("discount exceeds order total")
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = tables.OrderTypeTable
	}

	now := time.Now().UTC()
	order := &tables.Order{
		Id:                  uuid.New(),
		RestaurantId:        req.RestaurantId,
		TableId:             req.TableId,
		OrderNumber:         lib.GenerateOrderNumber(),
		Status:              tables.OrderStatusPending,
		OrderType:           orderType,
		CustomerId:          req.CustomerId,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		Subtotal:            subtotal,
		Tax:                 tax,
		Discount:            req.Discount,
		Total:               total,
		SpecialInstructions: req.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	for _, item := range req.Items {
		order.Items = append(order.Items, &tables.OrderItem{
			Id:                  uuid.New(),
			OrderId:             order.Id,
			MenuItemId:          item.MenuItemId,
			ItemName:            item.ItemName,
			ItemPrice:           item.ItemPrice,
			ItemCategory:        item.ItemCategory,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
			CreatedAt:           now,
		})
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, lib.MapPgError(err)
	}

	s.logger.Info("Order created",
		gecho.Field("order_id", order.Id),
		gecho.Field("order_number", order.OrderNumber),
		gecho.Field("restaurant_id", order.RestaurantId),
		gecho.Field("total", order.Total),
	)

	return order, nil
}

// GetOrder loads a single order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*tables.Order, error) {
	order, err := s.store.Order(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lib.ErrNotFound
		}
		return nil, err
	}

	return order, nil
}

// ListOrders returns a restaurant's orders, newest first, with an
// optional status filter.
func (s *OrderService) ListOrders(ctx context.Context, restaurantID uuid.UUID, status tables.OrderStatus, page, pageSize int) ([]tables.Order, int, error) {
	return s.store.Orders(ctx, restaurantID, status, pageSize, (page-1)*pageSize)
}

// UpdateStatus applies one lifecycle transition. The write is guarded on
// the status the transition was validated against, so a concurrent
// transition cannot be overwritten; the loser gets an invalid-transition
// error instead. Entering COMPLETED triggers preference tracking after
// the write; the tracker is idempotent so a failed delivery can simply
// be retried.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next tables.OrderStatus) (*tables.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	prior := order.Status
	if !prior.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", lib.ErrInvalidStatusChange, prior, next)
	}

	now := time.Now().UTC()
	order.Status = next
	order.UpdatedAt = now
	if next.IsTerminal() && order.CompletedAt == nil {
		order.CompletedAt = &now
	}

	applied, err := s.store.TransitionStatus(ctx, order, prior)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: order status changed concurrently (%s -> %s)", lib.ErrInvalidStatusChange, prior, next)
	}

	s.logger.Info("Order status updated",
		gecho.Field("order_id", order.Id),
		gecho.Field("status", order.Status),
	)

	if next == tables.OrderStatusCompleted {
		if err := s.preferences.TrackCompletedOrder(ctx, order); err != nil {
			// Tracking failures never fail the transition; the guard
			// table makes a later replay safe.
			s.logger.Error("Preference tracking failed for completed order",
				gecho.Field("order_id", order.Id),
				gecho.Field("error", err),
			)
		}
	}

	return order, nil
}

// roundMoney rounds to cents, matching how totals are stored.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
