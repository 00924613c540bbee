package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"tavolo_server/lib"
	"tavolo_server/structs"
	"tavolo_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memOrderStore keeps orders in memory and enforces the same guarded
// status write as the SQL store. onLoad lets a test slip a concurrent
// change in between the read and the write.
type memOrderStore struct {
	orders map[uuid.UUID]*tables.Order
	onLoad func()
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uuid.UUID]*tables.Order)}
}

func (m *memOrderStore) CreateOrder(_ context.Context, order *tables.Order) error {
	clone := *order
	m.orders[order.Id] = &clone
	return nil
}

func (m *memOrderStore) Order(_ context.Context, orderID uuid.UUID) (*tables.Order, error) {
	stored, ok := m.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	clone := *stored
	if m.onLoad != nil {
		m.onLoad()
	}
	return &clone, nil
}

func (m *memOrderStore) Orders(_ context.Context, restaurantID uuid.UUID, status tables.OrderStatus, limit, offset int) ([]tables.Order, int, error) {
	var result []tables.Order
	for _, order := range m.orders {
		if order.RestaurantId != restaurantID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		result = append(result, *order)
	}
	return result, len(result), nil
}

func (m *memOrderStore) TransitionStatus(_ context.Context, order *tables.Order, from tables.OrderStatus) (bool, error) {
	stored, ok := m.orders[order.Id]
	if !ok || stored.Status != from {
		return false, nil
	}

	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	stored.CompletedAt = order.CompletedAt
	return true, nil
}

func testOrderConfig() *structs.Config {
	return &structs.Config{Order: &structs.OrderConfig{TaxRate: 0.09}}
}

func newTestOrderService(store orderStore, preferences *PreferenceService) *OrderService {
	if preferences == nil {
		preferences = newPreferenceServiceWithStore(gecho.NewDefaultLogger(), newMemPreferenceStore())
	}
	return newOrderServiceWithStore(gecho.NewDefaultLogger(), testOrderConfig(), store, preferences)
}

func onlineOrderRequest(restaurantID uuid.UUID) *structs.OrderRequest {
	return &structs.OrderRequest{
		RestaurantId: restaurantID,
		OrderType:    tables.OrderTypeOnline,
		Items: []structs.OrderItemRequest{
			{MenuItemId: uuid.New(), ItemName: "Margherita", ItemPrice: 10.50, Quantity: 2},
			{MenuItemId: uuid.New(), ItemName: "Tiramisu", ItemPrice: 4.25, Quantity: 1},
		},
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	store := newMemOrderStore()
	service := newTestOrderService(store, nil)

	order, err := service.CreateOrder(context.Background(), onlineOrderRequest(uuid.New()))
	require.NoError(t, err)

	assert.InDelta(t, 25.25, order.Subtotal, 1e-9)
	assert.InDelta(t, 2.27, order.Tax, 1e-9)
	assert.InDelta(t, 27.52, order.Total, 1e-9)
	assert.Equal(t, tables.OrderStatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "TV-"))
	require.Len(t, order.Items, 2)
	assert.Equal(t, order.Id, order.Items[0].OrderId)
}

func TestCreateOrderValidation(t *testing.T) {
	restaurantID := uuid.New()

	tests := []struct {
		name   string
		mutate func(req *structs.OrderRequest)
	}{
		{name: "missing restaurant", mutate: func(req *structs.OrderRequest) { req.RestaurantId = uuid.Nil }},
		{name: "no items", mutate: func(req *structs.OrderRequest) { req.Items = nil }},
		{name: "table order without table", mutate: func(req *structs.OrderRequest) { req.OrderType = tables.OrderTypeTable }},
		{name: "negative discount", mutate: func(req *structs.OrderRequest) { req.Discount = -1 }},
		{name: "zero quantity item", mutate: func(req *structs.OrderRequest) { req.Items[0].Quantity = 0 }},
		{name: "discount exceeds total", mutate: func(req *structs.OrderRequest) { req.Discount = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestOrderService(newMemOrderStore(), nil)

			req := onlineOrderRequest(restaurantID)
			tt.mutate(req)

			_, err := service.CreateOrder(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func seedOrder(store *memOrderStore, status tables.OrderStatus, items ...*tables.OrderItem) *tables.Order {
	order := &tables.Order{
		Id:           uuid.New(),
		RestaurantId: uuid.New(),
		Status:       status,
		CreatedAt:    time.Now().UTC().Add(-time.Hour),
		UpdatedAt:    time.Now().UTC().Add(-time.Hour),
		Items:        items,
	}
	store.orders[order.Id] = order
	return order
}

func TestUpdateStatusAdvancesLifecycle(t *testing.T) {
	store := newMemOrderStore()
	order := seedOrder(store, tables.OrderStatusPending)
	service := newTestOrderService(store, nil)

	updated, err := service.UpdateStatus(context.Background(), order.Id, tables.OrderStatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, tables.OrderStatusConfirmed, updated.Status)
	assert.Nil(t, updated.CompletedAt, "a non-terminal transition must not stamp completed_at")
	assert.Equal(t, tables.OrderStatusConfirmed, store.orders[order.Id].Status)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	store := newMemOrderStore()
	order := seedOrder(store, tables.OrderStatusPending)
	service := newTestOrderService(store, nil)

	_, err := service.UpdateStatus(context.Background(), order.Id, tables.OrderStatusServed)
	require.ErrorIs(t, err, lib.ErrInvalidStatusChange)
	assert.Equal(t, tables.OrderStatusPending, store.orders[order.Id].Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	service := newTestOrderService(newMemOrderStore(), nil)

	_, err := service.UpdateStatus(context.Background(), uuid.New(), tables.OrderStatusConfirmed)
	require.ErrorIs(t, err, lib.ErrNotFound)
}

func TestUpdateStatusStampsCompletedAtOnTerminal(t *testing.T) {
	store := newMemOrderStore()
	order := seedOrder(store, tables.OrderStatusConfirmed)
	service := newTestOrderService(store, nil)

	updated, err := service.UpdateStatus(context.Background(), order.Id, tables.OrderStatusCancelled)
	require.NoError(t, err)

	require.NotNil(t, updated.CompletedAt)
	require.NotNil(t, store.orders[order.Id].CompletedAt)
}

func TestUpdateStatusLosesRaceCleanly(t *testing.T) {
	store := newMemOrderStore()
	order := seedOrder(store, tables.OrderStatusConfirmed)
	service := newTestOrderService(store, nil)

	// A cancellation commits after this request validated CONFIRMED but
	// before its own write lands.
	cancelledAt := time.Now().UTC()
	store.onLoad = func() {
		stored := store.orders[order.Id]
		stored.Status = tables.OrderStatusCancelled
		stored.CompletedAt = &cancelledAt
	}

	_, err := service.UpdateStatus(context.Background(), order.Id, tables.OrderStatusPreparing)
	require.ErrorIs(t, err, lib.ErrInvalidStatusChange)

	stored := store.orders[order.Id]
	assert.Equal(t, tables.OrderStatusCancelled, stored.Status, "the losing transition must not un-cancel the order")
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.Equal(cancelledAt))
}

func TestUpdateStatusCompletedTracksPreferences(t *testing.T) {
	store := newMemOrderStore()
	prefStore := newMemPreferenceStore()
	preferences := newPreferenceServiceWithStore(gecho.NewDefaultLogger(), prefStore)
	service := newTestOrderService(store, preferences)

	order := seedOrder(store, tables.OrderStatusServed, &tables.OrderItem{
		MenuItemId: uuid.New(),
		ItemName:   "Margherita",
		ItemPrice:  12.5,
		Quantity:   2,
	})
	order.CustomerEmail = "guest@example.com"

	_, err := service.UpdateStatus(context.Background(), order.Id, tables.OrderStatusCompleted)
	require.NoError(t, err)

	prefs, err := preferences.CustomerPreferences(context.Background(), order.RestaurantId, "email:guest@example.com", 10)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, 2, prefs[0].TotalQuantity)
}
