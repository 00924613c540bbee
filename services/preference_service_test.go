package services

import (
	"context"
	"testing"
	"time"

	"tavolo_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPreferenceStore replays the guard-then-increment logic in memory so
// the idempotence behavior can be exercised without Postgres.
type memPreferenceStore struct {
	applied     map[[2]uuid.UUID]bool
	preferences map[string]*tables.CustomerItemPreference
}

func newMemPreferenceStore() *memPreferenceStore {
	return &memPreferenceStore{
		applied:     make(map[[2]uuid.UUID]bool),
		preferences: make(map[string]*tables.CustomerItemPreference),
	}
}

func (m *memPreferenceStore) RunInTx(_ context.Context, fn func(ops preferenceOps) error) error {
	return fn(m)
}

func (m *memPreferenceStore) MarkApplied(_ context.Context, orderID, menuItemID uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{orderID, menuItemID}
	if m.applied[key] {
		return false, nil
	}
	m.applied[key] = true
	return true, nil
}

func (m *memPreferenceStore) ApplyDelta(_ context.Context, delta PreferenceDelta) error {
	key := delta.CustomerIdentifier + "|" + delta.RestaurantId.String() + "|" + delta.MenuItemId.String()

	pref, ok := m.preferences[key]
	if !ok {
		m.preferences[key] = &tables.CustomerItemPreference{
			CustomerIdentifier: delta.CustomerIdentifier,
			RestaurantId:       delta.RestaurantId,
			MenuItemId:         delta.MenuItemId,
			ItemName:           delta.ItemName,
			OrderCount:         1,
			TotalQuantity:      delta.Quantity,
			TotalSpent:         delta.Spent,
			FirstOrderedAt:     delta.OrderedAt,
			LastOrderedAt:      delta.OrderedAt,
		}
		return nil
	}

	pref.OrderCount++
	pref.TotalQuantity += delta.Quantity
	pref.TotalSpent += delta.Spent
	if delta.OrderedAt.After(pref.LastOrderedAt) {
		pref.LastOrderedAt = delta.OrderedAt
	}
	return nil
}

func (m *memPreferenceStore) CustomerPreferences(_ context.Context, restaurantID uuid.UUID, customerIdentifier string, limit int) ([]tables.CustomerItemPreference, error) {
	var result []tables.CustomerItemPreference
	for _, pref := range m.preferences {
		if pref.RestaurantId == restaurantID && pref.CustomerIdentifier == customerIdentifier {
			result = append(result, *pref)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func completedOrder(restaurantID uuid.UUID, email string, items ...*tables.OrderItem) *tables.Order {
	completedAt := time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)
	return &tables.Order{
		Id:            uuid.New(),
		RestaurantId:  restaurantID,
		Status:        tables.OrderStatusCompleted,
		CustomerEmail: email,
		CreatedAt:     completedAt.Add(-time.Hour),
		CompletedAt:   &completedAt,
		Items:         items,
	}
}

func TestTrackCompletedOrder(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()

	store := newMemPreferenceStore()
	service := newPreferenceServiceWithStore(gecho.NewDefaultLogger(), store)

	order := completedOrder(restaurantID, "Guest@Example.com", &tables.OrderItem{
		MenuItemId: itemID,
		ItemName:   "Margherita",
		ItemPrice:  12.5,
		Quantity:   2,
	})

	require.NoError(t, service.TrackCompletedOrder(context.Background(), order))

	prefs, err := service.CustomerPreferences(context.Background(), restaurantID, "email:guest@example.com", 10)
	require.NoError(t, err)
	require.Len(t, prefs, 1)

	assert.Equal(t, 1, prefs[0].OrderCount)
	assert.Equal(t, 2, prefs[0].TotalQuantity)
	assert.InDelta(t, 25.0, prefs[0].TotalSpent, 1e-9)
}

func TestTrackCompletedOrderIdempotent(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()

	store := newMemPreferenceStore()
	service := newPreferenceServiceWithStore(gecho.NewDefaultLogger(), store)

	order := completedOrder(restaurantID, "guest@example.com", &tables.OrderItem{
		MenuItemId: itemID,
		ItemName:   "Margherita",
		ItemPrice:  12.5,
		Quantity:   2,
	})

	// The completion event arrives three times.
	for range 3 {
		require.NoError(t, service.TrackCompletedOrder(context.Background(), order))
	}

	prefs, err := service.CustomerPreferences(context.Background(), restaurantID, "email:guest@example.com", 10)
	require.NoError(t, err)
	require.Len(t, prefs, 1)

	assert.Equal(t, 1, prefs[0].OrderCount, "replays must not double-count")
	assert.Equal(t, 2, prefs[0].TotalQuantity)
	assert.InDelta(t, 25.0, prefs[0].TotalSpent, 1e-9)
}

func TestTrackCompletedOrderAccumulatesAcrossOrders(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()

	store := newMemPreferenceStore()
	service := newPreferenceServiceWithStore(gecho.NewDefaultLogger(), store)

	first := completedOrder(restaurantID, "guest@example.com", &tables.OrderItem{
		MenuItemId: itemID, ItemName: "Margherita", ItemPrice: 12.5, Quantity: 1,
	})
	second := completedOrder(restaurantID, "guest@example.com", &tables.OrderItem{
		MenuItemId: itemID, ItemName: "Margherita", ItemPrice: 12.5, Quantity: 3,
	})

	require.NoError(t, service.TrackCompletedOrder(context.Background(), first))
	require.NoError(t, service.TrackCompletedOrder(context.Background(), second))

	prefs, err := service.CustomerPreferences(context.Background(), restaurantID, "email:guest@example.com", 10)
	require.NoError(t, err)
	require.Len(t, prefs, 1)

	assert.Equal(t, 2, prefs[0].OrderCount)
	assert.Equal(t, 4, prefs[0].TotalQuantity)
	assert.InDelta(t, 50.0, prefs[0].TotalSpent, 1e-9)
}

func TestTrackCompletedOrderSkipsUnidentifiable(t *testing.T) {
	store := newMemPreferenceStore()
	service := newPreferenceServiceWithStore(gecho.NewDefaultLogger(), store)

	order := completedOrder(uuid.New(), "", &tables.OrderItem{
		MenuItemId: uuid.New(), ItemName: "Margherita", ItemPrice: 12.5, Quantity: 1,
	})

	require.NoError(t, service.TrackCompletedOrder(context.Background(), order))
	assert.Empty(t, store.preferences, "walk-ins without identity leave no trace")
}

func TestComputeScores(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	pref := tables.CustomerItemPreference{
		OrderCount:     6,
		FirstOrderedAt: now.AddDate(0, 0, -90),
		LastOrderedAt:  now.AddDate(0, 0, -5),
	}
	pref.ComputeScores(now)

	assert.InDelta(t, 5.0, pref.RecencyScore, 1e-9)
	assert.InDelta(t, 2.0, pref.FrequencyScore, 1e-9) // 6 orders over 3 months

	// A customer whose first order was yesterday uses a one month floor.
	fresh := tables.CustomerItemPreference{
		OrderCount:     2,
		FirstOrderedAt: now.AddDate(0, 0, -1),
		LastOrderedAt:  now,
	}
	fresh.ComputeScores(now)
	assert.InDelta(t, 2.0, fresh.FrequencyScore, 1e-9)
	assert.Zero(t, fresh.RecencyScore)
}
