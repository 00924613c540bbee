package services

import (
	"context"
	"testing"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecommendationStore struct {
	seeds       []seedRow
	pairs       []coOccurrenceRow
	popularity  []popularityRow
	popular     []popularRow
	popularHits int
}

func (f *fakeRecommendationStore) CustomerSeeds(_ context.Context, _ uuid.UUID, _ string) ([]seedRow, error) {
	return f.seeds, nil
}

func (f *fakeRecommendationStore) CoOccurrences(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ time.Time) ([]coOccurrenceRow, error) {
	return f.pairs, nil
}

func (f *fakeRecommendationStore) ItemPopularity(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ time.Time) ([]popularityRow, error) {
	return f.popularity, nil
}

func (f *fakeRecommendationStore) PopularItems(_ context.Context, _ uuid.UUID, _ time.Time, limit int) ([]popularRow, error) {
	f.popularHits++
	if len(f.popular) > limit {
		return f.popular[:limit], nil
	}
	return f.popular, nil
}

func newTestRecommendationService(store recommendationStore) *RecommendationService {
	return newRecommendationServiceWithStore(gecho.NewDefaultLogger(), store)
}

func TestRecommendationsFallbackForNewCustomer(t *testing.T) {
	store := &fakeRecommendationStore{
		popular: []popularRow{
			{MenuItemId: uuid.New(), ItemName: "Margherita", OrderCount: 50},
			{MenuItemId: uuid.New(), ItemName: "Carbonara", OrderCount: 30},
		},
	}
	service := newTestRecommendationService(store)

	recs, err := service.Recommendations(context.Background(), uuid.New(), "email:new@example.com", 10)
	require.NoError(t, err)

	require.Len(t, recs, 2, "fallback must never return empty when the restaurant has recent sales")
	for _, rec := range recs {
		assert.InDelta(t, 0.5, rec.Confidence, 1e-9)
		assert.Equal(t, "Popular item at this restaurant", rec.Reason)
	}
}

func TestRecommendationsCollaborative(t *testing.T) {
	seedID := uuid.New()
	candidateA := uuid.New()
	candidateB := uuid.New()

	store := &fakeRecommendationStore{
		seeds: []seedRow{{MenuItemId: seedID, ItemName: "Margherita", OrderCount: 5}},
		pairs: []coOccurrenceRow{
			{SeedItemId: seedID, MenuItemId: candidateA, CoOccurrence: 20},
			{SeedItemId: seedID, MenuItemId: candidateB, CoOccurrence: 5},
			// Seed items never recommend themselves.
			{SeedItemId: seedID, MenuItemId: seedID, CoOccurrence: 99},
		},
		popularity: []popularityRow{
			{MenuItemId: candidateA, ItemName: "Tiramisu", Popularity: 10},
			{MenuItemId: candidateB, ItemName: "Bruschetta", Popularity: 1},
		},
	}
	service := newTestRecommendationService(store)

	recs, err := service.Recommendations(context.Background(), uuid.New(), "email:regular@example.com", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// 20 × (1 + ln 10) / 100 ≈ 0.66 beats 5 × (1 + ln 1) / 100 = 0.05.
	assert.Equal(t, "Tiramisu", recs[0].ItemName)
	assert.InDelta(t, 0.6605, recs[0].Confidence, 0.001)
	assert.Equal(t, "Bruschetta", recs[1].ItemName)
	assert.InDelta(t, 0.05, recs[1].Confidence, 1e-9)
	assert.Equal(t, "Customers who liked your favorites also love this", recs[0].Reason)
	assert.Zero(t, store.popularHits)
}

func TestRecommendationsConfidenceClamped(t *testing.T) {
	seedID := uuid.New()
	candidate := uuid.New()

	store := &fakeRecommendationStore{
		seeds: []seedRow{{MenuItemId: seedID, OrderCount: 8}},
		pairs: []coOccurrenceRow{
			{SeedItemId: seedID, MenuItemId: candidate, CoOccurrence: 500},
		},
		popularity: []popularityRow{
			{MenuItemId: candidate, ItemName: "Carbonara", Popularity: 200},
		},
	}
	service := newTestRecommendationService(store)

	recs, err := service.Recommendations(context.Background(), uuid.New(), "customer:abc", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1.0, recs[0].Confidence, 1e-9)
}

func TestRecommendationsLimit(t *testing.T) {
	seedID := uuid.New()
	store := &fakeRecommendationStore{
		seeds: []seedRow{{MenuItemId: seedID, OrderCount: 3}},
	}

	for i := 0; i < 5; i++ {
		candidate := uuid.New()
		store.pairs = append(store.pairs, coOccurrenceRow{
			SeedItemId: seedID, MenuItemId: candidate, CoOccurrence: 10 - i,
		})
		store.popularity = append(store.popularity, popularityRow{
			MenuItemId: candidate, ItemName: "Item", Popularity: 5,
		})
	}
	service := newTestRecommendationService(store)

	recs, err := service.Recommendations(context.Background(), uuid.New(), "customer:abc", 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.GreaterOrEqual(t, recs[0].Confidence, recs[1].Confidence)
	assert.GreaterOrEqual(t, recs[1].Confidence, recs[2].Confidence)
}

func TestRecommendationsFallbackWhenNoCoOccurrence(t *testing.T) {
	store := &fakeRecommendationStore{
		seeds: []seedRow{{MenuItemId: uuid.New(), OrderCount: 4}},
		popular: []popularRow{
			{MenuItemId: uuid.New(), ItemName: "Margherita", OrderCount: 12},
		},
	}
	service := newTestRecommendationService(store)

	recs, err := service.Recommendations(context.Background(), uuid.New(), "customer:abc", 10)
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, "Popular item at this restaurant", recs[0].Reason)
	assert.Equal(t, 1, store.popularHits)
}

func TestRecommendationsDropCandidatesWithoutRecentSales(t *testing.T) {
	seedID := uuid.New()
	stale := uuid.New()
	fresh := uuid.New()

	store := &fakeRecommendationStore{
		seeds: []seedRow{{MenuItemId: seedID, OrderCount: 4}},
		pairs: []coOccurrenceRow{
			{SeedItemId: seedID, MenuItemId: stale, CoOccurrence: 9},
			{SeedItemId: seedID, MenuItemId: fresh, CoOccurrence: 7},
		},
		// The stale candidate has no sales inside the popularity window.
		popularity: []popularityRow{
			{MenuItemId: fresh, ItemName: "Tiramisu", Popularity: 4},
		},
	}
	service := newTestRecommendationService(store)

	recs, err := service.Recommendations(context.Background(), uuid.New(), "customer:abc", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, fresh, recs[0].MenuItemId)
}
