package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tavolo_server/database"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// Windows for the collaborative filtering signal.
	coOccurrenceWindow = 90 * 24 * time.Hour
	popularityWindow   = 30 * 24 * time.Hour

	// One-off orders are too noisy to drive recommendations.
	minSeedOrderCount = 2
	maxSeedItems      = 10
	maxCoOccurrences  = 100
)

type seedRow struct {
	MenuItemId uuid.UUID `bun:"menu_item_id,type:uuid"`
	ItemName   string    `bun:"item_name"`
	OrderCount int       `bun:"order_count"`
}

type coOccurrenceRow struct {
	SeedItemId   uuid.UUID `bun:"seed_item_id,type:uuid"`
	MenuItemId   uuid.UUID `bun:"menu_item_id,type:uuid"`
	CoOccurrence int       `bun:"co_occurrence"`
}

type popularityRow struct {
	MenuItemId uuid.UUID `bun:"menu_item_id,type:uuid"`
	ItemName   string    `bun:"item_name"`
	Popularity int       `bun:"popularity"`
}

type popularRow struct {
	MenuItemId uuid.UUID `bun:"menu_item_id,type:uuid"`
	ItemName   string    `bun:"item_name"`
	OrderCount int       `bun:"order_count"`
}

type recommendationStore interface {
	CustomerSeeds(ctx context.Context, restaurantID uuid.UUID, customerIdentifier string) ([]seedRow, error)
	CoOccurrences(ctx context.Context, restaurantID uuid.UUID, seedIDs []uuid.UUID, since time.Time) ([]coOccurrenceRow, error)
	ItemPopularity(ctx context.Context, restaurantID uuid.UUID, itemIDs []uuid.UUID, since time.Time) ([]popularityRow, error)
	PopularItems(ctx context.Context, restaurantID uuid.UUID, since time.Time, limit int) ([]popularRow, error)
}

// RecommendationService ranks menu items for a customer with item-based
// collaborative filtering over order co-occurrence. Customers without
// enough history fall back to the restaurant's popular items, so a
// non-empty menu with recent sales always yields recommendations.
type RecommendationService struct {
	logger *gecho.Logger
	store  recommendationStore
}

func NewRecommendationService(logger *gecho.Logger, db *database.DB) *RecommendationService {
	return &RecommendationService{
		logger: logger,
		store:  newPgRecommendationStore(db),
	}
}

func newRecommendationServiceWithStore(logger *gecho.Logger, store recommendationStore) *RecommendationService {
	return &RecommendationService{logger: logger, store: store}
}

// Recommendations returns up to limit items for the customer, best first.
func (s *RecommendationService) Recommendations(ctx context.Context, restaurantID uuid.UUID, customerIdentifier string, limit int) ([]structs.Recommendation, error) {
	now := time.Now().UTC()

	seeds, err := s.store.CustomerSeeds(ctx, restaurantID, customerIdentifier)
	if err != nil {
		return nil, fmt.Errorf("seed query failed: %w", err)
	}

	if len(seeds) == 0 {
		return s.popularFallback(ctx, restaurantID, now, limit)
	}

	seedIDs := make([]uuid.UUID, 0, len(seeds))
	seedSet := make(map[uuid.UUID]bool, len(seeds))
	for _, seed := range seeds {
		seedIDs = append(seedIDs, seed.MenuItemId)
		seedSet[seed.MenuItemId] = true
	}

	pairs, err := s.store.CoOccurrences(ctx, restaurantID, seedIDs, now.Add(-coOccurrenceWindow))
	if err != nil {
		return nil, fmt.Errorf("co-occurrence query failed: %w", err)
	}

	scores := make(map[uuid.UUID]int)
	for _, pair := range pairs {
		// The customer's own favorites are never recommended back.
		if seedSet[pair.MenuItemId] {
			continue
		}
		scores[pair.MenuItemId] += pair.CoOccurrence
	}

	if len(scores) == 0 {
		return s.popularFallback(ctx, restaurantID, now, limit)
	}

	candidateIDs := make([]uuid.UUID, 0, len(scores))
	for id := range scores {
		candidateIDs = append(candidateIDs, id)
	}

	popularity, err := s.store.ItemPopularity(ctx, restaurantID, candidateIDs, now.Add(-popularityWindow))
	if err != nil {
		return nil, fmt.Errorf("popularity query failed: %w", err)
	}

	recommendations := make([]structs.Recommendation, 0, len(popularity))
	for _, row := range popularity {
		score, ok := scores[row.MenuItemId]
		if !ok {
			continue
		}

		pop := row.Popularity
		if pop < 1 {
			pop = 1
		}
		combined := float64(score) * (1 + math.Log(float64(pop)))

		recommendations = append(recommendations, structs.Recommendation{
			MenuItemId: row.MenuItemId,
			ItemName:   row.ItemName,
			Confidence: math.Min(1.0, combined/100),
			Reason:     "Customers who liked your favorites also love this",
		})
	}

	if len(recommendations) == 0 {
		return s.popularFallback(ctx, restaurantID, now, limit)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Confidence > recommendations[j].Confidence
	})

	if len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations, nil
}

func (s *RecommendationService) popularFallback(ctx context.Context, restaurantID uuid.UUID, now time.Time, limit int) ([]structs.Recommendation, error) {
	rows, err := s.store.PopularItems(ctx, restaurantID, now.Add(-popularityWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("popular items query failed: %w", err)
	}

	recommendations := make([]structs.Recommendation, 0, len(rows))
	for _, row := range rows {
		recommendations = append(recommendations, structs.Recommendation{
			MenuItemId: row.MenuItemId,
			ItemName:   row.ItemName,
			Confidence: 0.5,
			Reason:     "Popular item at this restaurant",
		})
	}

	return recommendations, nil
}

// ============================================================================
// Postgres implementation
// ============================================================================

type pgRecommendationStore struct {
	db *database.DB
}

func newPgRecommendationStore(db *database.DB) *pgRecommendationStore {
	return &pgRecommendationStore{db: db}
}

func (s *pgRecommendationStore) CustomerSeeds(ctx context.Context, restaurantID uuid.UUID, customerIdentifier string) ([]seedRow, error) {
	query := `
		SELECT menu_item_id, item_name, order_count
		FROM customer_item_preferences
		WHERE restaurant_id = ?
		  AND customer_identifier = ?
		  AND order_count >= ?
		ORDER BY order_count DESC
		LIMIT ?`

	return database.RawQuery[seedRow](s.db, ctx, query,
		restaurantID, customerIdentifier, minSeedOrderCount, maxSeedItems)
}

func (s *pgRecommendationStore) CoOccurrences(ctx context.Context, restaurantID uuid.UUID, seedIDs []uuid.UUID, since time.Time) ([]coOccurrenceRow, error) {
	// Distinct pairs per order so a large quantity in one order does not
	// dominate the similarity signal.
	query := `
		WITH paired AS (
			SELECT DISTINCT oi1.order_id,
			       oi1.menu_item_id AS seed_item_id,
			       oi2.menu_item_id AS menu_item_id
			FROM order_items oi1
			JOIN order_items oi2 ON oi1.order_id = oi2.order_id
			JOIN orders o ON o.id = oi1.order_id
			WHERE o.restaurant_id = ?
			  AND oi1.menu_item_id != oi2.menu_item_id
			  AND o.status != 'CANCELLED'
			  AND o.created_at >= ?
		)
		SELECT seed_item_id, menu_item_id, COUNT(*) AS co_occurrence
		FROM paired
		WHERE seed_item_id IN (?)
		GROUP BY seed_item_id, menu_item_id
		ORDER BY co_occurrence DESC
		LIMIT ?`

	return database.RawQuery[coOccurrenceRow](s.db, ctx, query,
		restaurantID, since, bun.In(seedIDs), maxCoOccurrences)
}

func (s *pgRecommendationStore) ItemPopularity(ctx context.Context, restaurantID uuid.UUID, itemIDs []uuid.UUID, since time.Time) ([]popularityRow, error) {
	query := `
		SELECT oi.menu_item_id,
		       MAX(oi.item_name) AS item_name,
		       COUNT(DISTINCT oi.order_id) AS popularity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = ?
		  AND oi.menu_item_id IN (?)
		  AND o.status != 'CANCELLED'
		  AND o.created_at >= ?
		GROUP BY oi.menu_item_id`

	return database.RawQuery[popularityRow](s.db, ctx, query,
		restaurantID, bun.In(itemIDs), since)
}

func (s *pgRecommendationStore) PopularItems(ctx context.Context, restaurantID uuid.UUID, since time.Time, limit int) ([]popularRow, error) {
	query := `
		SELECT oi.menu_item_id,
		       MAX(oi.item_name) AS item_name,
		       COUNT(DISTINCT oi.order_id) AS order_count
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = ?
		  AND o.status != 'CANCELLED'
		  AND o.created_at >= ?
		GROUP BY oi.menu_item_id
		ORDER BY order_count DESC
		LIMIT ?`

	return database.RawQuery[popularRow](s.db, ctx, query, restaurantID, since, limit)
}
