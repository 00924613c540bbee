package tables

import (
	"time"

	"github.com/google/uuid"
)

// CustomerItemPreference aggregates how often a customer orders a menu item.
// Keyed by (customer_identifier, restaurant_id, menu_item_id); the monetary
// and quantity totals only ever grow.
type CustomerItemPreference struct {
	tableName struct{}  `bun:"table:customer_item_preferences,alias:cip"`
	Id        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`

	CustomerIdentifier string    `bun:"customer_identifier,notnull" json:"customer_identifier"`
	RestaurantId       uuid.UUID `bun:"restaurant_id,notnull,type:uuid" json:"restaurant_id"`
	MenuItemId         uuid.UUID `bun:"menu_item_id,notnull,type:uuid" json:"menu_item_id"`
	ItemName           string    `bun:"item_name,notnull" json:"item_name"`

	OrderCount    int     `bun:"order_count,notnull,default:0" json:"order_count"`
	TotalQuantity int     `bun:"total_quantity,notnull,default:0" json:"total_quantity"`
	TotalSpent    float64 `bun:"total_spent,notnull,default:0" json:"total_spent"`

	FirstOrderedAt time.Time `bun:"first_ordered_at,notnull" json:"first_ordered_at"`
	LastOrderedAt  time.Time `bun:"last_ordered_at,notnull" json:"last_ordered_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	// Derived at read time, never stored stale
	RecencyScore   float64 `bun:"-" json:"recency_score"`
	FrequencyScore float64 `bun:"-" json:"frequency_score"`
}

// ComputeScores fills the derived RFM scores. Recency is days since the last
// order; frequency is orders per month with the denominator floored at one
// month so brand-new customers do not blow up the ratio.
func (p *CustomerItemPreference) ComputeScores(now time.Time) {
	p.RecencyScore = now.Sub(p.LastOrderedAt).Hours() / 24
	if p.RecencyScore < 0 {
		p.RecencyScore = 0
	}

	months := now.Sub(p.FirstOrderedAt).Hours() / (24 * 30)
	if months < 1 {
		months = 1
	}
	p.FrequencyScore = float64(p.OrderCount) / months
}

// PreferenceAppliedItem records which (order, item) pairs have already been
// folded into the preference aggregates. The guard insert makes replayed
// completion events no-ops instead of double-counting.
type PreferenceAppliedItem struct {
	tableName  struct{}  `bun:"table:preference_applied_items,alias:pai"`
	OrderId    uuid.UUID `bun:"order_id,pk,type:uuid" json:"order_id"`
	MenuItemId uuid.UUID `bun:"menu_item_id,pk,type:uuid" json:"menu_item_id"`
	AppliedAt  time.Time `bun:"applied_at,notnull,default:current_timestamp" json:"applied_at"`
}
