package tables

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	// Table Name and identifiers
	tableName    struct{}   `bun:"table:orders,alias:o"`
	Id           uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	RestaurantId uuid.UUID  `bun:"restaurant_id,notnull,type:uuid" json:"restaurant_id"`
	TableId      *uuid.UUID `bun:"table_id,type:uuid" json:"table_id,omitempty"` // nil for online orders
	OrderNumber  string     `bun:"order_number,notnull,unique" json:"order_number"`

	// Lifecycle
	Status    OrderStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	OrderType OrderType   `bun:"order_type,notnull,default:'TABLE'" json:"order_type"`

	// Customer identity signals; any subset may be present
	CustomerId    *uuid.UUID `bun:"customer_id,type:uuid" json:"customer_id,omitempty"`
	CustomerName  string     `bun:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail string     `bun:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone string     `bun:"customer_phone" json:"customer_phone,omitempty"`

	// Pricing; total = subtotal + tax - discount
	Subtotal float64 `bun:"subtotal,notnull" json:"subtotal"`
	Tax      float64 `bun:"tax,notnull" json:"tax"`
	Discount float64 `bun:"discount,notnull,default:0" json:"discount"`
	Total    float64 `bun:"total,notnull" json:"total"`

	SpecialInstructions string `bun:"special_instructions" json:"special_instructions,omitempty"`

	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
	CompletedAt *time.Time `bun:"completed_at,nullzero" json:"completed_at,omitempty"` // set exactly once, on first entry into COMPLETED or CANCELLED

	// Order exclusively owns its items (cascade lifetime)
	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

type OrderItem struct {
	tableName struct{}  `bun:"table:order_items,alias:oi"`
	Id        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	OrderId   uuid.UUID `bun:"order_id,notnull,type:uuid" json:"order_id"`

	// Snapshot of the menu item at order time; menu data may change later
	MenuItemId   uuid.UUID `bun:"menu_item_id,notnull,type:uuid" json:"menu_item_id"`
	ItemName     string    `bun:"item_name,notnull" json:"item_name"`
	ItemPrice    float64   `bun:"item_price,notnull" json:"item_price"`
	ItemCategory string    `bun:"item_category" json:"item_category,omitempty"`

	Quantity            int    `bun:"quantity,notnull,default:1" json:"quantity"`
	SpecialInstructions string `bun:"special_instructions" json:"special_instructions,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusServed    OrderStatus = "SERVED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo validates a status transition. Transitions are monotonic
// forward; CANCELLED is reachable from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return !s.IsTerminal()
	}

	transitions := map[OrderStatus]OrderStatus{
		OrderStatusPending:   OrderStatusConfirmed,
		OrderStatusConfirmed: OrderStatusPreparing,
		OrderStatusPreparing: OrderStatusReady,
		OrderStatusReady:     OrderStatusServed,
		OrderStatusServed:    OrderStatusCompleted,
	}

	allowed, ok := transitions[s]
	return ok && allowed == next
}

type OrderType string

const (
	OrderTypeTable  OrderType = "TABLE"
	OrderTypeOnline OrderType = "ONLINE"
)
