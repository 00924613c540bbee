package structs

import (
	"github.com/google/uuid"

	"tavolo_server/structs/tables"
)

type OrderItemRequest struct {
	MenuItemId          uuid.UUID `json:"menu_item_id"`
	ItemName            string    `json:"item_name"`
	ItemPrice           float64   `json:"item_price"`
	ItemCategory        string    `json:"item_category,omitempty"`
	Quantity            int       `json:"quantity"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
}

// OrderRequest carries the snapshot data the gateway resolved against the
// menu service; this service does not re-validate menu items.
type OrderRequest struct {
	RestaurantId uuid.UUID          `json:"restaurant_id"`
	TableId      *uuid.UUID         `json:"table_id,omitempty"`
	OrderType    tables.OrderType   `json:"order_type"`
	Items        []OrderItemRequest `json:"items"`

	CustomerId    *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`

	Discount            float64 `json:"discount,omitempty"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
}

type OrderStatusRequest struct {
	Status tables.OrderStatus `json:"status"`
}
