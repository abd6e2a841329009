package cart

import "github.com/shopspring/decimal"

// Item is one purchasable line in the cart. The descriptor fields mirror the
// catalog record the line was added from; Quantity is the only field the
// store mutates after insertion.
type Item struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ItemCode      string          `json:"itemCode"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Image         *string         `json:"image,omitempty"`
	Quantity      int             `json:"quantity"`
	Stock         int             `json:"stock"`
	MinOrderQty   int             `json:"minOrderQty"`
	ItemGroup     string          `json:"itemGroup,omitempty"`
	WeightPerUnit *float64        `json:"weightPerUnit,omitempty"`
	WeightUOM     *string         `json:"weightUom,omitempty"`
}

// State is an immutable view of the cart. TotalItems and TotalPrice are
// recomputed from the item list on every read; they are never stored.
type State struct {
	Items      []Item          `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	IsOpen     bool            `json:"isOpen"`
}

// clampQuantity constrains a requested quantity to [minOrderQty, stock].
// A non-positive stock means the catalog did not report availability, in
// which case only the lower bound applies.
func clampQuantity(requested, minOrderQty, stock int) int {
	if minOrderQty < 1 {
		minOrderQty = 1
	}
	qty := requested
	if qty < minOrderQty {
		qty = minOrderQty
	}
	if stock > 0 && qty > stock {
		qty = stock
	}
	return qty
}
