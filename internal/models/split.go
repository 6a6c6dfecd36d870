package models

import "github.com/mmynk/receiptsplit/internal/money"

// Item represents a single line item on a receipt.
type Item struct {
	// Name is the description printed on the receipt (e.g., "Burger").
	Name string `json:"name"`

	// Price is the line price. Never negative.
	Price money.Cents `json:"price"`
}

// Participant is a person sharing the bill.
type Participant struct {
	// ID is assigned when the participant is added (UUID format) and stays
	// stable for the lifetime of the draft.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`
}

// Line pairs an item with the participants sharing it.
// Keeping both in one record means inserting, removing or splitting items
// can never leave assignments pointing at the wrong item.
type Line struct {
	Item     Item     `json:"item"`
	Assigned []string `json:"assigned"`
}

// Adjustments are the bill-wide amounts distributed proportionally.
type Adjustments struct {
	Tax      money.Cents `json:"tax"`
	Tip      money.Cents `json:"tip"`
	Discount money.Cents `json:"discount"`
}

// AllocatedItem is one person's share of one item.
type AllocatedItem struct {
	// Item is the item name.
	Item string `json:"item"`

	// FullPrice is the item's original price.
	FullPrice money.Cents `json:"full_price"`

	// Price is this person's share of the item, unrounded.
	Price float64 `json:"price"`

	// Participants is how many people share the item.
	Participants int `json:"participants"`
}

// PersonAllocation represents one person's calculated share of a bill.
// Amounts are in dollars and are not rounded; round at display time.
type PersonAllocation struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Items []AllocatedItem `json:"items"`

	// Subtotal is the sum of this person's item shares.
	Subtotal float64 `json:"subtotal"`

	// Tax, Tip and Discount are this person's proportional shares.
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Discount float64 `json:"discount"`

	// Total is subtotal + tax + tip - discount, floored at zero.
	Total float64 `json:"total"`
}

// BillAllocation is the output of the allocation engine.
type BillAllocation struct {
	// People follow the order of the participant list.
	People []PersonAllocation `json:"people"`

	// OverallSubtotal is the sum of every item price on the receipt.
	OverallSubtotal money.Cents `json:"overall_subtotal"`

	// UnallocatedSubtotal is the part of OverallSubtotal belonging to items
	// nobody was assigned to. Those amounts are charged to no one.
	UnallocatedSubtotal money.Cents `json:"unallocated_subtotal"`

	TotalTax      money.Cents `json:"total_tax"`
	TotalTip      money.Cents `json:"total_tip"`
	TotalDiscount money.Cents `json:"total_discount"`

	// OverallTotal is subtotal + tax + tip - discount for the whole receipt,
	// floored at zero.
	OverallTotal money.Cents `json:"overall_total"`
}

// Person returns the allocation for the given participant ID.
func (a *BillAllocation) Person(id string) (PersonAllocation, bool) {
	for _, p := range a.People {
		if p.ID == id {
			return p, true
		}
	}
	return PersonAllocation{}, false
}
