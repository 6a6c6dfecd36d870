package models

import "github.com/mmynk/receiptsplit/internal/money"

// FormData is everything the editing surface collects for one receipt.
// It uses the external two-list shape: Assignments[i] belongs to Items[i].
type FormData struct {
	BusinessName string        `json:"business_name"`
	Date         string        `json:"date"`
	Items        []Item        `json:"items"`
	Assignments  [][]string    `json:"assignments"`
	Participants []Participant `json:"participants"`
	Tax          money.Cents   `json:"tax"`
	Tip          money.Cents   `json:"tip"`
	Discount     money.Cents   `json:"discount"`
}

// Adjustments returns the tax, tip and discount of the form.
func (f *FormData) Adjustments() Adjustments {
	return Adjustments{Tax: f.Tax, Tip: f.Tip, Discount: f.Discount}
}

// Bill is a persisted receipt: the form data plus the allocation computed
// from it when it was saved.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	// Slug is the short public identifier used in share links.
	Slug string `json:"slug"`

	// Title is the human-readable name for the bill.
	// Auto-generated from the business name or participants when empty.
	Title string `json:"title"`

	FormData FormData `json:"form_data"`

	Allocation *BillAllocation `json:"allocation"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// BillSummary is the list view of a bill.
type BillSummary struct {
	ID               string      `json:"id"`
	Slug             string      `json:"slug"`
	Title            string      `json:"title"`
	BusinessName     string      `json:"business_name"`
	Total            money.Cents `json:"total"`
	ParticipantCount int         `json:"participant_count"`
	CreatedAt        int64       `json:"created_at"`
}
