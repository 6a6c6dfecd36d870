// Package models defines the core domain models for receiptsplit.
//
// # Editing models
//
//   - Item: a receipt line with an integer-cent price
//   - Participant: a person sharing the bill, identified by UUID
//   - Line: an item together with the IDs of the people sharing it
//   - Adjustments: tax, tip and discount for the whole receipt
//
// # Allocation models
//
//   - BillAllocation: per-person breakdown produced by the calculator
//   - PersonAllocation: one person's items, shares and total
//   - AllocatedItem: one person's share of one item
//
// # Persistence models
//
//   - FormData: the editing surface's two-list form shape
//   - Bill: form data plus its computed allocation, addressable by ID or slug
//
// Prices are money.Cents. Allocation shares are float64 dollars because
// proportional distribution does not land on whole cents; they are rounded
// only for display.
package models
