// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/receiptsplit/internal/models"
)

// ErrNotFound is returned when a bill does not exist.
var ErrNotFound = errors.New("bill not found")

// Store defines the interface for bill storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateBill persists a new bill.
	// ID, Slug, Title and timestamps are filled in by the store when empty.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by its ID.
	// Returns ErrNotFound if the bill does not exist.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// GetBillBySlug retrieves a bill by its public slug.
	GetBillBySlug(ctx context.Context, slug string) (*models.Bill, error)

	// UpdateBill replaces the form data and allocation of an existing bill.
	// Returns ErrNotFound if the bill does not exist.
	UpdateBill(ctx context.Context, bill *models.Bill) error

	// DeleteBill removes a bill and everything attached to it.
	DeleteBill(ctx context.Context, billID string) error

	// ListBills returns the most recent bills first, at most limit of them.
	ListBills(ctx context.Context, limit int) ([]models.BillSummary, error)

	// Close releases any resources held by the store.
	Close() error
}
