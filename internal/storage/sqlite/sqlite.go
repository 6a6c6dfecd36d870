// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBill persists a new bill to the database.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.Slug == "" {
		bill.Slug = newSlug()
	}
	if bill.Title == "" {
		bill.Title = generateTitle(bill.FormData.BusinessName, bill.FormData.Participants)
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = bill.CreatedAt

	allocation, total, err := encodeAllocation(bill.Allocation)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	f := &bill.FormData
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, slug, title, business_name, bill_date, tax, tip, discount, overall_total, allocation, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Slug, bill.Title, f.BusinessName, f.Date, f.Tax, f.Tip, f.Discount,
		total, allocation, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertFormData(ctx, tx, bill.ID, f); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBill retrieves a bill by ID, including its items, participants and allocation.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	return s.getBill(ctx, "id", billID)
}

// GetBillBySlug retrieves a bill by its public slug.
func (s *SQLiteStore) GetBillBySlug(ctx context.Context, slug string) (*models.Bill, error) {
	return s.getBill(ctx, "slug", slug)
}

func (s *SQLiteStore) getBill(ctx context.Context, column, value string) (*models.Bill, error) {
	bill := &models.Bill{}
	f := &bill.FormData
	var allocation sql.NullString

	// column is one of two constants above, never user input.
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, title, business_name, bill_date, tax, tip, discount, allocation, created_at, updated_at
		 FROM bills WHERE `+column+` = ?`,
		value,
	).Scan(&bill.ID, &bill.Slug, &bill.Title, &f.BusinessName, &f.Date, &f.Tax, &f.Tip, &f.Discount,
		&allocation, &bill.CreatedAt, &bill.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if allocation.Valid && allocation.String != "" {
		bill.Allocation = &models.BillAllocation{}
		if err := json.Unmarshal([]byte(allocation.String), bill.Allocation); err != nil {
			return nil, fmt.Errorf("failed to decode allocation: %w", err)
		}
	}

	if err := s.loadParticipants(ctx, bill); err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, bill); err != nil {
		return nil, err
	}

	return bill, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, bill *models.Bill) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM participants WHERE bill_id = ? ORDER BY position",
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	bill.FormData.Participants = []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		bill.FormData.Participants = append(bill.FormData.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

// loadItems reads items and their assignments in one pass. Items with no
// assignees still come back thanks to the LEFT JOIN.
func (s *SQLiteStore) loadItems(ctx context.Context, bill *models.Bill) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.name, i.price, a.participant_id
		 FROM items i
		 LEFT JOIN item_assignments a ON a.item_id = i.id
		 WHERE i.bill_id = ?
		 ORDER BY i.position, a.position`,
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	f := &bill.FormData
	f.Items = []models.Item{}
	f.Assignments = [][]string{}
	lastID := ""
	for rows.Next() {
		var (
			itemID      string
			item        models.Item
			participant sql.NullString
		)
		if err := rows.Scan(&itemID, &item.Name, &item.Price, &participant); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		if itemID != lastID {
			f.Items = append(f.Items, item)
			f.Assignments = append(f.Assignments, []string{})
			lastID = itemID
		}
		if participant.Valid {
			last := len(f.Assignments) - 1
			f.Assignments[last] = append(f.Assignments[last], participant.String)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}
	return nil
}

// UpdateBill replaces a bill's form data and allocation.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill) error {
	allocation, total, err := encodeAllocation(bill.Allocation)
	if err != nil {
		return err
	}
	bill.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	f := &bill.FormData
	res, err := tx.ExecContext(ctx,
		`UPDATE bills SET title = COALESCE(NULLIF(?, ''), title), business_name = ?, bill_date = ?,
		 tax = ?, tip = ?, discount = ?, overall_total = ?, allocation = ?, updated_at = ?
		 WHERE id = ?`,
		bill.Title, f.BusinessName, f.Date, f.Tax, f.Tip, f.Discount, total, allocation, bill.UpdatedAt,
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, bill.ID)
	}

	if err := deleteFormData(ctx, tx, bill.ID); err != nil {
		return err
	}
	if err := insertFormData(ctx, tx, bill.ID, f); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteBill removes a bill with its items, assignments and participants.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFormData(ctx, tx, billID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, billID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListBills returns bill summaries, newest first.
func (s *SQLiteStore) ListBills(ctx context.Context, limit int) ([]models.BillSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.slug, b.title, b.business_name, b.overall_total, b.created_at,
		        (SELECT COUNT(*) FROM participants p WHERE p.bill_id = b.id)
		 FROM bills b
		 ORDER BY b.created_at DESC, b.id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	summaries := []models.BillSummary{}
	for rows.Next() {
		var b models.BillSummary
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.BusinessName, &b.Total, &b.CreatedAt, &b.ParticipantCount); err != nil {
			return nil, fmt.Errorf("failed to scan bill summary: %w", err)
		}
		summaries = append(summaries, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return summaries, nil
}

func insertFormData(ctx context.Context, tx *sql.Tx, billID string, f *models.FormData) error {
	if len(f.Assignments) != len(f.Items) {
		return fmt.Errorf("failed to insert items: %d items but %d assignments", len(f.Items), len(f.Assignments))
	}

	for i, p := range f.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (bill_id, id, name, position) VALUES (?, ?, ?, ?)",
			billID, p.ID, p.Name, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i, item := range f.Items {
		itemID := uuid.New().String()
		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (id, bill_id, position, name, price) VALUES (?, ?, ?, ?, ?)",
			itemID, billID, i, item.Name, item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		seen := make(map[string]bool, len(f.Assignments[i]))
		for j, participant := range f.Assignments[i] {
			if seen[participant] {
				continue
			}
			seen[participant] = true
			_, err = tx.ExecContext(ctx,
				"INSERT INTO item_assignments (item_id, participant_id, position) VALUES (?, ?, ?)",
				itemID, participant, j,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}
	return nil
}

func deleteFormData(ctx context.Context, tx *sql.Tx, billID string) error {
	stmts := []string{
		"DELETE FROM item_assignments WHERE item_id IN (SELECT id FROM items WHERE bill_id = ?)",
		"DELETE FROM items WHERE bill_id = ?",
		"DELETE FROM participants WHERE bill_id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, billID); err != nil {
			return fmt.Errorf("failed to clear bill contents: %w", err)
		}
	}
	return nil
}

func encodeAllocation(alloc *models.BillAllocation) (any, int64, error) {
	if alloc == nil {
		return nil, 0, nil
	}
	data, err := json.Marshal(alloc)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode allocation: %w", err)
	}
	return string(data), int64(alloc.OverallTotal), nil
}

// newSlug returns a short random identifier for share links.
func newSlug() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}

// generateTitle creates an auto-generated title from the business name or participants.
func generateTitle(businessName string, participants []models.Participant) string {
	if name := strings.TrimSpace(businessName); name != "" {
		return name
	}
	if len(participants) == 0 {
		return fmt.Sprintf("Bill - %s", time.Now().Format("Jan 2, 2006"))
	}
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
