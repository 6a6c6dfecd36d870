package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

var (
	// ErrInvalidInput covers malformed items, participants, adjustments and
	// out-of-range split or duplicate counts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLengthMismatch is returned when an assignment list is not parallel
	// to its item list. Mismatched lists are always rejected, never padded.
	ErrLengthMismatch = errors.New("assignment list length does not match item list length")
)

// Policy controls how the calculator treats questionable input.
type Policy struct {
	// ClampNegativeToZero floors negative tax, tip and discount to zero.
	// When false, negative values are rejected with ErrInvalidInput.
	ClampNegativeToZero bool
}

// DefaultPolicy clamps negative adjustments to zero.
func DefaultPolicy() Policy {
	return Policy{ClampNegativeToZero: true}
}

func (p Policy) adjustments(adj models.Adjustments) (models.Adjustments, error) {
	fields := []struct {
		name  string
		value *money.Cents
	}{
		{"tax", &adj.Tax},
		{"tip", &adj.Tip},
		{"discount", &adj.Discount},
	}
	for _, f := range fields {
		if *f.value >= 0 {
			continue
		}
		if !p.ClampNegativeToZero {
			return adj, fmt.Errorf("%w: %s cannot be negative (%s)", ErrInvalidInput, f.name, f.value.String())
		}
		*f.value = 0
	}
	return adj, nil
}

// Allocate computes each participant's share of a bill.
//
// Algorithm:
//   - Each item is split equally among its assignees: share = price / k
//   - Tax, tip and discount are distributed by subtotal share:
//     person_x = x × (person_subtotal / combined_subtotal)
//   - If the combined subtotal is zero, they are split evenly across all participants
//   - total = max(0, subtotal + tax + tip − discount)
//
// Items nobody is assigned to are skipped and reported in
// UnallocatedSubtotal. Shares are not rounded.
func Allocate(lines []models.Line, participants []models.Participant, adj models.Adjustments, policy Policy) (*models.BillAllocation, error) {
	adj, err := policy.adjustments(adj)
	if err != nil {
		return nil, err
	}

	index, err := indexParticipants(participants)
	if err != nil {
		return nil, err
	}

	people := make([]models.PersonAllocation, len(participants))
	for i, p := range participants {
		people[i] = models.PersonAllocation{
			ID:    p.ID,
			Name:  p.Name,
			Items: []models.AllocatedItem{},
		}
	}

	var subtotal, unallocated money.Cents
	for i, line := range lines {
		if line.Item.Price < 0 {
			return nil, fmt.Errorf("%w: item %d (%q) has negative price %s", ErrInvalidInput, i, line.Item.Name, line.Item.Price)
		}
		subtotal += line.Item.Price

		sharers, err := resolveAssignees(line.Assigned, index)
		if err != nil {
			return nil, fmt.Errorf("item %d (%q): %w", i, line.Item.Name, err)
		}
		if len(sharers) == 0 {
			unallocated += line.Item.Price
			continue
		}

		share := line.Item.Price.Dollars() / float64(len(sharers))
		for _, idx := range sharers {
			people[idx].Subtotal += share
			people[idx].Items = append(people[idx].Items, models.AllocatedItem{
				Item:         line.Item.Name,
				FullPrice:    line.Item.Price,
				Price:        share,
				Participants: len(sharers),
			})
		}
	}

	var combined float64
	for _, p := range people {
		combined += p.Subtotal
	}

	for i := range people {
		p := &people[i]
		p.Tax = distribute(adj.Tax, p.Subtotal, combined, len(people))
		p.Tip = distribute(adj.Tip, p.Subtotal, combined, len(people))
		p.Discount = distribute(adj.Discount, p.Subtotal, combined, len(people))
		p.Total = math.Max(0, p.Subtotal+p.Tax+p.Tip-p.Discount)
	}

	overall := subtotal + adj.Tax + adj.Tip - adj.Discount
	if overall < 0 {
		overall = 0
	}

	return &models.BillAllocation{
		People:              people,
		OverallSubtotal:     subtotal,
		UnallocatedSubtotal: unallocated,
		TotalTax:            adj.Tax,
		TotalTip:            adj.Tip,
		TotalDiscount:       adj.Discount,
		OverallTotal:        overall,
	}, nil
}

// AllocateParallel is Allocate for the two-list form shape, where
// assignments[i] lists the participants sharing items[i].
func AllocateParallel(items []models.Item, assignments [][]string, participants []models.Participant, adj models.Adjustments, policy Policy) (*models.BillAllocation, error) {
	lines, err := Zip(items, assignments)
	if err != nil {
		return nil, err
	}
	return Allocate(lines, participants, adj, policy)
}

// distribute returns one person's share of amount. n is never zero here
// because it is only called once per person.
func distribute(amount money.Cents, subtotal, combined float64, n int) float64 {
	if combined == 0 {
		return amount.Dollars() / float64(n)
	}
	return amount.Dollars() * (subtotal / combined)
}

func indexParticipants(participants []models.Participant) (map[string]int, error) {
	index := make(map[string]int, len(participants))
	for i, p := range participants {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: participant %d (%q) has no id", ErrInvalidInput, i, p.Name)
		}
		if _, exists := index[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate participant id %s", ErrInvalidInput, p.ID)
		}
		index[p.ID] = i
	}
	return index, nil
}

// resolveAssignees maps assigned IDs to participant positions, dropping
// repeats so an ID listed twice still counts once.
func resolveAssignees(assigned []string, index map[string]int) ([]int, error) {
	sharers := make([]int, 0, len(assigned))
	seen := make(map[string]bool, len(assigned))
	for _, id := range assigned {
		if seen[id] {
			continue
		}
		seen[id] = true
		idx, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown participant id %q", ErrInvalidInput, id)
		}
		sharers = append(sharers, idx)
	}
	return sharers, nil
}
