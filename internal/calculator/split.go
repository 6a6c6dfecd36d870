package calculator

import (
	"fmt"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// Bounds for split and duplicate counts.
const (
	MinSplitCount     = 2
	MaxSplitCount     = 100
	MinDuplicateCount = 1
	MaxDuplicateCount = 100
)

// SplitCents divides total into n amounts that sum exactly to total.
// The first total mod n amounts get one extra cent.
func SplitCents(total money.Cents, n int) []money.Cents {
	base := total / money.Cents(n)
	remainder := int(total % money.Cents(n))

	parts := make([]money.Cents, n)
	for i := range parts {
		parts[i] = base
		if i < remainder {
			parts[i]++
		}
	}
	return parts
}

// SplitLine replaces the line at index with count lines carrying the same
// name and prices that sum to the original price. The new lines start with
// no assignees; whoever shares each piece has to be chosen again.
func SplitLine(lines []models.Line, index, count int) ([]models.Line, error) {
	if err := checkIndex(len(lines), index); err != nil {
		return nil, err
	}
	if count < MinSplitCount || count > MaxSplitCount {
		return nil, fmt.Errorf("%w: split count %d out of range [%d, %d]", ErrInvalidInput, count, MinSplitCount, MaxSplitCount)
	}
	item := lines[index].Item
	if item.Price < 0 {
		return nil, fmt.Errorf("%w: item %d (%q) has negative price %s", ErrInvalidInput, index, item.Name, item.Price)
	}

	out := make([]models.Line, 0, len(lines)+count-1)
	out = append(out, cloneLines(lines[:index])...)
	for _, price := range SplitCents(item.Price, count) {
		out = append(out, models.Line{
			Item:     models.Item{Name: item.Name, Price: price},
			Assigned: []string{},
		})
	}
	out = append(out, cloneLines(lines[index+1:])...)
	return out, nil
}

// DuplicateLine inserts count copies of the item at index directly after it.
// The original keeps its price and assignees; each copy starts unassigned.
func DuplicateLine(lines []models.Line, index, count int) ([]models.Line, error) {
	if err := checkIndex(len(lines), index); err != nil {
		return nil, err
	}
	if count < MinDuplicateCount || count > MaxDuplicateCount {
		return nil, fmt.Errorf("%w: duplicate count %d out of range [%d, %d]", ErrInvalidInput, count, MinDuplicateCount, MaxDuplicateCount)
	}

	item := lines[index].Item
	out := make([]models.Line, 0, len(lines)+count)
	out = append(out, cloneLines(lines[:index+1])...)
	for i := 0; i < count; i++ {
		out = append(out, models.Line{Item: item, Assigned: []string{}})
	}
	out = append(out, cloneLines(lines[index+1:])...)
	return out, nil
}

// SplitItem is SplitLine for the two-list form shape.
func SplitItem(items []models.Item, assignments [][]string, index, count int) ([]models.Item, [][]string, error) {
	lines, err := Zip(items, assignments)
	if err != nil {
		return nil, nil, err
	}
	lines, err = SplitLine(lines, index, count)
	if err != nil {
		return nil, nil, err
	}
	items, assignments = Unzip(lines)
	return items, assignments, nil
}

// DuplicateItem is DuplicateLine for the two-list form shape.
func DuplicateItem(items []models.Item, assignments [][]string, index, count int) ([]models.Item, [][]string, error) {
	lines, err := Zip(items, assignments)
	if err != nil {
		return nil, nil, err
	}
	lines, err = DuplicateLine(lines, index, count)
	if err != nil {
		return nil, nil, err
	}
	items, assignments = Unzip(lines)
	return items, assignments, nil
}

// Zip pairs items with their assignments.
func Zip(items []models.Item, assignments [][]string) ([]models.Line, error) {
	if len(items) != len(assignments) {
		return nil, fmt.Errorf("%w: %d items, %d assignments", ErrLengthMismatch, len(items), len(assignments))
	}
	lines := make([]models.Line, len(items))
	for i := range items {
		lines[i] = models.Line{Item: items[i], Assigned: cloneIDs(assignments[i])}
	}
	return lines, nil
}

// Unzip is the inverse of Zip.
func Unzip(lines []models.Line) ([]models.Item, [][]string) {
	items := make([]models.Item, len(lines))
	assignments := make([][]string, len(lines))
	for i, line := range lines {
		items[i] = line.Item
		assignments[i] = cloneIDs(line.Assigned)
	}
	return items, assignments
}

func checkIndex(n, index int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: item index %d out of range (%d items)", ErrInvalidInput, index, n)
	}
	return nil
}

func cloneLines(lines []models.Line) []models.Line {
	out := make([]models.Line, len(lines))
	for i, line := range lines {
		out[i] = models.Line{Item: line.Item, Assigned: cloneIDs(line.Assigned)}
	}
	return out
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
