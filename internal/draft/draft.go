// Package draft holds the editable state of a bill before it is saved.
//
// A Draft keeps each item together with its assignees, so item edits and
// participant edits can never leave the assignment list out of step with
// the item list. Every method validates its arguments and leaves the draft
// unchanged on error.
package draft

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// Draft is a bill being edited.
type Draft struct {
	BusinessName string
	Date         string
	Lines        []models.Line
	Participants []models.Participant
	Adjustments  models.Adjustments
}

// New returns an empty draft.
func New() *Draft {
	return &Draft{}
}

// FromForm builds a draft from the two-list form shape. An ID listed
// twice for the same item is kept once.
func FromForm(form models.FormData) (*Draft, error) {
	lines, err := calculator.Zip(form.Items, form.Assignments)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].Assigned = uniqueIDs(lines[i].Assigned)
	}
	return &Draft{
		BusinessName: form.BusinessName,
		Date:         form.Date,
		Lines:        lines,
		Participants: slices.Clone(form.Participants),
		Adjustments:  form.Adjustments(),
	}, nil
}

// Form converts the draft back to the two-list form shape.
func (d *Draft) Form() models.FormData {
	items, assignments := calculator.Unzip(d.Lines)
	return models.FormData{
		BusinessName: d.BusinessName,
		Date:         d.Date,
		Items:        items,
		Assignments:  assignments,
		Participants: slices.Clone(d.Participants),
		Tax:          d.Adjustments.Tax,
		Tip:          d.Adjustments.Tip,
		Discount:     d.Adjustments.Discount,
	}
}

// Allocate runs the calculator over the current state.
func (d *Draft) Allocate(policy calculator.Policy) (*models.BillAllocation, error) {
	return calculator.Allocate(d.Lines, d.Participants, d.Adjustments, policy)
}

// AddItem appends an unassigned item and returns its index.
func (d *Draft) AddItem(name string, price money.Cents) (int, error) {
	if price < 0 {
		return 0, fmt.Errorf("%w: price cannot be negative", calculator.ErrInvalidInput)
	}
	d.Lines = append(d.Lines, models.Line{
		Item:     models.Item{Name: name, Price: price},
		Assigned: []string{},
	})
	return len(d.Lines) - 1, nil
}

// UpdateItem replaces the name and price of the item at index, keeping
// its assignees.
func (d *Draft) UpdateItem(index int, name string, price money.Cents) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", calculator.ErrInvalidInput)
	}
	d.Lines[index].Item = models.Item{Name: name, Price: price}
	return nil
}

// RemoveItem deletes the item at index along with its assignees.
func (d *Draft) RemoveItem(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.Lines = slices.Delete(d.Lines, index, index+1)
	return nil
}

// SplitItem divides the item at index into count pieces.
func (d *Draft) SplitItem(index, count int) error {
	lines, err := calculator.SplitLine(d.Lines, index, count)
	if err != nil {
		return err
	}
	d.Lines = lines
	return nil
}

// DuplicateItem inserts count copies of the item at index.
func (d *Draft) DuplicateItem(index, count int) error {
	lines, err := calculator.DuplicateLine(d.Lines, index, count)
	if err != nil {
		return err
	}
	d.Lines = lines
	return nil
}

// Assign adds a participant to the item at index. Assigning twice is a no-op.
func (d *Draft) Assign(index int, participantID string) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	if err := d.checkParticipant(participantID); err != nil {
		return err
	}
	if !slices.Contains(d.Lines[index].Assigned, participantID) {
		d.Lines[index].Assigned = append(d.Lines[index].Assigned, participantID)
	}
	return nil
}

// Unassign removes a participant from the item at index.
func (d *Draft) Unassign(index int, participantID string) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.Lines[index].Assigned = slices.DeleteFunc(d.Lines[index].Assigned, func(id string) bool {
		return id == participantID
	})
	return nil
}

// ToggleAssignment flips whether a participant shares the item at index and
// reports whether they are assigned afterwards.
func (d *Draft) ToggleAssignment(index int, participantID string) (bool, error) {
	if err := d.checkIndex(index); err != nil {
		return false, err
	}
	if slices.Contains(d.Lines[index].Assigned, participantID) {
		return false, d.Unassign(index, participantID)
	}
	if err := d.Assign(index, participantID); err != nil {
		return false, err
	}
	return true, nil
}

// AssignAll makes every participant share the item at index.
func (d *Draft) AssignAll(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	ids := make([]string, len(d.Participants))
	for i, p := range d.Participants {
		ids[i] = p.ID
	}
	d.Lines[index].Assigned = ids
	return nil
}

// AddParticipant adds a person with a fresh ID and returns it.
func (d *Draft) AddParticipant(name string) (models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Participant{}, fmt.Errorf("%w: participant name required", calculator.ErrInvalidInput)
	}
	p := models.Participant{ID: uuid.New().String(), Name: name}
	d.Participants = append(d.Participants, p)
	return p, nil
}

// RenameParticipant changes a participant's display name.
func (d *Draft) RenameParticipant(participantID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: participant name required", calculator.ErrInvalidInput)
	}
	i := d.participantIndex(participantID)
	if i < 0 {
		return fmt.Errorf("%w: unknown participant %q", calculator.ErrInvalidInput, participantID)
	}
	d.Participants[i].Name = name
	return nil
}

// RemoveParticipant removes a person and drops their ID from every item.
func (d *Draft) RemoveParticipant(participantID string) error {
	i := d.participantIndex(participantID)
	if i < 0 {
		return fmt.Errorf("%w: unknown participant %q", calculator.ErrInvalidInput, participantID)
	}
	d.Participants = slices.Delete(d.Participants, i, i+1)
	for j := range d.Lines {
		d.Lines[j].Assigned = slices.DeleteFunc(d.Lines[j].Assigned, func(id string) bool {
			return id == participantID
		})
	}
	return nil
}

// SetAdjustments replaces tax, tip and discount. Negative values are kept
// as entered; the allocation policy decides what to do with them.
func (d *Draft) SetAdjustments(adj models.Adjustments) {
	d.Adjustments = adj
}

// Subtotal is the sum of every item price.
func (d *Draft) Subtotal() money.Cents {
	var total money.Cents
	for _, line := range d.Lines {
		total += line.Item.Price
	}
	return total
}

func (d *Draft) checkIndex(index int) error {
	if index < 0 || index >= len(d.Lines) {
		return fmt.Errorf("%w: item index %d out of range (%d items)", calculator.ErrInvalidInput, index, len(d.Lines))
	}
	return nil
}

func (d *Draft) checkParticipant(id string) error {
	if d.participantIndex(id) < 0 {
		return fmt.Errorf("%w: unknown participant %q", calculator.ErrInvalidInput, id)
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	return slices.DeleteFunc(ids, func(id string) bool {
		if seen[id] {
			return true
		}
		seen[id] = true
		return false
	})
}

func (d *Draft) participantIndex(id string) int {
	return slices.IndexFunc(d.Participants, func(p models.Participant) bool {
		return p.ID == id
	})
}
