package calculator

import (
	"fmt"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// Transfer is a payment from one participant to another.
type Transfer struct {
	From   string      `json:"from"`   // Participant who owes
	To     string      `json:"to"`     // Participant who is owed
	Amount money.Cents `json:"amount"`
}

// SettleUp computes the payments that square a bill given what each
// participant actually paid at the table.
//
// Algorithm:
//   - Each person owes their total rounded to the cent (half up)
//   - net = paid − owed; positive nets are creditors, negative are debtors
//   - Debtors are matched greedily against creditors in participant order
//
// Any cent left over from rounding is not transferred.
func SettleUp(alloc *models.BillAllocation, paid map[string]money.Cents) ([]Transfer, error) {
	for id, amount := range paid {
		if _, ok := alloc.Person(id); !ok {
			return nil, fmt.Errorf("%w: payer %q is not a participant", ErrInvalidInput, id)
		}
		if amount < 0 {
			return nil, fmt.Errorf("%w: payer %q paid a negative amount", ErrInvalidInput, id)
		}
	}

	type balance struct {
		id     string
		amount money.Cents
	}
	var debtors, creditors []balance
	for _, p := range alloc.People {
		net := paid[p.ID] - money.Round(p.Total)
		if net > 0 {
			creditors = append(creditors, balance{p.ID, net})
		} else if net < 0 {
			debtors = append(debtors, balance{p.ID, -net})
		}
	}

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].amount, creditors[j].amount)
		transfers = append(transfers, Transfer{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}

	return transfers, nil
}

// Settle is SettleUp for the common case where one person paid the whole
// bill: everyone else owes that person their rounded total.
func Settle(alloc *models.BillAllocation, payerID string) ([]Transfer, error) {
	if _, ok := alloc.Person(payerID); !ok {
		return nil, fmt.Errorf("%w: payer %q is not a participant", ErrInvalidInput, payerID)
	}
	var owed money.Cents
	for _, p := range alloc.People {
		owed += money.Round(p.Total)
	}
	return SettleUp(alloc, map[string]money.Cents{payerID: owed})
}
