// Package money represents currency amounts as integer cents.
//
// Item prices and anything that must sum exactly to a known total are held as
// Cents. Amounts cross the API as decimal dollars (e.g. 12.50) and are
// converted here without ever passing through binary floating point.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not finite or carry more
// than two fractional digits.
var ErrInvalidAmount = errors.New("invalid amount")

// Cents is an amount of money in hundredths of the currency unit.
type Cents int64

var half = decimal.New(5, -1)

// MaxAmount bounds every amount this package will construct, in either
// direction. Ten billion dollars leaves room to sum many items in an int64.
const MaxAmount Cents = 1_000_000_000_000

var maxShifted = decimal.New(int64(MaxAmount), 0)

// FromDecimal converts a decimal dollar amount to cents.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than 2 decimal places", ErrInvalidAmount, d.String())
	}
	if shifted.Abs().GreaterThan(maxShifted) {
		return 0, fmt.Errorf("%w: %s exceeds the maximum of %s", ErrInvalidAmount, d.String(), MaxAmount)
	}
	return Cents(shifted.IntPart()), nil
}

// FromDollars converts a float dollar amount to cents.
// The float is read by its shortest round-tripping decimal form, so 12.5 and
// 0.07 convert exactly while 0.1+0.2 (0.30000000000000004) is rejected.
func FromDollars(dollars float64) (Cents, error) {
	if math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, dollars)
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(dollars, 'f', -1, 64))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, dollars)
	}
	return FromDecimal(d)
}

// Parse converts a decimal string such as "12.50" to cents.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Round converts a fractional dollar amount to cents, rounding half up.
// This is presentation rounding; non-finite input rounds to zero and the
// result saturates at ±MaxAmount.
func Round(dollars float64) Cents {
	if math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return 0
	}
	if limit := MaxAmount.Dollars(); math.Abs(dollars) > limit {
		return Cents(math.Copysign(float64(MaxAmount), dollars))
	}
	return Cents(decimal.NewFromFloat(dollars).Shift(2).Add(half).Floor().IntPart())
}

// Decimal returns the amount as a decimal dollar value.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Dollars returns the amount as float dollars.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// String formats the amount with exactly two decimals, e.g. "3.40".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number in dollars.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in dollars.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Sum adds up amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
