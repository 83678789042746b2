package ingredient

import (
	"math"
	"strings"

	"kitchen-ledger/domain"

	"github.com/shopspring/decimal"
)

type Operation int

const (
	Add Operation = iota
	Deduct
)

func (o Operation) String() string {
	if o == Deduct {
		return "deduct"
	}
	return "add"
}

// ParseAmount accepts a finite, strictly positive decimal number such as "5", "2.5" or "1e2".
func ParseAmount(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return 0, domain.ErrInvalidAmount
	}
	amount := d.InexactFloat64()
	if !finite(amount) || amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return amount, nil
}

// ApplyAdjustment returns the quantity after adding or deducting amount. A deduction larger
// than the current quantity is rejected whole, and so is a result that does not fit a float64.
func ApplyAdjustment(current float64, amount float64, op Operation) (float64, error) {
	if amount <= 0 || !finite(amount) {
		return current, domain.ErrInvalidAmount
	}

	have := decimal.NewFromFloat(current)
	delta := decimal.NewFromFloat(amount)

	next := have.Add(delta)
	if op == Deduct {
		if delta.GreaterThan(have) {
			return current, domain.ErrInsufficientStock
		}
		next = have.Sub(delta)
	}

	quantity := next.InexactFloat64()
	if !finite(quantity) {
		return current, domain.ErrInvalidAmount
	}
	return quantity, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
