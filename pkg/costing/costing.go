// Package costing prices a recipe from the current state of its ingredients.
//
// A usage line is charged the share of the ingredient's recorded cost that its amount
// represents of the on-hand quantity: (amount / quantity) * cost. A recipe that consumes
// the whole stock is charged the whole cost. All arithmetic is decimal; rounding to cents
// uses banker's rounding.
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	centPlaces = 2

	unknownIngredientName = "unknown"
	skipWarningFormat     = "Ingredient '%s' was skipped due to invalid quantity or cost."
)

type LineStatus int

const (
	LineCosted LineStatus = iota
	LineSkipped
)

func (s LineStatus) String() string {
	switch s {
	case LineCosted:
		return "costed"
	case LineSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("LineStatus(%d)", int(s))
	}
}

// Stock is the snapshot of an ingredient a line is costed against.
type Stock struct {
	Name     string
	Quantity float64
	UnitCost decimal.Decimal
}

// Line is one usage line. A nil Stock means the ingredient could not be resolved.
type Line struct {
	Amount float64
	Stock  *Stock
}

type LineResult struct {
	Status  LineStatus
	Cost    decimal.Decimal
	Warning string
}

type Summary struct {
	TotalCost      decimal.Decimal
	CostPerServing decimal.Decimal
	Warnings       []string
	Lines          []LineResult
}

// Classify decides whether a line can be costed and, if so, what it costs.
func Classify(line Line) LineResult {
	if line.Stock == nil {
		return skipped(unknownIngredientName)
	}
	if line.Stock.Quantity == 0 {
		return skipped(line.Stock.Name)
	}

	share := decimal.NewFromFloat(line.Amount).Div(decimal.NewFromFloat(line.Stock.Quantity))
	return LineResult{
		Status: LineCosted,
		Cost:   share.Mul(line.Stock.UnitCost),
	}
}

func skipped(name string) LineResult {
	if name == "" {
		name = unknownIngredientName
	}
	return LineResult{
		Status:  LineSkipped,
		Cost:    decimal.Zero,
		Warning: fmt.Sprintf(skipWarningFormat, name),
	}
}

// Cost folds every line into totals. It never fails: lines with unusable data become warnings.
func Cost(lines []Line, servings int) Summary {
	sum := decimal.Zero
	results := make([]LineResult, 0, len(lines))
	warnings := make([]string, 0)

	for _, line := range lines {
		res := Classify(line)
		results = append(results, res)
		if res.Status == LineSkipped {
			warnings = append(warnings, res.Warning)
			continue
		}
		sum = sum.Add(res.Cost)
	}

	total := sum.RoundBank(centPlaces)
	return Summary{
		TotalCost:      total,
		CostPerServing: PerServing(total, servings),
		Warnings:       warnings,
		Lines:          results,
	}
}

// PerServing splits total across servings; zero servings yields zero, not an error.
func PerServing(total decimal.Decimal, servings int) decimal.Decimal {
	if servings == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(servings))).RoundBank(centPlaces)
}
