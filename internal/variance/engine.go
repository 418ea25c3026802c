// Package variance compares an actual metric set against its budget
// counterpart, at summary and line-item level.
package variance

import (
	"math"

	"github.com/finport/finport/internal/metrics"
)

// AchievementClamp bounds achievement percent when the budget is zero but
// actuals exist; the ratio is mathematically infinite and gets clamped to
// this magnitude with the sign of the actual.
const AchievementClamp = 999999.99

// Cell is one actual-vs-budget comparison for a single field.
type Cell struct {
	Field              Field   `json:"field"`
	Actual             float64 `json:"actual"`
	Budget             float64 `json:"budget"`
	Variance           float64 `json:"variance"`
	VariancePercent    float64 `json:"variance_percent"`
	AchievementPercent float64 `json:"achievement_percent"`
	Favorable          bool    `json:"favorable"`
}

// Result groups the comparison cells for one company/period pair.
type Result struct {
	Cells map[Field]Cell `json:"cells"`
}

// Cell returns the comparison for a field, zero value when untracked.
func (r Result) Cell(field Field) Cell {
	return r.Cells[field]
}

// Calculator applies a polarity table to metric pairs.
type Calculator struct {
	polarity PolarityTable
}

// NewCalculator builds a Calculator; a nil table falls back to the default.
func NewCalculator(polarity PolarityTable) *Calculator {
	if polarity == nil {
		polarity = DefaultPolarity()
	}
	return &Calculator{polarity: polarity}
}

// Compare builds the summary-level result from two derived metric sets.
func (c *Calculator) Compare(actual, budget metrics.DerivedMetrics) Result {
	cells := make(map[Field]Cell, 9)
	put := func(field Field, a, b float64) {
		cells[field] = c.cell(field, a, b)
	}
	put(FieldRevenue, actual.Revenue, budget.Revenue)
	put(FieldGrossProfit, actual.GrossProfit, budget.GrossProfit)
	put(FieldGrossProfitMargin, actual.GrossProfitMargin, budget.GrossProfitMargin)
	put(FieldTotalOverheads, actual.TotalOverheads, budget.TotalOverheads)
	put(FieldPBTBeforeNonOps, actual.PBTBeforeNonOps, budget.PBTBeforeNonOps)
	put(FieldNetProfitMargin, actual.NetProfitMargin, budget.NetProfitMargin)
	put(FieldPBTAfterNonOps, actual.PBTAfterNonOps, budget.PBTAfterNonOps)
	put(FieldEBIT, actual.EBIT, budget.EBIT)
	put(FieldEBITDA, actual.EBITDA, budget.EBITDA)
	return Result{Cells: cells}
}

// CompareLines builds the line-item level result from two raw sets.
func (c *Calculator) CompareLines(actual, budget metrics.LineItemSet) Result {
	actual = actual.Normalize()
	budget = budget.Normalize()
	cells := make(map[Field]Cell, 8)
	put := func(field Field, a, b float64) {
		cells[field] = c.cell(field, a, b)
	}
	put(FieldRevenue, actual.Revenue, budget.Revenue)
	put(FieldGrossProfit, actual.GrossProfit, budget.GrossProfit)
	put(FieldOtherIncome, actual.OtherIncome, budget.OtherIncome)
	put(FieldPersonalExpense, actual.PersonalExpense, budget.PersonalExpense)
	put(FieldAdminExpense, actual.AdminExpense, budget.AdminExpense)
	put(FieldSellingExpense, actual.SellingExpense, budget.SellingExpense)
	put(FieldFinanceExpense, actual.FinanceExpense, budget.FinanceExpense)
	put(FieldDepreciation, actual.Depreciation, budget.Depreciation)
	return Result{Cells: cells}
}

// ComparePair is the low-level comparison for a single pair of numbers,
// used by rollup code that recomputes percentages from summed totals.
func (c *Calculator) ComparePair(field Field, actual, budget float64) Cell {
	return c.cell(field, actual, budget)
}

func (c *Calculator) cell(field Field, actual, budget float64) Cell {
	cell := Cell{
		Field:    field,
		Actual:   actual,
		Budget:   budget,
		Variance: actual - budget,
	}
	if budget != 0 {
		cell.VariancePercent = (cell.Variance / math.Abs(budget)) * 100
		cell.AchievementPercent = (actual / budget) * 100
	} else if actual != 0 {
		cell.AchievementPercent = math.Copysign(AchievementClamp, actual)
	}
	cell.Favorable = c.polarity.Favorable(field, actual, budget)
	return cell
}
