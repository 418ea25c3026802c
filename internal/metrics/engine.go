// Package metrics derives the fixed set of reporting ratios and subtotals
// from one company/period line-item set. The formula set is frozen: the
// legacy portal carried at least two divergent EBIT definitions across
// screens, and this package is the single source both entry and dashboard
// paths must use.
package metrics

import "math"

// Scenario distinguishes entered actuals from the pre-loaded budget.
type Scenario string

const (
	// ScenarioActual marks figures entered by a finance officer.
	ScenarioActual Scenario = "ACTUAL"
	// ScenarioBudget marks the pre-loaded budget figures.
	ScenarioBudget Scenario = "BUDGET"
)

// LineItemSet holds the raw monthly figures for one company, period and
// scenario. Provisions and ExchangeGainLoss are signed (gain positive,
// loss negative); every other monetary field is non-negative.
type LineItemSet struct {
	CompanyID int64    `json:"company_id"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Scenario  Scenario `json:"scenario"`

	Revenue             float64 `json:"revenue"`
	GrossProfit         float64 `json:"gross_profit"`
	OtherIncome         float64 `json:"other_income"`
	PersonalExpense     float64 `json:"personal_expense"`
	AdminExpense        float64 `json:"admin_expense"`
	SellingExpense      float64 `json:"selling_expense"`
	FinanceExpense      float64 `json:"finance_expense"`
	Depreciation        float64 `json:"depreciation"`
	Provisions          float64 `json:"provisions"`
	ExchangeGainLoss    float64 `json:"exchange_gain_loss"`
	NonOperatingExpense float64 `json:"non_operating_expense"`
	NonOperatingIncome  float64 `json:"non_operating_income"`

	// FxRate converts figures entered in a local currency into the single
	// reporting currency. Zero means "not set" and is treated as 1.
	FxRate float64 `json:"fx_rate,omitempty"`
}

// DerivedMetrics is recomputed on every read; it is never stored apart
// from its LineItemSet. Values keep full float64 precision, rounding
// happens at presentation time via Round2.
type DerivedMetrics struct {
	Revenue           float64 `json:"revenue"`
	GrossProfit       float64 `json:"gross_profit"`
	GrossProfitMargin float64 `json:"gross_profit_margin"`
	TotalOverheads    float64 `json:"total_overheads"`
	PBTBeforeNonOps   float64 `json:"pbt_before_non_ops"`
	NetProfitMargin   float64 `json:"net_profit_margin"`
	PBTAfterNonOps    float64 `json:"pbt_after_non_ops"`
	EBIT              float64 `json:"ebit"`
	EBITDA            float64 `json:"ebitda"`
}

// Normalize applies the exchange-rate multiplier and returns a set in the
// reporting currency. A zero or negative rate leaves the set unchanged.
func (l LineItemSet) Normalize() LineItemSet {
	rate := l.FxRate
	if rate <= 0 || rate == 1 {
		l.FxRate = 1
		return l
	}
	l.Revenue *= rate
	l.GrossProfit *= rate
	l.OtherIncome *= rate
	l.PersonalExpense *= rate
	l.AdminExpense *= rate
	l.SellingExpense *= rate
	l.FinanceExpense *= rate
	l.Depreciation *= rate
	l.Provisions *= rate
	l.ExchangeGainLoss *= rate
	l.NonOperatingExpense *= rate
	l.NonOperatingIncome *= rate
	l.FxRate = 1
	return l
}

// Compute maps raw line items onto the derived metric set. It is a pure
// function: no I/O, no error paths, identical input yields identical
// output. Zero revenue degrades margins to 0 instead of NaN/Inf.
//
// EBIT and EBITDA build on PBTBeforeNonOps, not PBTAfterNonOps:
// non-operating items are excluded from both by group policy.
func Compute(l LineItemSet) DerivedMetrics {
	l = l.Normalize()

	m := DerivedMetrics{
		Revenue:     l.Revenue,
		GrossProfit: l.GrossProfit,
	}
	if l.Revenue > 0 {
		m.GrossProfitMargin = (l.GrossProfit / l.Revenue) * 100
	}
	m.TotalOverheads = l.PersonalExpense + l.AdminExpense + l.SellingExpense + l.FinanceExpense + l.Depreciation
	m.PBTBeforeNonOps = (l.GrossProfit + l.OtherIncome) - m.TotalOverheads + l.Provisions + l.ExchangeGainLoss
	if l.Revenue > 0 {
		m.NetProfitMargin = (m.PBTBeforeNonOps / l.Revenue) * 100
	}
	m.PBTAfterNonOps = m.PBTBeforeNonOps + l.NonOperatingIncome - l.NonOperatingExpense
	m.EBIT = m.PBTBeforeNonOps + l.FinanceExpense
	m.EBITDA = m.EBIT + l.Depreciation
	return m
}

// Round2 rounds for presentation. Internal aggregation keeps full
// precision to avoid compounding rounding across the formula chain.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
