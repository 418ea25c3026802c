package variance

// Polarity states which direction of a variance is favorable for a field.
type Polarity string

const (
	// PolarityRevenue means actual >= budget is favorable.
	PolarityRevenue Polarity = "REVENUE"
	// PolarityExpense means actual <= budget is favorable.
	PolarityExpense Polarity = "EXPENSE"
)

// Field identifies a tracked comparison field.
type Field string

const (
	FieldRevenue           Field = "revenue"
	FieldGrossProfit       Field = "gross_profit"
	FieldOtherIncome       Field = "other_income"
	FieldPersonalExpense   Field = "personal_expense"
	FieldAdminExpense      Field = "admin_expense"
	FieldSellingExpense    Field = "selling_expense"
	FieldFinanceExpense    Field = "finance_expense"
	FieldDepreciation      Field = "depreciation"
	FieldTotalOverheads    Field = "total_overheads"
	FieldPBTBeforeNonOps   Field = "pbt_before_non_ops"
	FieldPBTAfterNonOps    Field = "pbt_after_non_ops"
	FieldEBIT              Field = "ebit"
	FieldEBITDA            Field = "ebitda"
	FieldGrossProfitMargin Field = "gross_profit_margin"
	FieldNetProfitMargin   Field = "net_profit_margin"
)

// PolarityTable maps fields to their favorability direction. The legacy
// portal hard-coded the direction at every comparison cell; here every
// caller shares one table and overrides come from configuration only.
type PolarityTable map[Field]Polarity

// DefaultPolarity returns the standard table for the fixed metric set.
func DefaultPolarity() PolarityTable {
	return PolarityTable{
		FieldRevenue:           PolarityRevenue,
		FieldGrossProfit:       PolarityRevenue,
		FieldOtherIncome:       PolarityRevenue,
		FieldPersonalExpense:   PolarityExpense,
		FieldAdminExpense:      PolarityExpense,
		FieldSellingExpense:    PolarityExpense,
		FieldFinanceExpense:    PolarityExpense,
		FieldDepreciation:      PolarityExpense,
		FieldTotalOverheads:    PolarityExpense,
		FieldPBTBeforeNonOps:   PolarityRevenue,
		FieldPBTAfterNonOps:    PolarityRevenue,
		FieldEBIT:              PolarityRevenue,
		FieldEBITDA:            PolarityRevenue,
		FieldGrossProfitMargin: PolarityRevenue,
		FieldNetProfitMargin:   PolarityRevenue,
	}
}

// Favorable reports whether the actual value beats budget for the field.
// Unknown fields default to revenue polarity.
func (t PolarityTable) Favorable(field Field, actual, budget float64) bool {
	if t[field] == PolarityExpense {
		return actual <= budget
	}
	return actual >= budget
}
