package variance

import (
	"testing"

	"github.com/finport/finport/internal/metrics"
)

func TestCompareComputesVarianceAndAchievement(t *testing.T) {
	calc := NewCalculator(nil)
	actual := metrics.Compute(metrics.LineItemSet{Revenue: 1200, GrossProfit: 480})
	budget := metrics.Compute(metrics.LineItemSet{Revenue: 1000, GrossProfit: 500})

	res := calc.Compare(actual, budget)

	rev := res.Cell(FieldRevenue)
	if rev.Variance != 200 {
		t.Fatalf("expected revenue variance 200 got %v", rev.Variance)
	}
	if rev.VariancePercent != 20 {
		t.Fatalf("expected revenue variance pct 20 got %v", rev.VariancePercent)
	}
	if rev.AchievementPercent != 120 {
		t.Fatalf("expected achievement 120 got %v", rev.AchievementPercent)
	}
	if !rev.Favorable {
		t.Fatalf("revenue above budget must be favorable")
	}

	gp := res.Cell(FieldGrossProfit)
	if gp.Favorable {
		t.Fatalf("gross profit below budget must be unfavorable")
	}
}

func TestCompareZeroBudgetDegradesToZero(t *testing.T) {
	calc := NewCalculator(nil)
	res := calc.Compare(metrics.DerivedMetrics{}, metrics.DerivedMetrics{})
	cell := res.Cell(FieldRevenue)
	if cell.VariancePercent != 0 || cell.AchievementPercent != 0 {
		t.Fatalf("expected zero fallbacks got %+v", cell)
	}
}

func TestCompareZeroBudgetNonZeroActualClamps(t *testing.T) {
	calc := NewCalculator(nil)
	pos := calc.ComparePair(FieldRevenue, 100, 0)
	if pos.AchievementPercent != AchievementClamp {
		t.Fatalf("expected clamp %v got %v", AchievementClamp, pos.AchievementPercent)
	}
	neg := calc.ComparePair(FieldPBTAfterNonOps, -100, 0)
	if neg.AchievementPercent != -AchievementClamp {
		t.Fatalf("expected -clamp got %v", neg.AchievementPercent)
	}
}

func TestExpensePolarity(t *testing.T) {
	calc := NewCalculator(nil)
	under := calc.ComparePair(FieldAdminExpense, 800, 1000)
	if !under.Favorable {
		t.Fatalf("expense under budget must be favorable")
	}
	over := calc.ComparePair(FieldAdminExpense, 1200, 1000)
	if over.Favorable {
		t.Fatalf("expense over budget must be unfavorable")
	}
}

func TestPolarityTableOverride(t *testing.T) {
	table := DefaultPolarity()
	table[FieldOtherIncome] = PolarityExpense
	calc := NewCalculator(table)
	cell := calc.ComparePair(FieldOtherIncome, 90, 100)
	if !cell.Favorable {
		t.Fatalf("override should flip polarity to expense")
	}
}

func TestCompareLinesUsesNormalizedSets(t *testing.T) {
	calc := NewCalculator(nil)
	actual := metrics.LineItemSet{Revenue: 500, FxRate: 2}
	budget := metrics.LineItemSet{Revenue: 1000}
	res := calc.CompareLines(actual, budget)
	if got := res.Cell(FieldRevenue).Variance; got != 0 {
		t.Fatalf("expected fx-normalized variance 0 got %v", got)
	}
}
