package rollup

import (
	"testing"
	"time"

	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/metrics"
)

var engineNow = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func testTree() masterdata.Tree {
	return masterdata.Tree{
		Clusters: []masterdata.Cluster{
			{ID: 1, Name: "Retail"},
			{ID: 2, Name: "Logistics"},
		},
		Companies: []masterdata.Company{
			{ID: 10, Name: "Alpha", ClusterID: 1, FiscalYearStart: 1},
			{ID: 11, Name: "Beta", ClusterID: 1, FiscalYearStart: 1},
			{ID: 20, Name: "Gamma", ClusterID: 2, FiscalYearStart: 4},
		},
	}
}

func pbtSet(pbt float64) metrics.LineItemSet {
	return metrics.LineItemSet{GrossProfit: pbt}
}

func newTestEngine() *Engine {
	return NewEngine(nil, DefaultRiskPolicy(), 5)
}

func TestAggregateSkipsMissingCompanies(t *testing.T) {
	tree := testTree()
	inputs := []CompanyInput{
		{
			Company: tree.Companies[0],
			Periods: []PeriodFigures{{
				Period: PeriodKey{Year: 2025, Month: 1},
				Actual: pbtSet(100_000),
				Budget: pbtSet(80_000),
			}},
		},
		// Beta has no approved report this month: absent, not zero.
	}

	snap := newTestEngine().Aggregate(tree, inputs, Options{Mode: ModeMonth, Year: 2025, Month: 1}, engineNow)

	retail := snap.Clusters[0]
	if retail.Totals.PBT.Actual != 100_000 {
		t.Fatalf("cluster PBT must equal Alpha's alone, got %v", retail.Totals.PBT.Actual)
	}
	if retail.CompaniesReporting != 1 || retail.CompaniesTotal != 2 {
		t.Fatalf("expected reporting 1/2 got %d/%d", retail.CompaniesReporting, retail.CompaniesTotal)
	}
	if snap.Group.CompaniesReporting != 1 || snap.Group.CompaniesTotal != 3 {
		t.Fatalf("expected group 1/3 got %d/%d", snap.Group.CompaniesReporting, snap.Group.CompaniesTotal)
	}
}

func TestAggregateRecomputesPercentagesFromSums(t *testing.T) {
	tree := testTree()
	// Alpha hits 50% of a 100k budget, Beta 150% of a 100k budget. The
	// cluster achievement must come from the summed totals (100%), not
	// the average of per-company percentages.
	inputs := []CompanyInput{
		{Company: tree.Companies[0], Periods: []PeriodFigures{{
			Actual: pbtSet(50_000), Budget: pbtSet(100_000),
		}}},
		{Company: tree.Companies[1], Periods: []PeriodFigures{{
			Actual: pbtSet(150_000), Budget: pbtSet(100_000),
		}}},
	}

	snap := newTestEngine().Aggregate(tree, inputs, Options{Mode: ModeMonth, Year: 2025, Month: 1}, engineNow)
	if got := snap.Clusters[0].Totals.PBT.AchievementPercent; got != 100 {
		t.Fatalf("expected achievement 100 from sums got %v", got)
	}
}

func TestAggregateRankings(t *testing.T) {
	tree := testTree()
	inputs := []CompanyInput{
		{Company: tree.Companies[0], Periods: []PeriodFigures{{
			Actual: pbtSet(150_000), Budget: pbtSet(100_000), // 150%
		}}},
		{Company: tree.Companies[1], Periods: []PeriodFigures{{
			Actual: pbtSet(40_000), Budget: pbtSet(100_000), // 40%
		}}},
		{Company: tree.Companies[2], Periods: []PeriodFigures{{
			Actual: pbtSet(90_000), Budget: pbtSet(100_000), // 90%
		}}},
	}

	snap := newTestEngine().Aggregate(tree, inputs, Options{Mode: ModeMonth, Year: 2025, Month: 1}, engineNow)
	if len(snap.Top) != 3 || snap.Top[0].CompanyName != "Alpha" {
		t.Fatalf("expected Alpha on top got %+v", snap.Top)
	}
	if snap.Bottom[0].CompanyName != "Beta" {
		t.Fatalf("expected Beta at bottom got %+v", snap.Bottom)
	}
}

func TestAggregateRankingTieBreak(t *testing.T) {
	tree := testTree()
	// Same achievement, Beta has the larger absolute variance and must
	// rank first.
	inputs := []CompanyInput{
		{Company: tree.Companies[0], Periods: []PeriodFigures{{
			Actual: pbtSet(120_000), Budget: pbtSet(100_000),
		}}},
		{Company: tree.Companies[1], Periods: []PeriodFigures{{
			Actual: pbtSet(240_000), Budget: pbtSet(200_000),
		}}},
	}

	snap := newTestEngine().Aggregate(tree, inputs, Options{Mode: ModeMonth, Year: 2025, Month: 1}, engineNow)
	if snap.Top[0].CompanyName != "Beta" {
		t.Fatalf("tie must break on absolute PBT variance, got %+v", snap.Top)
	}
}

func TestAggregateRankingFullTieIsDeterministic(t *testing.T) {
	tree := testTree()
	// Identical achievement and identical absolute variance: order must
	// fall back to company id, not map iteration order.
	figures := []PeriodFigures{{
		Actual: pbtSet(120_000), Budget: pbtSet(100_000),
	}}
	inputs := []CompanyInput{
		{Company: tree.Companies[1], Periods: figures},
		{Company: tree.Companies[0], Periods: figures},
	}

	for i := 0; i < 20; i++ {
		snap := newTestEngine().Aggregate(tree, inputs, Options{Mode: ModeMonth, Year: 2025, Month: 1}, engineNow)
		if snap.Top[0].CompanyID != 10 || snap.Top[1].CompanyID != 11 {
			t.Fatalf("run %d: full tie must order by company id, got %+v", i, snap.Top)
		}
		if snap.Bottom[0].CompanyID != 10 || snap.Bottom[1].CompanyID != 11 {
			t.Fatalf("run %d: bottom ranking not deterministic, got %+v", i, snap.Bottom)
		}
	}
}

func TestAggregateContributionShares(t *testing.T) {
	tree := testTree()
	inputs := []CompanyInput{
		{Company: tree.Companies[0], Periods: []PeriodFigures{{
			Actual: pbtSet(75_000), Budget: pbtSet(75_000),
		}}},
		{Company: tree.Companies[1], Periods: []PeriodFigures{{
			Actual: pbtSet(25_000), Budget: pbtSet(25_000),
		}}},
	}

	snap := newTestEngine().Aggregate(tree, inputs, Options{Mode: ModeMonth, Year: 2025, Month: 1}, engineNow)
	children := snap.Clusters[0].Children
	if children[0].Name != "Alpha" || children[0].ContributionPercent != 75 {
		t.Fatalf("expected Alpha at 75%% got %+v", children[0])
	}
	if children[1].ContributionPercent != 25 {
		t.Fatalf("expected Beta at 25%% got %+v", children[1])
	}
}

func TestYTDWindow(t *testing.T) {
	window := YTDWindow(1, 2025, 3)
	if len(window) != 3 || window[0] != (PeriodKey{2025, 1}) || window[2] != (PeriodKey{2025, 3}) {
		t.Fatalf("calendar-year window wrong: %+v", window)
	}

	// Fiscal year starting April, queried at Feb 2025: Apr-Dec 2024 plus
	// Jan-Feb 2025.
	window = YTDWindow(4, 2025, 2)
	if len(window) != 11 {
		t.Fatalf("expected 11 months got %d", len(window))
	}
	if window[0] != (PeriodKey{2024, 4}) || window[8] != (PeriodKey{2024, 12}) || window[10] != (PeriodKey{2025, 2}) {
		t.Fatalf("wrapped window wrong: %+v", window)
	}
}

func TestRiskPolicyClassify(t *testing.T) {
	policy := DefaultRiskPolicy()
	cases := []struct {
		name        string
		achievement float64
		revVariance float64
		want        RiskLevel
	}{
		{"deep negative achievement", -150, 0, RiskCritical},
		{"revenue blowout", 90, 60, RiskCritical},
		{"revenue shortfall blowout", 90, -60, RiskCritical},
		{"under high threshold", 60, 0, RiskHigh},
		{"under medium threshold", 90, 0, RiskMedium},
		{"on plan", 101, 0, RiskLow},
	}
	for _, tc := range cases {
		if got := policy.Classify(tc.achievement, tc.revVariance); got != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}
