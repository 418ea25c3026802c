package rollup

import (
	"math"
	"sort"
	"time"

	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/metrics"
	"github.com/finport/finport/internal/variance"
)

// PeriodFigures is one month's contribution for a company: the entered
// actuals paired with the read-only budget, both raw line-item sets.
type PeriodFigures struct {
	Period PeriodKey
	Actual metrics.LineItemSet
	Budget metrics.LineItemSet
}

// CompanyInput is everything the engine needs for one company. Months
// with no qualifying report are simply absent: a gap is "not yet
// reported", never zero performance.
type CompanyInput struct {
	Company masterdata.Company
	Periods []PeriodFigures
}

// Engine performs the pure rollup arithmetic. It holds no mutable state
// and may be shared across goroutines.
type Engine struct {
	calc     *variance.Calculator
	policy   RiskPolicy
	rankSize int
}

// NewEngine constructs the engine. A nil calculator gets the default
// polarity table; rankSize <= 0 falls back to 5.
func NewEngine(calc *variance.Calculator, policy RiskPolicy, rankSize int) *Engine {
	if calc == nil {
		calc = variance.NewCalculator(nil)
	}
	if rankSize <= 0 {
		rankSize = 5
	}
	return &Engine{calc: calc, policy: policy, rankSize: rankSize}
}

type companySum struct {
	company  masterdata.Company
	actual   metrics.LineItemSet
	budget   metrics.LineItemSet
	reported bool
}

func sumInto(dst *metrics.LineItemSet, src metrics.LineItemSet) {
	src = src.Normalize()
	dst.Revenue += src.Revenue
	dst.GrossProfit += src.GrossProfit
	dst.OtherIncome += src.OtherIncome
	dst.PersonalExpense += src.PersonalExpense
	dst.AdminExpense += src.AdminExpense
	dst.SellingExpense += src.SellingExpense
	dst.FinanceExpense += src.FinanceExpense
	dst.Depreciation += src.Depreciation
	dst.Provisions += src.Provisions
	dst.ExchangeGainLoss += src.ExchangeGainLoss
	dst.NonOperatingExpense += src.NonOperatingExpense
	dst.NonOperatingIncome += src.NonOperatingIncome
}

// Aggregate folds the inputs into the cluster and group dashboard. All
// comparison percentages are recomputed from summed totals.
func (e *Engine) Aggregate(tree masterdata.Tree, inputs []CompanyInput, opts Options, now time.Time) Snapshot {
	sums := make(map[int64]*companySum, len(tree.Companies))
	for _, c := range tree.Companies {
		sums[c.ID] = &companySum{company: c}
	}
	for _, in := range inputs {
		cs, ok := sums[in.Company.ID]
		if !ok {
			continue
		}
		for _, pf := range in.Periods {
			sumInto(&cs.actual, pf.Actual)
			sumInto(&cs.budget, pf.Budget)
			cs.reported = true
		}
	}

	var groupActual, groupBudget metrics.LineItemSet
	groupReporting := 0
	clusters := make([]Node, 0, len(tree.Clusters))

	for _, cl := range tree.Clusters {
		members := tree.ByCluster(cl.ID)
		var clActual, clBudget metrics.LineItemSet
		reporting := 0
		children := make([]Node, 0, len(members))

		for _, c := range members {
			cs := sums[c.ID]
			if cs.reported {
				reporting++
				sumInto(&clActual, cs.actual)
				sumInto(&clBudget, cs.budget)
			}
			node := Node{
				Level:          "company",
				ID:             c.ID,
				Name:           c.Name,
				Totals:         e.totals(cs.actual, cs.budget),
				CompaniesTotal: 1,
			}
			if cs.reported {
				node.CompaniesReporting = 1
			}
			children = append(children, node)
		}

		applyContribution(children)
		sort.SliceStable(children, func(i, j int) bool {
			return math.Abs(children[i].Totals.PBT.Actual) > math.Abs(children[j].Totals.PBT.Actual)
		})

		totals := e.totals(clActual, clBudget)
		node := Node{
			Level:              "cluster",
			ID:                 cl.ID,
			Name:               cl.Name,
			Totals:             totals,
			CompaniesReporting: reporting,
			CompaniesTotal:     len(members),
			Risk:               e.policy.Classify(totals.PBT.AchievementPercent, totals.Revenue.VariancePercent),
			Children:           children,
		}
		clusters = append(clusters, node)

		sumInto(&groupActual, clActual)
		sumInto(&groupBudget, clBudget)
		groupReporting += reporting
	}

	applyContribution(clusters)

	group := Node{
		Level:              "group",
		Name:               "Group",
		Totals:             e.totals(groupActual, groupBudget),
		CompaniesReporting: groupReporting,
		CompaniesTotal:     len(tree.Companies),
	}

	top, bottom := e.rank(sums)

	return Snapshot{
		Options:     opts,
		Group:       group,
		Clusters:    clusters,
		Top:         top,
		Bottom:      bottom,
		GeneratedAt: now,
	}
}

func (e *Engine) totals(actual, budget metrics.LineItemSet) Totals {
	a := metrics.Compute(actual)
	b := metrics.Compute(budget)
	return Totals{
		Revenue:     e.calc.ComparePair(variance.FieldRevenue, a.Revenue, b.Revenue),
		GrossProfit: e.calc.ComparePair(variance.FieldGrossProfit, a.GrossProfit, b.GrossProfit),
		PBT:         e.calc.ComparePair(variance.FieldPBTAfterNonOps, a.PBTAfterNonOps, b.PBTAfterNonOps),
	}
}

// applyContribution assigns each node's share of the parent's absolute
// actual PBT.
func applyContribution(nodes []Node) {
	var basis float64
	for _, n := range nodes {
		basis += math.Abs(n.Totals.PBT.Actual)
	}
	if basis == 0 {
		return
	}
	for i := range nodes {
		nodes[i].ContributionPercent = (math.Abs(nodes[i].Totals.PBT.Actual) / basis) * 100
	}
}

// rank orders reporting companies by PBT achievement, ties broken by
// absolute PBT variance descending, then by company id so fully tied
// companies always list in the same order.
func (e *Engine) rank(sums map[int64]*companySum) (top, bottom []Ranking) {
	rankings := make([]Ranking, 0, len(sums))
	for _, cs := range sums {
		if !cs.reported {
			continue
		}
		a := metrics.Compute(cs.actual)
		b := metrics.Compute(cs.budget)
		cell := e.calc.ComparePair(variance.FieldPBTAfterNonOps, a.PBTAfterNonOps, b.PBTAfterNonOps)
		rankings = append(rankings, Ranking{
			CompanyID:          cs.company.ID,
			CompanyName:        cs.company.Name,
			AchievementPercent: cell.AchievementPercent,
			PBTVariance:        cell.Variance,
		})
	}

	byAchievement := func(desc bool) func(i, j int) bool {
		return func(i, j int) bool {
			a, b := rankings[i], rankings[j]
			if a.AchievementPercent != b.AchievementPercent {
				if desc {
					return a.AchievementPercent > b.AchievementPercent
				}
				return a.AchievementPercent < b.AchievementPercent
			}
			if va, vb := math.Abs(a.PBTVariance), math.Abs(b.PBTVariance); va != vb {
				return va > vb
			}
			return a.CompanyID < b.CompanyID
		}
	}

	n := e.rankSize
	if n > len(rankings) {
		n = len(rankings)
	}

	sort.SliceStable(rankings, byAchievement(true))
	top = append(top, rankings[:n]...)

	sort.SliceStable(rankings, byAchievement(false))
	bottom = append(bottom, rankings[:n]...)
	return top, bottom
}
