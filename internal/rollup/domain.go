// Package rollup folds approved company reports into cluster and group
// dashboards. All percentages are recomputed from rolled-up sums, never
// averaged across companies.
package rollup

import (
	"time"

	"github.com/finport/finport/internal/variance"
)

// Mode selects the aggregation window.
type Mode string

const (
	// ModeMonth aggregates a single calendar month.
	ModeMonth Mode = "month"
	// ModeYTD aggregates from each company's fiscal-year start.
	ModeYTD Mode = "ytd"
)

// Options selects what to aggregate. IncludeSubmitted widens the input
// to not-yet-approved submissions for provisional views.
type Options struct {
	Mode             Mode `json:"mode"`
	Year             int  `json:"year"`
	Month            int  `json:"month"`
	IncludeSubmitted bool `json:"include_submitted"`
}

// PeriodKey identifies one calendar month.
type PeriodKey struct {
	Year  int
	Month int
}

// YTDWindow lists the months of a company's fiscal year up to and
// including the queried month. A query before the fiscal start wraps
// into the prior calendar year.
func YTDWindow(fiscalStart, year, month int) []PeriodKey {
	if fiscalStart < 1 || fiscalStart > 12 {
		fiscalStart = 1
	}
	var window []PeriodKey
	if month >= fiscalStart {
		for m := fiscalStart; m <= month; m++ {
			window = append(window, PeriodKey{Year: year, Month: m})
		}
		return window
	}
	for m := fiscalStart; m <= 12; m++ {
		window = append(window, PeriodKey{Year: year - 1, Month: m})
	}
	for m := 1; m <= month; m++ {
		window = append(window, PeriodKey{Year: year, Month: m})
	}
	return window
}

// Totals carries the three headline comparison cells for one node.
type Totals struct {
	Revenue     variance.Cell `json:"revenue"`
	GrossProfit variance.Cell `json:"gross_profit"`
	PBT         variance.Cell `json:"pbt"`
}

// Node is one level of the rollup tree. ContributionPercent is the
// node's share of its parent, measured on absolute actual PBT.
type Node struct {
	Level               string    `json:"level"`
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Totals              Totals    `json:"totals"`
	ContributionPercent float64   `json:"contribution_percent"`
	CompaniesReporting  int       `json:"companies_reporting"`
	CompaniesTotal      int       `json:"companies_total"`
	Risk                RiskLevel `json:"risk,omitempty"`
	Children            []Node    `json:"children,omitempty"`
}

// Ranking is one row of the top/bottom performer lists.
type Ranking struct {
	CompanyID          int64   `json:"company_id"`
	CompanyName        string  `json:"company_name"`
	AchievementPercent float64 `json:"achievement_percent"`
	PBTVariance        float64 `json:"pbt_variance"`
}

// Snapshot is the full dashboard payload for one window.
type Snapshot struct {
	Options     Options   `json:"options"`
	Group       Node      `json:"group"`
	Clusters    []Node    `json:"clusters"`
	Top         []Ranking `json:"top"`
	Bottom      []Ranking `json:"bottom"`
	GeneratedAt time.Time `json:"generated_at"`
}
