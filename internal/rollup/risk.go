package rollup

import "math"

// RiskLevel tags a cluster on the dashboard.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// RiskPolicy holds the classification thresholds. The legacy dashboards
// embedded divergent cutoffs per screen; every caller must go through
// one configured table.
type RiskPolicy struct {
	// CriticalBelow: PBT achievement percent under this is critical.
	CriticalBelow float64
	// RevenueVarianceBound: an absolute revenue variance percent beyond
	// this is critical regardless of achievement.
	RevenueVarianceBound float64
	// HighBelow and MediumBelow split the remainder.
	HighBelow   float64
	MediumBelow float64
}

// DefaultRiskPolicy mirrors the thresholds agreed with group finance.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		CriticalBelow:        -100,
		RevenueVarianceBound: 50,
		HighBelow:            80,
		MediumBelow:          95,
	}
}

// Classify maps a cluster's PBT achievement and revenue variance percent
// onto a risk level.
func (p RiskPolicy) Classify(pbtAchievement, revenueVariancePercent float64) RiskLevel {
	switch {
	case pbtAchievement < p.CriticalBelow:
		return RiskCritical
	case math.Abs(revenueVariancePercent) > p.RevenueVarianceBound:
		return RiskCritical
	case pbtAchievement < p.HighBelow:
		return RiskHigh
	case pbtAchievement < p.MediumBelow:
		return RiskMedium
	default:
		return RiskLow
	}
}
