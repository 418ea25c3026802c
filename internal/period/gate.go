// Package period decides whether a reporting month is still open for
// actual-entry.
package period

import (
	"fmt"
	"time"
)

// DefaultGraceDays is the observed portal cutoff: entry stays open for 22
// days after the end of the target month.
const DefaultGraceDays = 22

// Decision is the gate verdict for one target period.
type Decision struct {
	Allowed  bool      `json:"allowed"`
	Reason   string    `json:"reason,omitempty"`
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
}

// Gate evaluates the entry window. It holds configuration only; Check is
// a pure function of (target period, now, grace days).
type Gate struct {
	graceDays int
}

// NewGate constructs a Gate; non-positive grace falls back to the default.
func NewGate(graceDays int) *Gate {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	return &Gate{graceDays: graceDays}
}

// GraceDays exposes the configured grace window length.
func (g *Gate) GraceDays() int {
	return g.graceDays
}

// Check reports whether (year, month) accepts actual-entry at now. The
// window runs from the first day of the following month until graceDays
// after the end of the target month, inclusive.
func (g *Gate) Check(year, month int, now time.Time) Decision {
	if month < 1 || month > 12 || year < 1 {
		return Decision{Reason: fmt.Sprintf("invalid period %04d-%02d", year, month)}
	}

	// opensAt is the day after month end; the cutoff is graceDays after
	// month end, so the window spans graceDays calendar days inclusive.
	opensAt := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	closesAt := opensAt.AddDate(0, 0, g.graceDays-1)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case day.Before(opensAt):
		return Decision{
			OpensAt:  opensAt,
			ClosesAt: closesAt,
			Reason:   fmt.Sprintf("period %04d-%02d opens for entry on %s", year, month, opensAt.Format("2006-01-02")),
		}
	case day.After(closesAt):
		return Decision{
			OpensAt:  opensAt,
			ClosesAt: closesAt,
			Reason:   fmt.Sprintf("period %04d-%02d closed for entry on %s", year, month, closesAt.Format("2006-01-02")),
		}
	}
	return Decision{Allowed: true, OpensAt: opensAt, ClosesAt: closesAt}
}
