package period

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestCheckWithinGraceWindow(t *testing.T) {
	g := NewGate(22)

	// January 2025 ends Jan 31; day 21 after month end is Feb 21.
	dec := g.Check(2025, 1, day(2025, time.February, 21))
	if !dec.Allowed {
		t.Fatalf("expected day 21 after month end allowed, got %+v", dec)
	}

	// Day 22 is the cutoff itself and still allowed.
	dec = g.Check(2025, 1, day(2025, time.February, 22))
	if !dec.Allowed {
		t.Fatalf("expected cutoff day allowed, got %+v", dec)
	}
}

func TestCheckAfterCutoff(t *testing.T) {
	g := NewGate(22)

	// Day 23 after month end is past the cutoff.
	dec := g.Check(2025, 1, day(2025, time.February, 23))
	if dec.Allowed {
		t.Fatalf("expected day 23 after month end denied")
	}
	if dec.Reason == "" {
		t.Fatalf("expected human readable reason with cutoff date")
	}
	if got, want := dec.ClosesAt, time.Date(2025, time.February, 22, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected cutoff %v got %v", want, got)
	}
}

func TestCheckBeforeWindowOpens(t *testing.T) {
	g := NewGate(22)
	dec := g.Check(2025, 3, day(2025, time.March, 15))
	if dec.Allowed {
		t.Fatalf("expected current month not yet open for entry")
	}
	if got, want := dec.OpensAt, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected opens %v got %v", want, got)
	}
}

func TestCheckInvalidMonth(t *testing.T) {
	g := NewGate(0)
	if g.GraceDays() != DefaultGraceDays {
		t.Fatalf("expected fallback grace %d got %d", DefaultGraceDays, g.GraceDays())
	}
	if dec := g.Check(2025, 13, day(2025, time.May, 1)); dec.Allowed {
		t.Fatalf("expected invalid month denied")
	}
}

func TestCheckHandlesYearBoundary(t *testing.T) {
	g := NewGate(22)
	// December 2024 stays open until Jan 22, 2025.
	if dec := g.Check(2024, 12, day(2025, time.January, 22)); !dec.Allowed {
		t.Fatalf("expected december open through jan 22, got %+v", dec)
	}
	if dec := g.Check(2024, 12, day(2025, time.January, 23)); dec.Allowed {
		t.Fatalf("expected december closed on jan 23")
	}
}
