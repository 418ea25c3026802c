package metrics

import "testing"

func sampleSet() LineItemSet {
	return LineItemSet{
		Revenue:             12_500_000,
		GrossProfit:         4_375_000,
		OtherIncome:         250_000,
		PersonalExpense:     1_500_000,
		AdminExpense:        800_000,
		SellingExpense:      600_000,
		FinanceExpense:      200_000,
		Depreciation:        300_000,
		Provisions:          -50_000,
		ExchangeGainLoss:    -30_000,
		NonOperatingExpense: 100_000,
		NonOperatingIncome:  80_000,
	}
}

func TestComputeSampleFigures(t *testing.T) {
	m := Compute(sampleSet())

	if m.TotalOverheads != 3_400_000 {
		t.Fatalf("expected overheads 3400000 got %v", m.TotalOverheads)
	}
	if m.PBTBeforeNonOps != 1_145_000 {
		t.Fatalf("expected pbt before non-ops 1145000 got %v", m.PBTBeforeNonOps)
	}
	if m.PBTAfterNonOps != 1_125_000 {
		t.Fatalf("expected pbt after non-ops 1125000 got %v", m.PBTAfterNonOps)
	}
	if m.EBIT != 1_345_000 {
		t.Fatalf("expected ebit 1345000 got %v", m.EBIT)
	}
	if m.EBITDA != 1_645_000 {
		t.Fatalf("expected ebitda 1645000 got %v", m.EBITDA)
	}
	if Round2(m.GrossProfitMargin) != 35.00 {
		t.Fatalf("expected gross margin 35.00 got %v", m.GrossProfitMargin)
	}
}

func TestComputeDeterministic(t *testing.T) {
	l := sampleSet()
	first := Compute(l)
	second := Compute(l)
	if first != second {
		t.Fatalf("expected identical outputs, got %+v vs %+v", first, second)
	}
}

func TestComputeZeroRevenueMargins(t *testing.T) {
	l := sampleSet()
	l.Revenue = 0
	m := Compute(l)
	if m.GrossProfitMargin != 0 {
		t.Fatalf("expected gross margin 0 got %v", m.GrossProfitMargin)
	}
	if m.NetProfitMargin != 0 {
		t.Fatalf("expected net margin 0 got %v", m.NetProfitMargin)
	}
}

func TestComputeEBITDAMinusEBITEqualsDepreciation(t *testing.T) {
	cases := []LineItemSet{
		sampleSet(),
		{},
		{Revenue: 100, Depreciation: 42.5},
		{Depreciation: 1_000_000, FinanceExpense: 300},
	}
	for _, l := range cases {
		m := Compute(l)
		if got := m.EBITDA - m.EBIT; got != l.Depreciation {
			t.Fatalf("expected ebitda-ebit == depreciation (%v) got %v", l.Depreciation, got)
		}
	}
}

func TestNormalizeAppliesFxRate(t *testing.T) {
	l := sampleSet()
	l.FxRate = 2
	n := l.Normalize()
	if n.Revenue != 25_000_000 {
		t.Fatalf("expected converted revenue 25000000 got %v", n.Revenue)
	}
	if n.Provisions != -100_000 {
		t.Fatalf("expected signed field converted, got %v", n.Provisions)
	}
	if n.FxRate != 1 {
		t.Fatalf("expected rate reset to 1 got %v", n.FxRate)
	}

	l.FxRate = 0
	n = l.Normalize()
	if n.Revenue != l.Revenue {
		t.Fatalf("zero rate must leave values unchanged, got %v", n.Revenue)
	}
}
