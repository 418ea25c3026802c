package rollup

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/metrics"
	"github.com/finport/finport/internal/report"
	"github.com/finport/finport/internal/shared"
)

type fakeTree struct {
	tree masterdata.Tree
}

func (f *fakeTree) Tree(_ context.Context) (masterdata.Tree, error) {
	return f.tree, nil
}

type fakeReports struct {
	reports map[report.Key]report.Report
	budgets map[report.Key]metrics.LineItemSet
	gets    atomic.Int64
}

func (f *fakeReports) Get(_ context.Context, key report.Key) (report.Report, error) {
	f.gets.Add(1)
	r, ok := f.reports[key]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	return r, nil
}

func (f *fakeReports) BudgetLineItems(_ context.Context, key report.Key) (metrics.LineItemSet, error) {
	b, ok := f.budgets[key]
	if !ok {
		return metrics.LineItemSet{}, shared.ErrNotFound
	}
	return b, nil
}

func fv(v float64) *float64 { return &v }

func approvedReport(key report.Key, gp float64) report.Report {
	zero := fv(0)
	return report.Report{
		CompanyID: key.CompanyID,
		Year:      key.Year,
		Month:     key.Month,
		Status:    report.StatusApproved,
		LineItems: &report.LineItems{
			Revenue: fv(gp * 3), GrossProfit: fv(gp),
			OtherIncome: zero, PersonalExpense: zero, AdminExpense: zero,
			SellingExpense: zero, FinanceExpense: zero, Depreciation: zero,
			NonOperatingExpense: zero, NonOperatingIncome: zero,
		},
	}
}

func newRollupService(t *testing.T, reports *fakeReports, withCache bool) *Service {
	t.Helper()
	tree := &fakeTree{tree: testTree()}
	var cache *Cache
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache = NewCache(client, time.Minute)
	}
	svc := NewService(tree, reports, newTestEngine(), cache, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return engineNow }
	return svc
}

func TestDashboardMonthMode(t *testing.T) {
	key := report.Key{CompanyID: 10, Year: 2025, Month: 1}
	reports := &fakeReports{
		reports: map[report.Key]report.Report{key: approvedReport(key, 100_000)},
		budgets: map[report.Key]metrics.LineItemSet{key: {GrossProfit: 80_000}},
	}
	svc := newRollupService(t, reports, false)

	snap, err := svc.Dashboard(context.Background(), Options{Mode: ModeMonth, Year: 2025, Month: 1})
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if snap.Group.Totals.PBT.Actual != 100_000 {
		t.Fatalf("expected group PBT 100000 got %v", snap.Group.Totals.PBT.Actual)
	}
	if snap.Group.CompaniesReporting != 1 || snap.Group.CompaniesTotal != 3 {
		t.Fatalf("expected 1/3 reporting got %d/%d", snap.Group.CompaniesReporting, snap.Group.CompaniesTotal)
	}
}

func TestDashboardExcludesSubmittedByDefault(t *testing.T) {
	key := report.Key{CompanyID: 10, Year: 2025, Month: 1}
	submitted := approvedReport(key, 100_000)
	submitted.Status = report.StatusSubmitted
	reports := &fakeReports{
		reports: map[report.Key]report.Report{key: submitted},
		budgets: map[report.Key]metrics.LineItemSet{},
	}
	svc := newRollupService(t, reports, false)

	snap, err := svc.Dashboard(context.Background(), Options{Mode: ModeMonth, Year: 2025, Month: 1})
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if snap.Group.CompaniesReporting != 0 {
		t.Fatalf("submitted report must not count without the flag")
	}

	snap, err = svc.Dashboard(context.Background(), Options{Mode: ModeMonth, Year: 2025, Month: 1, IncludeSubmitted: true})
	if err != nil {
		t.Fatalf("Dashboard() provisional error = %v", err)
	}
	if snap.Group.CompaniesReporting != 1 {
		t.Fatalf("provisional view must include submitted reports")
	}
}

func TestDashboardYTDSkipsGapsInWindow(t *testing.T) {
	jan := report.Key{CompanyID: 10, Year: 2025, Month: 1}
	mar := report.Key{CompanyID: 10, Year: 2025, Month: 3}
	reports := &fakeReports{
		reports: map[report.Key]report.Report{
			jan: approvedReport(jan, 100_000),
			// February missing entirely.
			mar: approvedReport(mar, 50_000),
		},
		budgets: map[report.Key]metrics.LineItemSet{},
	}
	svc := newRollupService(t, reports, false)

	snap, err := svc.Dashboard(context.Background(), Options{Mode: ModeYTD, Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if snap.Group.Totals.PBT.Actual != 150_000 {
		t.Fatalf("YTD must sum only reported months, got %v", snap.Group.Totals.PBT.Actual)
	}
}

func TestDashboardCacheHitSkipsRebuild(t *testing.T) {
	key := report.Key{CompanyID: 10, Year: 2025, Month: 1}
	reports := &fakeReports{
		reports: map[report.Key]report.Report{key: approvedReport(key, 100_000)},
		budgets: map[report.Key]metrics.LineItemSet{},
	}
	svc := newRollupService(t, reports, true)
	opts := Options{Mode: ModeMonth, Year: 2025, Month: 1}

	if _, err := svc.Dashboard(context.Background(), opts); err != nil {
		t.Fatalf("first Dashboard() error = %v", err)
	}
	first := reports.gets.Load()
	if _, err := svc.Dashboard(context.Background(), opts); err != nil {
		t.Fatalf("second Dashboard() error = %v", err)
	}
	if reports.gets.Load() != first {
		t.Fatalf("second call must be served from cache")
	}

	// Bumping the version forces a rebuild.
	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), opts); err != nil {
		t.Fatalf("post-bump Dashboard() error = %v", err)
	}
	if reports.gets.Load() == first {
		t.Fatalf("version bump must invalidate the cached snapshot")
	}
}

func TestWriteSnapshotCSV(t *testing.T) {
	key := report.Key{CompanyID: 10, Year: 2025, Month: 1}
	reports := &fakeReports{
		reports: map[report.Key]report.Report{key: approvedReport(key, 100_000)},
		budgets: map[report.Key]metrics.LineItemSet{key: {GrossProfit: 80_000}},
	}
	svc := newRollupService(t, reports, false)
	snap, err := svc.Dashboard(context.Background(), Options{Mode: ModeMonth, Year: 2025, Month: 1})
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	var sb strings.Builder
	if err := WriteSnapshotCSV(&sb, snap); err != nil {
		t.Fatalf("WriteSnapshotCSV() error = %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "group,Group,300000.00") {
		t.Fatalf("expected group row in CSV, got:\n%s", out)
	}
	if !strings.Contains(out, "company,Alpha") {
		t.Fatalf("expected company rows in CSV, got:\n%s", out)
	}
}
