package rollup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/metrics"
	"github.com/finport/finport/internal/report"
	"github.com/finport/finport/internal/shared"
)

// ReportSource is the slice of report persistence the rollup needs.
type ReportSource interface {
	Get(ctx context.Context, key report.Key) (report.Report, error)
	BudgetLineItems(ctx context.Context, key report.Key) (metrics.LineItemSet, error)
}

// TreeSource supplies the company/cluster hierarchy.
type TreeSource interface {
	Tree(ctx context.Context) (masterdata.Tree, error)
}

// Service assembles dashboard snapshots: clusters are collected in
// parallel, identical concurrent requests are coalesced, and finished
// snapshots are cached until the next approval bumps the version.
type Service struct {
	tree    TreeSource
	reports ReportSource
	engine  *Engine
	cache   *Cache
	flight  singleflight.Group
	logger  *slog.Logger
	now     func() time.Time
	observe func(d time.Duration)
}

// NewService builds the service. The cache may be nil, which disables
// caching but keeps request coalescing.
func NewService(tree TreeSource, reports ReportSource, engine *Engine, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		tree:    tree,
		reports: reports,
		engine:  engine,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// SetBuildObserver installs a hook that receives the wall time of each
// snapshot build. Cache hits do not fire it.
func (s *Service) SetBuildObserver(fn func(d time.Duration)) {
	s.observe = fn
}

func validateOptions(opts Options) error {
	if opts.Mode != ModeMonth && opts.Mode != ModeYTD {
		return errors.New("rollup: mode must be month or ytd")
	}
	if opts.Year < 2000 || opts.Year > 2100 {
		return errors.New("rollup: year out of range")
	}
	if opts.Month < 1 || opts.Month > 12 {
		return errors.New("rollup: month must be 1-12")
	}
	return nil
}

// Dashboard returns the snapshot for the window, from cache when warm.
func (s *Service) Dashboard(ctx context.Context, opts Options) (Snapshot, error) {
	if err := validateOptions(opts); err != nil {
		return Snapshot{}, err
	}
	key, err := s.cache.BuildKey(ctx, keySnapshot(opts)...)
	if err != nil {
		return Snapshot{}, err
	}
	v, err, _ := s.flight.Do(strings.Join(keySnapshot(opts), ":"), func() (interface{}, error) {
		var snap Snapshot
		err := s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (interface{}, error) {
			return s.build(ctx, opts)
		})
		return snap, err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Warm pre-builds the snapshot so the first dashboard hit is served from
// cache. Used by the periodic worker task.
func (s *Service) Warm(ctx context.Context, opts Options) error {
	_, err := s.Dashboard(ctx, opts)
	return err
}

// Invalidate drops every cached snapshot; called after an approval
// changes the underlying set.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) build(ctx context.Context, opts Options) (Snapshot, error) {
	if s.observe != nil {
		start := s.now()
		defer func() { s.observe(s.now().Sub(start)) }()
	}
	tree, err := s.tree.Tree(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	results := make([][]CompanyInput, len(tree.Clusters))
	g, gctx := errgroup.WithContext(ctx)
	for i, cl := range tree.Clusters {
		i, cl := i, cl
		g.Go(func() error {
			inputs, err := s.collect(gctx, tree.ByCluster(cl.ID), opts)
			if err != nil {
				return err
			}
			results[i] = inputs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	var inputs []CompanyInput
	for _, part := range results {
		inputs = append(inputs, part...)
	}
	return s.engine.Aggregate(tree, inputs, opts, s.now()), nil
}

// collect gathers the qualifying report figures for one cluster's
// companies. A missing or non-qualifying month is a gap, not an error.
func (s *Service) collect(ctx context.Context, companies []masterdata.Company, opts Options) ([]CompanyInput, error) {
	var inputs []CompanyInput
	for _, c := range companies {
		window := []PeriodKey{{Year: opts.Year, Month: opts.Month}}
		if opts.Mode == ModeYTD {
			window = YTDWindow(c.FiscalYearStart, opts.Year, opts.Month)
		}
		in := CompanyInput{Company: c}
		for _, pk := range window {
			key := report.Key{CompanyID: c.ID, Year: pk.Year, Month: pk.Month}
			r, err := s.reports.Get(ctx, key)
			if errors.Is(err, report.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if !s.qualifies(r, opts) {
				continue
			}
			budget, err := s.reports.BudgetLineItems(ctx, key)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			in.Periods = append(in.Periods, PeriodFigures{
				Period: pk,
				Actual: r.LineItems.ToSet(key, metrics.ScenarioActual),
				Budget: budget,
			})
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (s *Service) qualifies(r report.Report, opts Options) bool {
	if r.LineItems == nil {
		return false
	}
	if r.Status == report.StatusApproved {
		return true
	}
	return opts.IncludeSubmitted && r.Status == report.StatusSubmitted
}
