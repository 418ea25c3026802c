package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finport/finport/internal/metrics"
	"github.com/finport/finport/internal/period"
	"github.com/finport/finport/internal/shared"
	"github.com/finport/finport/internal/variance"
)

// AuditRecorder persists transition history.
type AuditRecorder interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
	List(ctx context.Context, reportID uuid.UUID) ([]shared.AuditEntry, error)
}

// TransitionEvent describes a lifecycle step for the notification
// dispatcher. The core only emits the event; delivery lives elsewhere.
type TransitionEvent struct {
	ReportID   uuid.UUID `json:"report_id"`
	CompanyID  int64     `json:"company_id"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Action     Action    `json:"action"`
	Status     Status    `json:"status"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Note       string    `json:"note,omitempty"`
	PBT        float64   `json:"pbt"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier dispatches transition events, fire-and-forget.
type Notifier interface {
	NotifyTransition(ctx context.Context, event TransitionEvent) error
}

// Comparison pairs live derived metrics with the budget comparison for
// the entry screen.
type Comparison struct {
	Actual  metrics.DerivedMetrics `json:"actual"`
	Budget  metrics.DerivedMetrics `json:"budget"`
	Summary variance.Result        `json:"summary"`
	Lines   variance.Result        `json:"lines"`
}

// Service coordinates lifecycle transitions: per-key serialization,
// period gating, persistence with version checks, audit and
// notifications.
type Service struct {
	repo     Repository
	gate     *period.Gate
	audit    AuditRecorder
	notifier Notifier
	calc     *variance.Calculator
	locks    *shared.KeyedMutex
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
	observe  func(action Action)
}

// SetTransitionObserver registers a hook invoked after every committed
// transition; used for metrics and cache invalidation.
func (s *Service) SetTransitionObserver(fn func(action Action)) {
	s.observe = fn
}

// NewService builds the service.
func NewService(repo Repository, gate *period.Gate, audit AuditRecorder, notifier Notifier, calc *variance.Calculator, logger *slog.Logger) *Service {
	if calc == nil {
		calc = variance.NewCalculator(nil)
	}
	return &Service{
		repo:     repo,
		gate:     gate,
		audit:    audit,
		notifier: notifier,
		calc:     calc,
		locks:    shared.NewKeyedMutex(),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Get loads one report.
func (s *Service) Get(ctx context.Context, key Key) (Report, error) {
	if err := key.Validate(); err != nil {
		return Report{}, err
	}
	return s.repo.Get(ctx, key)
}

// Budget returns the read-only budget figures for the key.
func (s *Service) Budget(ctx context.Context, key Key) (metrics.LineItemSet, error) {
	if err := key.Validate(); err != nil {
		return metrics.LineItemSet{}, err
	}
	return s.repo.BudgetLineItems(ctx, key)
}

// Compare recomputes derived metrics for the current draft or submission
// against the budget. Metrics are derived on every read, never stored.
func (s *Service) Compare(ctx context.Context, key Key) (Comparison, error) {
	r, err := s.Get(ctx, key)
	if err != nil {
		return Comparison{}, err
	}
	if r.LineItems == nil {
		return Comparison{}, &ValidationError{Msg: "no line items entered"}
	}
	actualSet := r.LineItems.ToSet(key, metrics.ScenarioActual)
	budgetSet, err := s.repo.BudgetLineItems(ctx, key)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Comparison{}, err
	}
	actual := metrics.Compute(actualSet)
	budget := metrics.Compute(budgetSet)
	return Comparison{
		Actual:  actual,
		Budget:  budget,
		Summary: s.calc.Compare(actual, budget),
		Lines:   s.calc.CompareLines(actualSet, budgetSet),
	}, nil
}

// SaveDraft overwrites the draft's line items; the report record is
// created on the first save.
func (s *Service) SaveDraft(ctx context.Context, key Key, items *LineItems, actor shared.Actor) (Report, error) {
	if err := key.Validate(); err != nil {
		return Report{}, err
	}
	if items == nil {
		return Report{}, &ValidationError{Msg: "line items required"}
	}
	if err := s.validate.Struct(items); err != nil {
		return Report{}, &ValidationError{Msg: "invalid line items: " + err.Error()}
	}

	unlock := s.locks.Lock(shared.ReportLockKey(key.CompanyID, key.Year, key.Month))
	defer unlock()

	r, err := s.repo.Get(ctx, key)
	created := false
	if errors.Is(err, ErrNotFound) {
		r = Report{
			ID:        uuid.New(),
			CompanyID: key.CompanyID,
			Year:      key.Year,
			Month:     key.Month,
			Status:    StatusDraft,
		}
		created = true
	} else if err != nil {
		return Report{}, err
	}

	next, entry, err := Transition(r, ActionSave, items, actor, s.now())
	if err != nil {
		return Report{}, err
	}

	if created {
		next, err = s.repo.Create(ctx, next)
	} else {
		next, err = s.repo.Update(ctx, next)
	}
	if err != nil {
		return Report{}, err
	}
	entry.ReportID = next.ID
	s.record(ctx, entry)
	if s.observe != nil {
		s.observe(ActionSave)
	}
	return next, nil
}

// Submit moves a complete draft into review. The period gate runs first:
// a closed month fails with the exact cutoff in the error.
func (s *Service) Submit(ctx context.Context, key Key, actor shared.Actor) (Report, error) {
	return s.transition(ctx, key, ActionSubmit, nil, actor, true)
}

// Approve finalises a submission; line items freeze afterwards.
func (s *Service) Approve(ctx context.Context, key Key, comment string, actor shared.Actor) (Report, error) {
	return s.transition(ctx, key, ActionApprove, comment, actor, false)
}

// Reject returns a submission to the officer with a mandatory reason.
func (s *Service) Reject(ctx context.Context, key Key, reason string, actor shared.Actor) (Report, error) {
	return s.transition(ctx, key, ActionReject, reason, actor, false)
}

// Resume reopens a rejected report for editing.
func (s *Service) Resume(ctx context.Context, key Key, actor shared.Actor) (Report, error) {
	return s.transition(ctx, key, ActionResume, nil, actor, false)
}

// CheckPeriod exposes the entry gate decision for a target month.
func (s *Service) CheckPeriod(year, month int) period.Decision {
	return s.gate.Check(year, month, s.now())
}

// AuditTrail returns the immutable transition history, oldest first.
func (s *Service) AuditTrail(ctx context.Context, key Key) ([]shared.AuditEntry, error) {
	r, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.audit.List(ctx, r.ID)
}

func (s *Service) transition(ctx context.Context, key Key, action Action, payload any, actor shared.Actor, gated bool) (Report, error) {
	if err := key.Validate(); err != nil {
		return Report{}, err
	}

	unlock := s.locks.Lock(shared.ReportLockKey(key.CompanyID, key.Year, key.Month))
	defer unlock()

	r, err := s.repo.Get(ctx, key)
	if err != nil {
		return Report{}, err
	}

	now := s.now()
	if gated {
		if dec := s.gate.Check(key.Year, key.Month, now); !dec.Allowed {
			return Report{}, &PeriodClosedError{Reason: dec.Reason, ClosesAt: dec.ClosesAt}
		}
	}

	next, entry, err := Transition(r, action, payload, actor, now)
	if err != nil {
		return Report{}, err
	}
	next, err = s.repo.Update(ctx, next)
	if err != nil {
		return Report{}, err
	}
	s.record(ctx, entry)
	s.notify(ctx, next, action, entry)
	if s.observe != nil {
		s.observe(action)
	}
	return next, nil
}

func (s *Service) record(ctx context.Context, entry shared.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("record audit entry", slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, r Report, action Action, entry shared.AuditEntry) {
	if s.notifier == nil {
		return
	}
	// Only decisions and submissions notify; reopening a rejected draft
	// is a local affair.
	if action != ActionSubmit && action != ActionApprove && action != ActionReject {
		return
	}
	var pbt float64
	if r.LineItems != nil {
		pbt = metrics.Compute(r.LineItems.ToSet(r.Key(), metrics.ScenarioActual)).PBTAfterNonOps
	}
	event := TransitionEvent{
		ReportID:   r.ID,
		CompanyID:  r.CompanyID,
		Year:       r.Year,
		Month:      r.Month,
		Action:     action,
		Status:     r.Status,
		ActorID:    entry.ActorID,
		ActorName:  entry.ActorName,
		Note:       entry.Note,
		PBT:        pbt,
		OccurredAt: entry.At,
	}
	if err := s.notifier.NotifyTransition(ctx, event); err != nil {
		// Delivery is fire-and-forget; the transition already committed.
		s.logger.Warn("notify transition", slog.Any("error", err))
	}
}
