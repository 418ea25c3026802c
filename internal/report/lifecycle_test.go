package report

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/finport/finport/internal/shared"
)

var testNow = time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func completeItems() *LineItems {
	return &LineItems{
		Revenue:             f(12_500_000),
		GrossProfit:         f(4_375_000),
		OtherIncome:         f(250_000),
		PersonalExpense:     f(1_500_000),
		AdminExpense:        f(800_000),
		SellingExpense:      f(600_000),
		FinanceExpense:      f(200_000),
		Depreciation:        f(300_000),
		Provisions:          f(-50_000),
		ExchangeGainLoss:    f(-30_000),
		NonOperatingExpense: f(100_000),
		NonOperatingIncome:  f(80_000),
	}
}

func draftReport() Report {
	return Report{
		ID:        uuid.New(),
		CompanyID: 7,
		Year:      2025,
		Month:     1,
		Status:    StatusDraft,
		LineItems: completeItems(),
	}
}

func officer() shared.Actor {
	return shared.Actor{ID: 11, Name: "Nadia", Role: shared.RoleFinanceOfficer}
}

func director() shared.Actor {
	return shared.Actor{ID: 21, Name: "Karim", Role: shared.RoleDirector}
}

func TestSubmitIncompleteDraftFailsWithoutMutation(t *testing.T) {
	r := draftReport()
	r.LineItems.Revenue = nil
	r.LineItems.Depreciation = nil

	got, _, err := Transition(r, ActionSubmit, nil, officer(), testNow)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError got %v", err)
	}
	if len(vErr.Fields) != 2 {
		t.Fatalf("expected 2 missing fields got %v", vErr.Fields)
	}
	if got.Status != StatusDraft {
		t.Fatalf("failed submit must not change status, got %s", got.Status)
	}
	if got.SubmittedAt != nil {
		t.Fatalf("failed submit must not stamp submittedAt")
	}
}

func TestSubmitStampsSubmitterAndClearsRejectionReason(t *testing.T) {
	r := draftReport()
	reason := "numbers look off"
	r.RejectionReason = &reason

	got, entry, err := Transition(r, ActionSubmit, nil, officer(), testNow)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != StatusSubmitted {
		t.Fatalf("expected SUBMITTED got %s", got.Status)
	}
	if got.RejectionReason != nil {
		t.Fatalf("re-submission must clear rejection reason")
	}
	if got.SubmitterID == nil || *got.SubmitterID != 11 {
		t.Fatalf("expected submitter recorded")
	}
	if entry.FromStatus != "DRAFT" || entry.ToStatus != "SUBMITTED" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestApproveOnlyFromSubmitted(t *testing.T) {
	r := draftReport()
	r.Status = StatusApproved

	got, _, err := Transition(r, ActionApprove, "", director(), testNow)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got %v", err)
	}
	if got.Status != StatusApproved || got.ReviewedAt != r.ReviewedAt {
		t.Fatalf("failed approve must leave record unchanged")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	r := draftReport()
	r.Status = StatusSubmitted

	_, _, err := Transition(r, ActionReject, "", director(), testNow)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError got %v", err)
	}

	got, entry, err := Transition(r, ActionReject, "missing accruals", director(), testNow)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != StatusRejected {
		t.Fatalf("expected REJECTED got %s", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "missing accruals" {
		t.Fatalf("expected reason stored")
	}
	if entry.Note != "missing accruals" {
		t.Fatalf("expected reason on audit entry")
	}
}

func TestResumeKeepsItemsAndReasonUntilResubmit(t *testing.T) {
	r := draftReport()
	r.Status = StatusSubmitted

	rejected, _, err := Transition(r, ActionReject, "wrong fx rate", director(), testNow)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	resumed, _, err := Transition(rejected, ActionResume, nil, officer(), testNow)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != StatusDraft {
		t.Fatalf("expected DRAFT after resume got %s", resumed.Status)
	}
	if resumed.LineItems == nil {
		t.Fatalf("resume must keep line items as pre-fill")
	}
	if resumed.RejectionReason == nil {
		t.Fatalf("resume must keep rejection reason for display")
	}

	resubmitted, _, err := Transition(resumed, ActionSubmit, nil, officer(), testNow)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.RejectionReason != nil {
		t.Fatalf("successful resubmit must clear rejection reason")
	}
}

func TestSaveOnlyInDraft(t *testing.T) {
	r := draftReport()
	r.Status = StatusSubmitted
	_, _, err := Transition(r, ActionSave, completeItems(), officer(), testNow)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got %v", err)
	}
}

func TestSignedFieldsMayBeOmitted(t *testing.T) {
	r := draftReport()
	r.LineItems.Provisions = nil
	r.LineItems.ExchangeGainLoss = nil
	if _, _, err := Transition(r, ActionSubmit, nil, officer(), testNow); err != nil {
		t.Fatalf("signed fields absent must not block submit: %v", err)
	}
}
