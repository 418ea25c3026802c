// Package report owns the monthly submission lifecycle: Draft reports are
// filled by finance officers, submitted for review, approved or rejected
// by directors, and rejected reports cycle back to an editable draft.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finport/finport/internal/metrics"
)

// Status enumerates report lifecycle states.
type Status string

const (
	// StatusDraft is the initial, editable state.
	StatusDraft Status = "DRAFT"
	// StatusSubmitted means waiting for a director decision.
	StatusSubmitted Status = "SUBMITTED"
	// StatusApproved is terminal; line items freeze.
	StatusApproved Status = "APPROVED"
	// StatusRejected sends the report back to the officer with a reason.
	StatusRejected Status = "REJECTED"
)

// Action enumerates lifecycle operations.
type Action string

const (
	ActionSave    Action = "SAVE"
	ActionSubmit  Action = "SUBMIT"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionResume  Action = "RESUME"
)

// Key identifies one report record.
type Key struct {
	CompanyID int64 `json:"company_id"`
	Year      int   `json:"year"`
	Month     int   `json:"month"`
}

// Validate ensures the key addresses a real period.
func (k Key) Validate() error {
	if k.CompanyID <= 0 {
		return &ValidationError{Msg: "company required"}
	}
	if k.Month < 1 || k.Month > 12 || k.Year < 1 {
		return &ValidationError{Msg: fmt.Sprintf("invalid period %04d-%02d", k.Year, k.Month)}
	}
	return nil
}

// LineItems is the entry payload. Fields are pointers so a draft can be
// saved partially filled while submit can tell "zero" from "never
// entered". Provisions and exchange are signed and may be omitted, which
// counts as an explicit zero once the rest is complete.
type LineItems struct {
	Revenue             *float64 `json:"revenue" validate:"omitempty,gte=0"`
	GrossProfit         *float64 `json:"gross_profit" validate:"omitempty,gte=0"`
	OtherIncome         *float64 `json:"other_income" validate:"omitempty,gte=0"`
	PersonalExpense     *float64 `json:"personal_expense" validate:"omitempty,gte=0"`
	AdminExpense        *float64 `json:"admin_expense" validate:"omitempty,gte=0"`
	SellingExpense      *float64 `json:"selling_expense" validate:"omitempty,gte=0"`
	FinanceExpense      *float64 `json:"finance_expense" validate:"omitempty,gte=0"`
	Depreciation        *float64 `json:"depreciation" validate:"omitempty,gte=0"`
	Provisions          *float64 `json:"provisions"`
	ExchangeGainLoss    *float64 `json:"exchange_gain_loss"`
	NonOperatingExpense *float64 `json:"non_operating_expense" validate:"omitempty,gte=0"`
	NonOperatingIncome  *float64 `json:"non_operating_income" validate:"omitempty,gte=0"`
	FxRate              *float64 `json:"fx_rate" validate:"omitempty,gt=0"`
}

// Missing lists the required fields without a value yet. Signed fields
// are exempt: absent means zero for them.
func (li LineItems) Missing() []string {
	var missing []string
	required := []struct {
		name  string
		value *float64
	}{
		{"revenue", li.Revenue},
		{"gross_profit", li.GrossProfit},
		{"other_income", li.OtherIncome},
		{"personal_expense", li.PersonalExpense},
		{"admin_expense", li.AdminExpense},
		{"selling_expense", li.SellingExpense},
		{"finance_expense", li.FinanceExpense},
		{"depreciation", li.Depreciation},
		{"non_operating_expense", li.NonOperatingExpense},
		{"non_operating_income", li.NonOperatingIncome},
	}
	for _, f := range required {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ToSet flattens into the computation shape, absent fields as zero.
func (li LineItems) ToSet(key Key, scenario metrics.Scenario) metrics.LineItemSet {
	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	set := metrics.LineItemSet{
		CompanyID:           key.CompanyID,
		Year:                key.Year,
		Month:               key.Month,
		Scenario:            scenario,
		Revenue:             deref(li.Revenue),
		GrossProfit:         deref(li.GrossProfit),
		OtherIncome:         deref(li.OtherIncome),
		PersonalExpense:     deref(li.PersonalExpense),
		AdminExpense:        deref(li.AdminExpense),
		SellingExpense:      deref(li.SellingExpense),
		FinanceExpense:      deref(li.FinanceExpense),
		Depreciation:        deref(li.Depreciation),
		Provisions:          deref(li.Provisions),
		ExchangeGainLoss:    deref(li.ExchangeGainLoss),
		NonOperatingExpense: deref(li.NonOperatingExpense),
		NonOperatingIncome:  deref(li.NonOperatingIncome),
		FxRate:              deref(li.FxRate),
	}
	return set
}

// Report is one company-period submission. Version backs optimistic
// concurrency in the store; lifecycle transitions additionally serialize
// in-process per key.
type Report struct {
	ID              uuid.UUID  `json:"id"`
	CompanyID       int64      `json:"company_id"`
	Year            int        `json:"year"`
	Month           int        `json:"month"`
	Status          Status     `json:"status"`
	LineItems       *LineItems `json:"line_items,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	SubmitterID     *int64     `json:"submitter_id,omitempty"`
	SubmitterName   *string    `json:"submitter_name,omitempty"`
	ReviewerID      *int64     `json:"reviewer_id,omitempty"`
	ReviewerName    *string    `json:"reviewer_name,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Key returns the record identifier triple.
func (r Report) Key() Key {
	return Key{CompanyID: r.CompanyID, Year: r.Year, Month: r.Month}
}

// Editable reports whether line items may still change.
func (r Report) Editable() bool {
	return r.Status == StatusDraft
}

// ValidationError is recoverable by the submitting user: a missing field,
// a malformed value, an empty rejection reason.
type ValidationError struct {
	Msg    string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("report: %s: %s", e.Msg, strings.Join(e.Fields, ", "))
	}
	return "report: " + e.Msg
}

// PeriodClosedError carries the cutoff so the UI can show the exact date.
type PeriodClosedError struct {
	Reason   string
	ClosesAt time.Time
}

func (e *PeriodClosedError) Error() string {
	return "report: " + e.Reason
}

var (
	// ErrInvalidTransition indicates the action is not legal in the
	// current status; the caller should refresh, never retry blindly.
	ErrInvalidTransition = errors.New("report: action not allowed in current status")
	// ErrNotFound occurs when no report exists for the key.
	ErrNotFound = errors.New("report: not found")
)
