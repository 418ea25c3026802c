package report

import (
	"time"

	"github.com/finport/finport/internal/shared"
)

// Transition is the pure core of the state machine: it takes the report
// by value and returns the mutated copy plus the audit entry describing
// the step. On error the input is returned untouched, which keeps failed
// actions side-effect free by construction. Callers own persistence,
// locking and the period gate.
func Transition(r Report, action Action, payload any, actor shared.Actor, now time.Time) (Report, shared.AuditEntry, error) {
	from := r.Status
	var note string

	switch action {
	case ActionSave:
		items, ok := payload.(*LineItems)
		if !ok || items == nil {
			return r, shared.AuditEntry{}, &ValidationError{Msg: "line items required"}
		}
		if r.Status != StatusDraft {
			return r, shared.AuditEntry{}, ErrInvalidTransition
		}
		r.LineItems = items

	case ActionSubmit:
		if r.Status != StatusDraft {
			return r, shared.AuditEntry{}, ErrInvalidTransition
		}
		if r.LineItems == nil {
			return r, shared.AuditEntry{}, &ValidationError{Msg: "no line items entered"}
		}
		if missing := r.LineItems.Missing(); len(missing) > 0 {
			return r, shared.AuditEntry{}, &ValidationError{Msg: "incomplete submission", Fields: missing}
		}
		r.Status = StatusSubmitted
		r.SubmittedAt = &now
		r.SubmitterID = &actor.ID
		r.SubmitterName = &actor.Name
		// A successful re-submission clears the reason from the last
		// rejection cycle.
		r.RejectionReason = nil

	case ActionApprove:
		if r.Status != StatusSubmitted {
			return r, shared.AuditEntry{}, ErrInvalidTransition
		}
		comment, _ := payload.(string)
		r.Status = StatusApproved
		r.ReviewedAt = &now
		r.ReviewerID = &actor.ID
		r.ReviewerName = &actor.Name
		note = comment

	case ActionReject:
		if r.Status != StatusSubmitted {
			return r, shared.AuditEntry{}, ErrInvalidTransition
		}
		reason, _ := payload.(string)
		if reason == "" {
			return r, shared.AuditEntry{}, &ValidationError{Msg: "rejection reason required"}
		}
		r.Status = StatusRejected
		r.ReviewedAt = &now
		r.ReviewerID = &actor.ID
		r.ReviewerName = &actor.Name
		r.RejectionReason = &reason
		note = reason

	case ActionResume:
		if r.Status != StatusRejected {
			return r, shared.AuditEntry{}, ErrInvalidTransition
		}
		// Back to an editable draft; line items stay as pre-fill and the
		// rejection reason remains visible until the next submit.
		r.Status = StatusDraft

	default:
		return r, shared.AuditEntry{}, &ValidationError{Msg: "unknown action " + string(action)}
	}

	r.UpdatedAt = now
	entry := shared.AuditEntry{
		ReportID:   r.ID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		FromStatus: string(from),
		ToStatus:   string(r.Status),
		Note:       note,
		At:         now,
	}
	return r, entry, nil
}
