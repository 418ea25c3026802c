package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finport/finport/internal/report"
)

func TestNotifyTransitionRendersGroupedAmounts(t *testing.T) {
	var gotSubject, gotBody string
	job := NewNotifyTransitionJob(slog.New(slog.DiscardHandler), func(_ context.Context, subject, body string) error {
		gotSubject, gotBody = subject, body
		return nil
	})

	event := report.TransitionEvent{
		CompanyID:  7,
		Year:       2025,
		Month:      1,
		Action:     report.ActionSubmit,
		Status:     report.StatusSubmitted,
		ActorName:  "Nadia",
		PBT:        1_125_000,
		OccurredAt: time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC),
	}
	task, err := NewNotifyTransitionTask(event)
	if err != nil {
		t.Fatalf("NewNotifyTransitionTask() error = %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(gotSubject, "2025-01") || !strings.Contains(gotSubject, "submitted") {
		t.Fatalf("unexpected subject %q", gotSubject)
	}
	if !strings.Contains(gotBody, "1,125,000.00") {
		t.Fatalf("expected grouped PBT in body, got %q", gotBody)
	}
}

func TestNotifyTransitionRejectCarriesReason(t *testing.T) {
	var gotBody string
	job := NewNotifyTransitionJob(slog.New(slog.DiscardHandler), func(_ context.Context, _, body string) error {
		gotBody = body
		return nil
	})

	task, err := NewNotifyTransitionTask(report.TransitionEvent{
		CompanyID: 7, Year: 2025, Month: 1,
		Action: report.ActionReject, ActorName: "Karim",
		Note: "depreciation schedule stale",
	})
	if err != nil {
		t.Fatalf("NewNotifyTransitionTask() error = %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(gotBody, "depreciation schedule stale") {
		t.Fatalf("expected reason in body, got %q", gotBody)
	}
}

func TestNotifyTransitionSkipsMalformedPayload(t *testing.T) {
	job := NewNotifyTransitionJob(slog.New(slog.DiscardHandler), nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeNotifyTransition, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry got %v", err)
	}
}
