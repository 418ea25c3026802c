package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finport/finport/internal/report"
)

// NotifyTransitionJob renders and dispatches lifecycle notifications.
// Delivery goes to the group's mail relay; here the rendered message is
// logged, the relay hookup lives behind the dispatch function so tests
// can capture output.
type NotifyTransitionJob struct {
	logger   *slog.Logger
	printer  *message.Printer
	dispatch func(ctx context.Context, subject, body string) error
}

// NewNotifyTransitionJob constructs the job. A nil dispatch falls back
// to logging the rendered message.
func NewNotifyTransitionJob(logger *slog.Logger, dispatch func(ctx context.Context, subject, body string) error) *NotifyTransitionJob {
	return &NotifyTransitionJob{
		logger:   logger,
		printer:  message.NewPrinter(language.English),
		dispatch: dispatch,
	}
}

// Handle processes TaskTypeNotifyTransition tasks.
func (j *NotifyTransitionJob) Handle(ctx context.Context, t *asynq.Task) error {
	var event report.TransitionEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return asynq.SkipRetry
	}

	subject, body := j.render(event)
	if j.dispatch != nil {
		return j.dispatch(ctx, subject, body)
	}
	j.logger.Info("notify transition",
		slog.String("subject", subject),
		slog.String("body", body),
		slog.Int64("company_id", event.CompanyID),
	)
	return nil
}

func (j *NotifyTransitionJob) render(event report.TransitionEvent) (subject, body string) {
	period := fmt.Sprintf("%04d-%02d", event.Year, event.Month)
	switch event.Action {
	case report.ActionSubmit:
		subject = fmt.Sprintf("Report %s for company %d submitted", period, event.CompanyID)
		body = j.printer.Sprintf("%s submitted the %s report. PBT: %.2f.",
			event.ActorName, period, event.PBT)
	case report.ActionApprove:
		subject = fmt.Sprintf("Report %s for company %d approved", period, event.CompanyID)
		body = j.printer.Sprintf("%s approved the %s report. PBT: %.2f.",
			event.ActorName, period, event.PBT)
	case report.ActionReject:
		subject = fmt.Sprintf("Report %s for company %d rejected", period, event.CompanyID)
		body = j.printer.Sprintf("%s rejected the %s report: %s",
			event.ActorName, period, event.Note)
	default:
		subject = fmt.Sprintf("Report %s for company %d: %s", period, event.CompanyID, event.Action)
		body = j.printer.Sprintf("%s performed %s on the %s report.",
			event.ActorName, event.Action, period)
	}
	return subject, body
}
