package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/finport/finport/internal/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyTransition dispatches a lifecycle notification.
	TaskTypeNotifyTransition = "report:notify"
	// TaskTypeRollupWarmup pre-builds dashboard snapshots.
	TaskTypeRollupWarmup = "rollup:warmup"
)

// NewNotifyTransitionTask constructs an Asynq task from the event the
// lifecycle service emitted.
func NewNotifyTransitionTask(event report.TransitionEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyTransition, data), nil
}

// RollupWarmupPayload selects the windows to pre-build. A zero year and
// month means "the most recently closed month at run time".
type RollupWarmupPayload struct {
	Year  int  `json:"year"`
	Month int  `json:"month"`
	YTD   bool `json:"ytd"`
}

// NewRollupWarmupTask constructs a cache warmup task.
func NewRollupWarmupTask(payload RollupWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRollupWarmup, data), nil
}
