package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finport/finport/internal/rollup"
)

// RollupWarmupJob pre-builds dashboard snapshots so the morning's first
// viewer hits a warm cache.
type RollupWarmupJob struct {
	service *rollup.Service
	logger  *slog.Logger
	now     func() time.Time
}

// NewRollupWarmupJob constructs the job.
func NewRollupWarmupJob(service *rollup.Service, logger *slog.Logger) *RollupWarmupJob {
	return &RollupWarmupJob{service: service, logger: logger, now: time.Now}
}

// Handle processes TaskTypeRollupWarmup tasks.
func (j *RollupWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RollupWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	year, month := payload.Year, payload.Month
	if year == 0 || month == 0 {
		// The most recently closed month: entry and review happen in the
		// month after the figures.
		prev := j.now().UTC().AddDate(0, -1, 0)
		year, month = prev.Year(), int(prev.Month())
	}

	windows := []rollup.Options{
		{Mode: rollup.ModeMonth, Year: year, Month: month},
	}
	if payload.YTD {
		windows = append(windows, rollup.Options{Mode: rollup.ModeYTD, Year: year, Month: month})
	}

	for _, opts := range windows {
		if err := j.service.Warm(ctx, opts); err != nil {
			j.logger.Error("rollup warmup",
				slog.String("mode", string(opts.Mode)),
				slog.Int("year", opts.Year),
				slog.Int("month", opts.Month),
				slog.Any("error", err))
			return err
		}
	}
	j.logger.Info("rollup warmup done", slog.Int("year", year), slog.Int("month", month))
	return nil
}
