package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/finport/finport/internal/masterdata"
	"github.com/finport/finport/internal/observability"
	"github.com/finport/finport/internal/report"
	"github.com/finport/finport/internal/rollup"
	"github.com/finport/finport/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	ReportHandler     *report.Handler
	RollupHandler     *rollup.Handler
	MasterdataHandler *masterdata.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with finport defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(api)
		}
		if params.RollupHandler != nil {
			params.RollupHandler.MountRoutes(api)
		}
		if params.MasterdataHandler != nil {
			params.MasterdataHandler.MountRoutes(api)
		}
		if params.JobsHandler != nil {
			api.Route("/jobs", func(jr chi.Router) {
				params.JobsHandler.MountRoutes(jr)
			})
		}
	})

	return r
}
