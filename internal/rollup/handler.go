package rollup

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finport/finport/internal/platform/httpx"
)

// Handler serves the dashboard and its CSV export.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers rollup endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/rollup/dashboard", h.Dashboard)
	r.Get("/rollup/export.csv", h.ExportCSV)
}

func optionsFromRequest(r *http.Request) (Options, error) {
	q := r.URL.Query()
	opts := Options{Mode: ModeMonth}
	if mode := q.Get("mode"); mode != "" {
		opts.Mode = Mode(strings.ToLower(mode))
	}
	var err error
	if opts.Year, err = strconv.Atoi(q.Get("year")); err != nil {
		return Options{}, err
	}
	if opts.Month, err = strconv.Atoi(q.Get("month")); err != nil {
		return Options{}, err
	}
	opts.IncludeSubmitted = q.Get("include_submitted") == "true"
	if err := validateOptions(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid rollup window")
		return
	}
	snap, err := h.service.Dashboard(r.Context(), opts)
	if err != nil {
		h.logger.Error("rollup dashboard", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid rollup window")
		return
	}
	snap, err := h.service.Dashboard(r.Context(), opts)
	if err != nil {
		h.logger.Error("rollup export", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="rollup-`+strconv.Itoa(opts.Year)+`-`+strconv.Itoa(opts.Month)+`.csv"`)
	if err := WriteSnapshotCSV(w, snap); err != nil {
		h.logger.Error("rollup export write", slog.Any("error", err))
	}
}
