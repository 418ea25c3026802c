package report

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/finport/finport/internal/platform/httpx"
	"github.com/finport/finport/internal/shared"
)

// Handler exposes the report lifecycle as a JSON API. Who may approve or
// reject is enforced here, at the call site: the core state machine only
// records who did what.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports/{companyID}/{year}/{month}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/comparison", h.Comparison)
		r.Get("/budget", h.Budget)
		r.Get("/audit", h.AuditTrail)
		r.Put("/lines", h.SaveDraft)
		r.Post("/submit", h.Submit)
		r.Post("/approve", h.Approve)
		r.Post("/reject", h.Reject)
		r.Post("/resume", h.Resume)
	})
	r.Get("/periods/{year}/{month}/gate", h.PeriodGate)
}

func keyFromRequest(r *http.Request) (Key, error) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		return Key{}, &ValidationError{Msg: "invalid company id"}
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return Key{}, &ValidationError{Msg: "invalid year"}
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return Key{}, &ValidationError{Msg: "invalid month"}
	}
	key := Key{CompanyID: companyID, Year: year, Month: month}
	return key, key.Validate()
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	rep, err := h.service.Get(r.Context(), key)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) Comparison(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	cmp, err := h.service.Compare(r.Context(), key)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) Budget(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	budget, err := h.service.Budget(r.Context(), key)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budget)
}

func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	trail, err := h.service.AuditTrail(r.Context(), key)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trail)
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	var items LineItems
	if err := httpx.DecodeJSON(r, &items); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed line items payload")
		return
	}
	rep, err := h.service.SaveDraft(r.Context(), key, &items, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	rep, err := h.service.Submit(r.Context(), key, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

type decisionPayload struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if actor.Role != shared.RoleDirector {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only directors may approve reports")
		return
	}
	var payload decisionPayload
	_ = httpx.DecodeJSON(r, &payload)
	rep, err := h.service.Approve(r.Context(), key, payload.Comment, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if actor.Role != shared.RoleDirector {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "only directors may reject reports")
		return
	}
	var payload decisionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed decision payload")
		return
	}
	rep, err := h.service.Reject(r.Context(), key, payload.Reason, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	rep, err := h.service.Resume(r.Context(), key, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) PeriodGate(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid month")
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.CheckPeriod(year, month))
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	var pErr *PeriodClosedError
	switch {
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Error())
	case errors.As(err, &pErr):
		httpx.Problem(w, http.StatusLocked, "Period Closed", pErr.Reason)
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", "state changed, please refresh")
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "report not found")
	case errors.Is(err, shared.ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	default:
		h.logger.Error("report handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
