package masterdata

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finport/finport/internal/platform/httpx"
	"github.com/finport/finport/internal/shared"
)

// Handler exposes the company and cluster masterdata.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers masterdata endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.ListCompanies)
		r.Post("/", h.CreateCompany)
		r.Get("/{id}", h.GetCompany)
		r.Put("/{id}", h.UpdateCompany)
	})
	r.Route("/clusters", func(r chi.Router) {
		r.Get("/", h.ListClusters)
		r.Get("/{id}", h.GetCluster)
	})
	r.Get("/tree", h.Tree)
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.ClusterID, _ = strconv.ParseInt(q.Get("cluster_id"), 10, 64)

	companies, pagination, err := h.service.ListCompanies(r.Context(), filters)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"items":      companies,
		"pagination": pagination,
	})
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid company id")
		return
	}
	c, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var c Company
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed company payload")
		return
	}
	created, err := h.service.CreateCompany(r.Context(), c)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid company id")
		return
	}
	var c Company
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed company payload")
		return
	}
	c.ID = id
	if err := h.service.UpdateCompany(r.Context(), c); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.service.ListClusters(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clusters)
}

func (h *Handler) GetCluster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid cluster id")
		return
	}
	cl, err := h.service.GetCluster(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cl)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case strings.HasPrefix(err.Error(), "masterdata:"):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.TrimSpace(strings.TrimPrefix(err.Error(), "masterdata:")))
	default:
		h.logger.Error("masterdata handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
