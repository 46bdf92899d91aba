package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stelliformdigital/stelliform-web/internal/http/middleware"
	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// maxExportRows caps a single spreadsheet export.
const maxExportRows = 10000

var adminValidate = validator.New()

// AdminLeadsHandler serves the operator triage API over the lead store.
type AdminLeadsHandler struct {
	repo   leads.Repository
	logger *logging.Logger
	now    func() time.Time
}

// NewAdminLeadsHandler creates a new admin leads handler.
func NewAdminLeadsHandler(repo leads.Repository, logger *logging.Logger) *AdminLeadsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLeadsHandler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Routes mounts the admin lead endpoints on r.
func (h *AdminLeadsHandler) Routes(r chi.Router) {
	r.Get("/leads", h.ListLeads)
	r.Get("/leads/export.xlsx", h.ExportLeads)
	r.Get("/leads/{id}", h.GetLead)
	r.Patch("/leads/{id}", h.UpdateLead)
}

// LeadsListResponse is a page of leads.
type LeadsListResponse struct {
	Leads  []*leads.Lead `json:"leads"`
	Count  int           `json:"count"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// UpdateLeadRequest is the PATCH body.
type UpdateLeadRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified won lost spam"`
}

// ListLeads handles GET /admin/leads.
func (h *AdminLeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := leads.ListFilter{Limit: 50}

	if v := q.Get("status"); v != "" {
		status, err := leads.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, "offset must be non-negative")
			return
		}
		filter.Offset = offset
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	writeJSON(w, http.StatusOK, LeadsListResponse{
		Leads:  list,
		Count:  len(list),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetLead handles GET /admin/leads/{id}.
func (h *AdminLeadsHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, "get lead", id, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// UpdateLead handles PATCH /admin/leads/{id}.
func (h *AdminLeadsHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateLeadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := adminValidate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	status := leads.Status(req.Status)
	lead, err := h.repo.Update(r.Context(), id, leads.LeadPatch{Status: &status})
	if err != nil {
		h.storeError(w, "update lead", id, err)
		return
	}

	h.logger.Info("lead status updated", "lead_id", id, "status", status, "by", middleware.AdminSubject(r.Context()))
	writeJSON(w, http.StatusOK, lead)
}

// ExportLeads handles GET /admin/leads/export.xlsx.
func (h *AdminLeadsHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	var status leads.Status
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := leads.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		status = parsed
	}

	list, err := leads.ListAll(r.Context(), h.repo, status, maxExportRows)
	if err != nil {
		h.logger.Error("failed to export leads", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export leads")
		return
	}

	filename := fmt.Sprintf("leads-%s.xlsx", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := leads.WriteXLSX(w, list); err != nil {
		h.logger.Error("failed to write lead export", "error", err)
	}
}

func (h *AdminLeadsHandler) storeError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, leads.ErrLeadNotFound):
		writeError(w, http.StatusNotFound, "lead not found")
	case errors.Is(err, leads.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid status")
	default:
		h.logger.Error("admin lead store failure", "op", op, "lead_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return "status is required"
		}
		return fmt.Sprintf("status must be one of: %s", fe.Param())
	}
	return "invalid request"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
