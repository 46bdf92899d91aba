package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// Client-facing failure messages for the generic 500 branch.
const (
	ContactFailureMessage     = "Failed to submit form. Please try again."
	IntakeSmartFailureMessage = "Failed to submit IntakeSmart form. Please try again."

	IntakeSmartInfo = "IntakeSmart endpoint is ready. Submit via POST with JSON (firstName, lastName, phone, optional email/message)."

	// DefaultMaxBodyBytes caps form bodies when no limit is configured.
	DefaultMaxBodyBytes int64 = 64 << 10
)

// HandlerConfig tunes the form endpoints.
type HandlerConfig struct {
	MaxBodyBytes        int64
	IntakeFallbackEmail string
}

// Handler serves the public form endpoints.
type Handler struct {
	service *Service
	cfg     HandlerConfig
	logger  *logging.Logger
}

// NewHandler creates the form handler.
func NewHandler(service *Service, cfg HandlerConfig, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{service: service, cfg: cfg, logger: logger}
}

// SubmitResponse is the JSON reply of both POST endpoints.
type SubmitResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// InfoResponse is the JSON reply of GET /api/intake-smart.
type InfoResponse struct {
	OK      bool     `json:"ok"`
	Info    string   `json:"info"`
	Methods []string `json:"methods"`
}

// PostContact handles POST /api/contact.
func (h *Handler) PostContact(w http.ResponseWriter, r *http.Request) {
	var body ContactSubmission
	if err := h.decode(w, r, &body); err != nil {
		h.internalError(w, FormContact, ContactFailureMessage, err)
		return
	}
	h.submit(w, r, body.Normalize(MetadataFromRequest(r)), ContactFailureMessage)
}

// PostIntakeSmart handles POST /api/intake-smart.
func (h *Handler) PostIntakeSmart(w http.ResponseWriter, r *http.Request) {
	var body IntakeSubmission
	if err := h.decode(w, r, &body); err != nil {
		h.internalError(w, FormIntakeSmart, IntakeSmartFailureMessage, err)
		return
	}
	h.submit(w, r, body.Normalize(MetadataFromRequest(r), h.cfg.IntakeFallbackEmail), IntakeSmartFailureMessage)
}

// GetIntakeSmart handles GET /api/intake-smart. It has no side effects.
func (h *Handler) GetIntakeSmart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		OK:      true,
		Info:    IntakeSmartInfo,
		Methods: []string{http.MethodPost},
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, sub Submission, failureMessage string) {
	lead, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		var verr *leads.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, SubmitResponse{OK: false, Error: verr.Message})
			return
		}
		// Service.Submit already logged the failure with its stage.
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{OK: false, Error: failureMessage})
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{OK: true, ID: lead.ID})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("intake: decode request body: %w", err)
	}
	return nil
}

func (h *Handler) internalError(w http.ResponseWriter, form Form, message string, err error) {
	h.logger.WithStage(string(form), StageErrored).Error("lead submission failed", "error", err, "at", time.Now().UTC().Format(time.RFC3339Nano))
	h.service.metrics.ObserveSubmission(form.label(), "error")
	writeJSON(w, http.StatusInternalServerError, SubmitResponse{OK: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
