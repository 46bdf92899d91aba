package intake

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/internal/notify"
	"github.com/stelliformdigital/stelliform-web/internal/observability/metrics"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

var intakeTracer = otel.Tracer("stelliform.internal.intake")

// Pipeline stages, logged with every line of a submission.
const (
	StageReceived  = "received"
	StagePersisted = "persisted"
	StageNotified  = "notified"
	StageErrored   = "errored"
)

// DefaultNotifyTimeout bounds the alert step when no timeout is configured.
const DefaultNotifyTimeout = 10 * time.Second

// Service runs the submission pipeline: validate, persist, alert, stamp.
type Service struct {
	store    leads.Repository
	notifier notify.Notifier
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
	now      func() time.Time

	notifyTimeout time.Duration
}

// NewService wires the pipeline. notifier and m may be nil.
func NewService(store leads.Repository, notifier notify.Notifier, m *metrics.LeadMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },

		notifyTimeout: DefaultNotifyTimeout,
	}
}

// WithNotifyTimeout sets the deadline for every alert channel together.
// Non-positive values keep the default.
func (s *Service) WithNotifyTimeout(d time.Duration) *Service {
	if d > 0 {
		s.notifyTimeout = d
	}
	return s
}

// Submit persists a normalized submission and alerts operators. It returns a
// *leads.ValidationError for client mistakes; any other error means the lead
// could not be stored or stamped. Alert failures never surface here.
func (s *Service) Submit(ctx context.Context, sub Submission) (*leads.Lead, error) {
	form := string(sub.Form)
	start := time.Now()
	defer func() {
		s.metrics.ObserveSubmitLatency(sub.Form.label(), time.Since(start).Seconds())
	}()

	ctx, span := intakeTracer.Start(ctx, "intake.submit")
	defer span.End()
	span.SetAttributes(attribute.String("stelliform.form", form))

	s.logger.WithStage(form, StageReceived).Info("lead submission received")

	if err := sub.Validate(); err != nil {
		s.logger.WithStage(form, StageReceived).Info("lead submission rejected", "reason", err.Error())
		s.metrics.ObserveSubmission(sub.Form.label(), "invalid")
		span.SetStatus(codes.Error, "validation")
		return nil, err
	}

	lead, err := s.store.Create(ctx, &sub.Lead)
	if err != nil {
		return nil, s.fail(span, sub.Form, "create lead", err)
	}
	span.SetAttributes(attribute.String("stelliform.lead_id", lead.ID))
	s.logger.WithStage(form, StagePersisted).Info("lead persisted", "lead_id", lead.ID, "source", lead.Source, "medium", lead.Medium)

	// The lead is stored; a client disconnect must not cancel the alert or
	// the stamp that records it. sendAlert applies its own deadline.
	ctx = context.WithoutCancel(ctx)

	result := s.sendAlert(ctx, lead)
	for _, outcome := range result.Outcomes {
		s.metrics.ObserveNotification(outcome.Channel, string(outcome.Status))
	}
	notifyStatus := string(result.Status())
	s.logger.WithStage(form, StageNotified).Info("lead notification attempted", "lead_id", lead.ID, "notify_status", notifyStatus)

	notifiedAt := s.now()
	if !notifiedAt.After(lead.CreatedAt) {
		notifiedAt = lead.CreatedAt.Add(time.Microsecond)
	}
	updated, err := s.store.Update(ctx, lead.ID, leads.LeadPatch{
		NotifiedAt:   &notifiedAt,
		NotifyStatus: &notifyStatus,
	})
	if err != nil {
		return nil, s.fail(span, sub.Form, "stamp notified_at", fmt.Errorf("lead %s: %w", lead.ID, err))
	}

	s.metrics.ObserveSubmission(sub.Form.label(), "ok")
	return updated, nil
}

func (s *Service) sendAlert(ctx context.Context, lead *leads.Lead) notify.Result {
	if s.notifier == nil {
		return notify.Result{}
	}
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	return s.notifier.Notify(ctx, notify.Alert{
		LeadID:     lead.ID,
		Name:       lead.Name,
		Email:      lead.Email,
		Project:    lead.Project,
		Message:    lead.Message,
		ReceivedAt: lead.CreatedAt,
	})
}

func (s *Service) fail(span trace.Span, form Form, step string, err error) error {
	wrapped := fmt.Errorf("intake: %s: %w", step, err)
	s.logger.WithStage(string(form), StageErrored).Error("lead submission failed", "step", step, "error", err, "at", s.now().Format(time.RFC3339Nano))
	s.metrics.ObserveSubmission(form.label(), "error")
	span.RecordError(wrapped)
	span.SetStatus(codes.Error, step)
	return wrapped
}
