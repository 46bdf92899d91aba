package notify

import (
	"context"

	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// Service fans a lead alert out to every configured channel.
type Service struct {
	channels []Channel
	logger   *logging.Logger
}

// NewService creates a notification service. Nil channels are dropped.
func NewService(logger *logging.Logger, channels ...Channel) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{logger: logger}
	for _, ch := range channels {
		if ch != nil {
			s.channels = append(s.channels, ch)
		}
	}
	return s
}

// Notify sends alert through each channel in order and never fails; the
// returned Result says what happened.
func (s *Service) Notify(ctx context.Context, alert Alert) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notify: channel panicked", "panic", r, "lead_id", alert.LeadID)
			result.Outcomes = append(result.Outcomes, Outcome{Channel: "unknown", Status: StatusFailed})
		}
	}()

	if len(s.channels) == 0 {
		s.logger.Warn("notify: no channels configured, skipping notification", "lead_id", alert.LeadID)
		return Result{}
	}

	for _, ch := range s.channels {
		outcome := ch.Send(ctx, alert)
		if outcome.Channel == "" {
			outcome.Channel = ch.Name()
		}
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Status {
		case StatusFailed:
			s.logger.Warn("notify: channel failed", "channel", outcome.Channel, "error", outcome.Err, "lead_id", alert.LeadID)
		case StatusSkipped:
			s.logger.Debug("notify: channel skipped", "channel", outcome.Channel, "lead_id", alert.LeadID)
		}
	}
	return result
}

var _ Notifier = (*Service)(nil)
