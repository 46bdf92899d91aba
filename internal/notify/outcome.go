package notify

import (
	"context"
	"errors"
	"time"
)

// Alert is the lead summary sent to operators.
type Alert struct {
	LeadID     string
	Name       string
	Email      string
	Project    string
	Message    string
	ReceivedAt time.Time
}

// Status is the result of one delivery attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened on a single channel.
type Outcome struct {
	Channel string
	Status  Status
	Err     error
}

func sent(channel string) Outcome {
	return Outcome{Channel: channel, Status: StatusSent}
}

func skipped(channel string, reason error) Outcome {
	return Outcome{Channel: channel, Status: StatusSkipped, Err: reason}
}

func failed(channel string, err error) Outcome {
	return Outcome{Channel: channel, Status: StatusFailed, Err: err}
}

// Result aggregates outcomes across channels.
type Result struct {
	Outcomes []Outcome
}

// Status collapses the outcomes: sent if any channel delivered, failed if
// any channel failed and none delivered, skipped otherwise.
func (r Result) Status() Status {
	anyFailed := false
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSent:
			return StatusSent
		case StatusFailed:
			anyFailed = true
		}
	}
	if anyFailed {
		return StatusFailed
	}
	return StatusSkipped
}

// Delivered reports whether at least one channel delivered the alert.
func (r Result) Delivered() bool {
	return r.Status() == StatusSent
}

// Err joins every channel failure, or nil.
func (r Result) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed && o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Notifier delivers lead alerts. Implementations never return errors;
// failures are reported through the Result.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) Result
}

// Channel is one delivery route, e.g. a Slack webhook or operator email.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert Alert) Outcome
}

var errNotConfigured = errors.New("notify: channel not configured")
