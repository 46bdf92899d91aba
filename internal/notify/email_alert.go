package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

var alertHTML = template.Must(template.New("lead_alert").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>{{.Header}}</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px;"><strong>Name:</strong></td><td style="padding: 8px;">{{.Alert.Name}}</td></tr>
  <tr><td style="padding: 8px;"><strong>Email:</strong></td><td style="padding: 8px;"><a href="mailto:{{.Alert.Email}}">{{.Alert.Email}}</a></td></tr>
  {{if .Alert.Project}}<tr><td style="padding: 8px;"><strong>Project/Budget:</strong></td><td style="padding: 8px;">{{.Alert.Project}}</td></tr>{{end}}
</table>
{{if .Alert.Message}}<pre style="white-space: pre-wrap; background: #f3f4f6; padding: 12px; border-radius: 8px;">{{.Alert.Message}}</pre>{{end}}
<p style="color: #6b7280; font-size: 12px;">Lead ID: {{.Alert.LeadID}} | Received: {{.Received}}</p>
</div>`))

// EmailChannel mails lead alerts to a fixed list of operators.
type EmailChannel struct {
	sender     EmailSender
	recipients []string
	logger     *logging.Logger
	now        func() time.Time
}

// NewEmailChannel builds the operator email channel. A nil sender or an empty
// recipient list leaves the channel soft-disabled.
func NewEmailChannel(sender EmailSender, recipients []string, logger *logging.Logger) *EmailChannel {
	if logger == nil {
		logger = logging.Default()
	}
	return &EmailChannel{
		sender:     sender,
		recipients: recipients,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Name implements Channel.
func (c *EmailChannel) Name() string { return "email" }

// Send implements Channel.
func (c *EmailChannel) Send(ctx context.Context, alert Alert) Outcome {
	if c.sender == nil || len(c.recipients) == 0 {
		c.logger.Debug("notify: email channel not configured, skipping", "lead_id", alert.LeadID)
		return skipped(c.Name(), errNotConfigured)
	}

	msg, err := c.render(alert)
	if err != nil {
		return failed(c.Name(), err)
	}

	var errs []error
	for _, recipient := range c.recipients {
		msg.To = recipient
		if err := c.sender.Send(ctx, msg); err != nil {
			c.logger.Warn("notify: failed to send lead email", "error", err, "to", recipient, "lead_id", alert.LeadID)
			errs = append(errs, err)
			continue
		}
		c.logger.Info("notify: lead email sent", "to", recipient, "lead_id", alert.LeadID)
	}

	if len(errs) == len(c.recipients) {
		return failed(c.Name(), errors.Join(errs...))
	}
	return sent(c.Name())
}

func (c *EmailChannel) render(alert Alert) (EmailMessage, error) {
	received := alert.ReceivedAt
	if received.IsZero() {
		received = c.now()
	}
	receivedStr := received.UTC().Format(time.RFC3339)

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n\nName: %s\nEmail: %s\n", SlackHeader, alert.Name, alert.Email)
	if alert.Project != "" {
		fmt.Fprintf(&text, "Project/Budget: %s\n", alert.Project)
	}
	if alert.Message != "" {
		fmt.Fprintf(&text, "\n%s\n", alert.Message)
	}
	fmt.Fprintf(&text, "\nLead ID: %s | Received: %s\n", alert.LeadID, receivedStr)

	var html bytes.Buffer
	if err := alertHTML.Execute(&html, map[string]any{
		"Header":   SlackHeader,
		"Alert":    alert,
		"Received": receivedStr,
	}); err != nil {
		return EmailMessage{}, fmt.Errorf("notify: render lead email: %w", err)
	}

	return EmailMessage{
		Subject: "New lead: " + alert.Name,
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}
