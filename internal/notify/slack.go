package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

var slackTracer = otel.Tracer("stelliform.internal.notify.slack")

// SlackHeader is the header line of every lead alert.
const SlackHeader = "New Lead from Stelliform Digital"

// SlackConfig configures the incoming-webhook channel.
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// SlackNotifier posts Block Kit messages to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *logging.Logger
	now        func() time.Time
	sanitizer  *bluemonday.Policy
}

// NewSlackNotifier builds the Slack channel. An empty webhook URL yields a
// soft-disabled notifier that skips every alert.
func NewSlackNotifier(cfg SlackConfig, logger *logging.Logger) *SlackNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SlackNotifier{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		httpClient: client,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// Name implements Channel.
func (s *SlackNotifier) Name() string { return "slack" }

// Enabled reports whether a webhook URL is configured.
func (s *SlackNotifier) Enabled() bool { return s.webhookURL != "" }

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

// Send implements Channel.
func (s *SlackNotifier) Send(ctx context.Context, alert Alert) Outcome {
	if !s.Enabled() {
		s.logger.Warn("notify: SLACK_WEBHOOK_URL not configured, skipping notification", "lead_id", alert.LeadID)
		return skipped(s.Name(), errNotConfigured)
	}

	ctx, span := slackTracer.Start(ctx, "notify.slack.send")
	defer span.End()
	span.SetAttributes(attribute.String("stelliform.lead_id", alert.LeadID))

	body, err := json.Marshal(s.buildMessage(alert))
	if err != nil {
		return failed(s.Name(), fmt.Errorf("notify: marshal slack message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return failed(s.Name(), fmt.Errorf("notify: build slack request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("notify: slack webhook request failed", "error", err, "lead_id", alert.LeadID)
		return failed(s.Name(), fmt.Errorf("notify: slack request: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("notify: slack returned error status", "status", resp.StatusCode, "lead_id", alert.LeadID)
		return failed(s.Name(), fmt.Errorf("notify: slack responded with status %d", resp.StatusCode))
	}

	s.logger.Info("notify: slack lead notification sent", "lead_id", alert.LeadID)
	return sent(s.Name())
}

func (s *SlackNotifier) buildMessage(alert Alert) slackMessage {
	receivedAt := alert.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: SlackHeader, Emoji: true},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Name:*\n" + s.escape(alert.Name)},
				{Type: "mrkdwn", Text: "*Email:*\n" + s.escape(alert.Email)},
			},
		},
	}

	if alert.Project != "" {
		blocks = append(blocks, slackBlock{
			Type:   "section",
			Fields: []slackText{{Type: "mrkdwn", Text: "*Project/Budget:*\n" + s.escape(alert.Project)}},
		})
	}

	if alert.Message != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Message:*\n" + s.escape(alert.Message)},
		})
	}

	blocks = append(blocks, slackBlock{
		Type: "context",
		Elements: []slackText{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("Lead ID: %s | Received: %s", alert.LeadID, receivedAt.UTC().Format(time.RFC3339)),
		}},
	})

	return slackMessage{Blocks: blocks}
}

// quotes come back out of the sanitizer as numeric entities that Slack
// renders literally.
var entityFixer = strings.NewReplacer("&#34;", `"`, "&#39;", "'")

// escape strips markup from user input and escapes &, < and > as Slack
// mrkdwn requires.
func (s *SlackNotifier) escape(text string) string {
	return entityFixer.Replace(s.sanitizer.Sanitize(text))
}
