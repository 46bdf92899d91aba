package bootstrap

import (
	"context"
	"fmt"

	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	"github.com/stelliformdigital/stelliform-web/internal/notify"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// Email providers accepted by EMAIL_PROVIDER.
const (
	EmailProviderNone     = "none"
	EmailProviderStub     = "stub"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderResend   = "resend"
)

// BuildNotifier wires the Slack channel and the optional operator email
// channel into one notification service.
func BuildNotifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*notify.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	slack := notify.NewSlackNotifier(notify.SlackConfig{
		WebhookURL: cfg.SlackWebhookURL,
		Timeout:    cfg.NotifyTimeout,
	}, logger)
	if !slack.Enabled() {
		logger.Warn("SLACK_WEBHOOK_URL not set; lead alerts will be skipped")
	}

	channels := []notify.Channel{slack}

	sender, err := BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if sender != nil {
		if len(cfg.AlertEmailRecipients) == 0 {
			logger.Warn("email provider configured without ALERT_EMAIL_RECIPIENTS; email alerts disabled", "provider", cfg.EmailProvider)
		}
		channels = append(channels, notify.NewEmailChannel(sender, cfg.AlertEmailRecipients, logger))
	}

	return notify.NewService(logger, channels...), nil
}

// BuildEmailSender returns the sender selected by EMAIL_PROVIDER, or nil for
// "none".
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case "", EmailProviderNone:
		return nil, nil
	case EmailProviderStub:
		return notify.NewStubEmailSender(logger), nil
	case EmailProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: SENDGRID_API_KEY is required for EMAIL_PROVIDER=sendgrid")
		}
		return sender, nil
	case EmailProviderResend:
		sender := notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: RESEND_API_KEY is required for EMAIL_PROVIDER=resend")
		}
		return sender, nil
	case EmailProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return notify.NewSESSender(NewSESClient(awsCfg, cfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
}
