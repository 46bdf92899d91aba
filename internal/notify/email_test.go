package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{client: nil}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})
	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

func TestNewResendSender_NilWithoutAPIKey(t *testing.T) {
	if sender := NewResendSender(ResendConfig{FromEmail: "test@example.com"}, nil); sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
	sender := NewResendSender(ResendConfig{APIKey: "re_test", FromEmail: "test@example.com"}, nil)
	if sender == nil || sender.fromName != DefaultFromName {
		t.Fatalf("expected sender with default from name, got %+v", sender)
	}
}

func TestResendSender_RequiresBody(t *testing.T) {
	sender := NewResendSender(ResendConfig{APIKey: "re_test", FromEmail: "test@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "x"}); err == nil {
		t.Fatal("expected error for empty body")
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "leads@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "ops@example.com",
		Subject: "New lead",
		Body:    "text",
		HTML:    "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got := aws.ToString(fake.input.FromEmailAddress); got != "Stelliform Digital <leads@example.com>" {
		t.Fatalf("unexpected from address %q", got)
	}
	if fake.input.Destination.ToAddresses[0] != "ops@example.com" {
		t.Fatalf("unexpected destination %v", fake.input.Destination.ToAddresses)
	}
	if aws.ToString(fake.input.Content.Simple.Body.Html.Data) != "<p>html</p>" {
		t.Fatal("expected html body")
	}

	fake.err = errors.New("throttled")
	if err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com", Body: "x"}); err == nil {
		t.Fatal("expected SES error to propagate")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Fatal("expected nil sender without client")
	}
}

type recordingSender struct {
	sent   []EmailMessage
	failTo string
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	if msg.To == r.failTo {
		return errors.New("mailbox unavailable")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestEmailChannel_SendsToEveryRecipient(t *testing.T) {
	sender := &recordingSender{}
	ch := NewEmailChannel(sender, []string{"ops@example.com", "sales@example.com"}, nil)

	outcome := ch.Send(context.Background(), testAlert())
	if outcome.Status != StatusSent {
		t.Fatalf("expected sent, got %s (%v)", outcome.Status, outcome.Err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Subject != "New lead: Jane Doe" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Lead ID: lead-123") || !strings.Contains(msg.Body, "Project/Budget: SEO audit") {
		t.Fatalf("unexpected body %q", msg.Body)
	}
	if !strings.Contains(msg.HTML, "mailto:jane@example.com") {
		t.Fatalf("unexpected html %q", msg.HTML)
	}
}

func TestEmailChannel_PartialFailureStillSent(t *testing.T) {
	sender := &recordingSender{failTo: "ops@example.com"}
	ch := NewEmailChannel(sender, []string{"ops@example.com", "sales@example.com"}, nil)

	if outcome := ch.Send(context.Background(), testAlert()); outcome.Status != StatusSent {
		t.Fatalf("expected sent when one recipient succeeds, got %s", outcome.Status)
	}

	sender.failTo = "sales@example.com"
	ch = NewEmailChannel(sender, []string{"sales@example.com"}, nil)
	if outcome := ch.Send(context.Background(), testAlert()); outcome.Status != StatusFailed {
		t.Fatalf("expected failed when every recipient fails, got %s", outcome.Status)
	}
}

func TestEmailChannel_SkipsWhenUnconfigured(t *testing.T) {
	if outcome := NewEmailChannel(nil, []string{"ops@example.com"}, nil).Send(context.Background(), testAlert()); outcome.Status != StatusSkipped {
		t.Fatalf("expected skipped without sender, got %s", outcome.Status)
	}
	if outcome := NewEmailChannel(&recordingSender{}, nil, nil).Send(context.Background(), testAlert()); outcome.Status != StatusSkipped {
		t.Fatalf("expected skipped without recipients, got %s", outcome.Status)
	}
}
