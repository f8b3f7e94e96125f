package email

import (
	"context"
	"fmt"

	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/domain/settings"
)

// Channel is the templated message channel. It sends the rendered template to
// the configured recipient list.
type Channel struct {
	templates TemplateStore
	sender    Sender
}

func NewChannel(templates TemplateStore, sender Sender) *Channel {
	return &Channel{templates: templates, sender: sender}
}

func (c *Channel) Name() string { return notify.ChannelMessage }

func (c *Channel) Enabled(cfg *settings.Configuration) bool { return cfg.EmailEnabled }

func (c *Channel) Send(ctx context.Context, cfg *settings.Configuration, d notify.Delivery) error {
	recipients := cfg.ActiveRecipients()
	if !cfg.HasTemplate() {
		return fmt.Errorf("%w: template reference is blank", notify.ErrChannelMisconfigured)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: recipient list is empty", notify.ErrChannelMisconfigured)
	}

	tpl, err := c.templates.GetTemplate(ctx, cfg.TemplateRef)
	if err != nil {
		return fmt.Errorf("load template %q: %w", cfg.TemplateRef, err)
	}
	data := placeholders(d)
	return c.sender.Send(RenderTemplate(tpl.Subject, data), RenderTemplate(tpl.Body, data), recipients)
}

// SendSummary mails the end-of-run report to the configured recipients.
func (c *Channel) SendSummary(_ context.Context, cfg *settings.Configuration, s notify.Summary) error {
	recipients := cfg.ActiveRecipients()
	if len(recipients) == 0 {
		return fmt.Errorf("%w: recipient list is empty", notify.ErrChannelMisconfigured)
	}
	subject := "Anniversary notifications: run summary"
	body := fmt.Sprintf(
		"Run %s finished.\n\nTracking records created: %d\nRecords processed: %d\nNotifications sent: %d\nErrors: %d\n",
		s.RunID, s.CreatedCount, s.ProcessedCount, s.SentCount, s.ErrorCount)
	return c.sender.Send(subject, body, recipients)
}
