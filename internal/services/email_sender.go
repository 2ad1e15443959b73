package services

import (
	"context"
	"fmt"

	"github.com/quotemint/billing-service/internal/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailMessage is one outbound notification. Sends succeed or fail
// atomically per message.
type EmailMessage struct {
	FromName     string
	ToName       string
	ToEmail      string
	Subject      string
	PlainText    string
	HTML         string
	ReplyToEmail *string
}

// EmailSender abstracts the notification dispatcher so sweeps can be
// exercised without a live SendGrid key.
type EmailSender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

type sendgridSender struct {
	client    *sendgrid.Client
	fromEmail string
	sandbox   bool
}

func NewSendgridSender(cfg *config.Config) EmailSender {
	return &sendgridSender{
		client:    sendgrid.NewSendClient(cfg.SendgridAPIKey),
		fromEmail: cfg.LDFlag_SendgridFromEmail,
		sandbox:   cfg.LDFlag_SendgridSandboxMode,
	}
}

func (s *sendgridSender) Send(ctx context.Context, m *EmailMessage) error {
	from := mail.NewEmail(m.FromName, s.fromEmail)
	to := mail.NewEmail(m.ToName, m.ToEmail)
	msg := mail.NewSingleEmail(from, m.Subject, to, m.PlainText, m.HTML)
	if m.ReplyToEmail != nil && *m.ReplyToEmail != "" {
		msg.SetReplyTo(mail.NewEmail(m.FromName, *m.ReplyToEmail))
	}
	if s.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
