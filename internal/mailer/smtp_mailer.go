package mailer

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	client   *gomail.Client
	fromAddr string
}

// NewSMTPMailer creates an SMTPMailer for the given relay.
func NewSMTPMailer(host string, port int, username, password, fromAddr string) (*SMTPMailer, error) {
	if host == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfig, "smtp mailer requires SMTP_HOST")
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create smtp client")
	}

	return &SMTPMailer{client: client, fromAddr: fromAddr}, nil
}

// Send delivers the message through the relay.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, text string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.fromAddr); err != nil {
		return apperrors.Wrap(err, "invalid from address")
	}
	if err := msg.To(to); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "invalid recipient address: "+err.Error())
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return apperrors.Wrap(err, "failed to send mail")
	}
	return nil
}
