// Package mailer provides outbound mail delivery for link token emails.
//
// Implementations are selected at startup from a fixed set of kinds via
// configuration; there is no runtime resolution of mailer types.
package mailer

import (
	"context"
	"fmt"

	"github.com/allisson/dbgrant/internal/config"
)

// Mailer delivers a plain text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// Known mailer kinds.
const (
	KindNull    = "null"
	KindMailgun = "mailgun"
	KindSMTP    = "smtp"
)

// New builds the mailer selected by cfg.MailerKind.
func New(cfg *config.Config) (Mailer, error) {
	switch cfg.MailerKind {
	case KindNull:
		return NewNullMailer(), nil
	case KindMailgun:
		return NewMailgunMailer(cfg.MailgunAPIKey, cfg.MailgunBaseURL, cfg.MailerFrom)
	case KindSMTP:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailerFrom)
	default:
		return nil, fmt.Errorf("unknown mailer kind %q", cfg.MailerKind)
	}
}
