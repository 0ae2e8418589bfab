package mailer

import (
	"context"
	"log/slog"
	"sync"
)

// NullMailer discards messages. Intended for development and tests; the
// last message is retained so tests can assert on rendered content.
type NullMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastText string
	logger   *slog.Logger
}

// NewNullMailer creates a NullMailer.
func NewNullMailer() *NullMailer {
	return &NullMailer{logger: slog.Default()}
}

// Send records and discards the message.
func (m *NullMailer) Send(ctx context.Context, to, subject, text string) error {
	m.mu.Lock()
	m.lastTo = to
	m.lastText = text
	m.mu.Unlock()

	m.logger.Info("null mailer: message discarded",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

// LastMessage returns the recipient and body of the most recent message.
func (m *NullMailer) LastMessage() (to, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTo, m.lastText
}
