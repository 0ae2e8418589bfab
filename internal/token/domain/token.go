// Package domain defines the email verification token models.
//
// Every email address owns two families of tokens: link tokens, delivered
// by mail and consumed exactly once to reveal a fetch token, and fetch
// tokens, retained by clients and reused until expiry to request
// credentials.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two token families.
type Kind string

const (
	// KindLink is a single-use token delivered via an emailed link.
	KindLink Kind = "link"

	// KindFetch is a multi-use token exchanged for credentials until expiry.
	KindFetch Kind = "fetch"
)

// Token is one issued token for an email address.
type Token struct {
	ID        uuid.UUID
	Email     string
	Kind      Kind
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
