// Package usecase orchestrates the public broker flows: emailing one-time
// links, resolving them to fetch tokens, granting credentials, and writing
// rules on behalf of token holders.
package usecase

import (
	"context"
	"time"

	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// RequestLinkOutput reports the outcome of a link request.
type RequestLinkOutput struct {
	// Message is the status line shown to the caller. In dry-run mode it is
	// the rendered mail body instead.
	Message string
}

// ResolveLinkOutput carries the fetch token revealed by a link token.
type ResolveLinkOutput struct {
	FetchToken string
	ExpiresAt  time.Time
}

// BrokerUseCase defines the public broker operations, each keyed by either
// an email address or a caller-held token.
type BrokerUseCase interface {
	// RequestLink issues a token pair for the email and mails the one-time
	// link. Returns ErrForbidden if no allow rule covers the email.
	RequestLink(ctx context.Context, email string) (*RequestLinkOutput, error)

	// ResolveLink consumes a link token and reveals the fetch token.
	// Returns ErrTokenNotFound for unknown, expired, or already used links.
	ResolveLink(ctx context.Context, linkToken string) (*ResolveLinkOutput, error)

	// Grant provisions credentials for the fetch token's owner.
	// Returns ErrUnauthorized for a bad token, ErrForbidden when refused.
	Grant(ctx context.Context, fetchToken, host, db string, role ruleDomain.Role) (*grantDomain.Credentials, error)

	// SetRule writes an allow/deny rule on behalf of the fetch token's
	// owner, within their ruler scope.
	SetRule(ctx context.Context, fetchToken, email, host, db string, role ruleDomain.Role, which ruleDomain.Kind) error
}
