// Package usecase implements the token lifecycle: generation, single-use
// link consumption, fetch token resolution, and expiry sweeps.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	tokenDomain "github.com/allisson/dbgrant/internal/token/domain"
)

// TokenRepository defines persistence operations for email tokens.
// Implementations must support transaction-aware operations via context propagation.
type TokenRepository interface {
	// Create stores a new token.
	Create(ctx context.Context, token *tokenDomain.Token) error

	// GetValidLink retrieves an unexpired link token by its token string.
	// Returns ErrTokenNotFound for absent and expired tokens alike.
	GetValidLink(ctx context.Context, tokenStr string, now time.Time) (*tokenDomain.Token, error)

	// Delete removes a token by ID.
	Delete(ctx context.Context, tokenID uuid.UUID) error

	// LatestFetchForEmail returns the fetch token with the latest expiry for an email.
	LatestFetchForEmail(ctx context.Context, email string) (*tokenDomain.Token, error)

	// EmailForFetch returns the email owning a fetch token with
	// expires_at >= cutoff. A zero cutoff accepts expired tokens.
	EmailForFetch(ctx context.Context, tokenStr string, cutoff time.Time) (string, error)

	// DeleteExpired removes every token past its expiry.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AllowRuleChecker reports whether any allow rule exists for an email.
// Implemented by the rule repository; tokens are never issued to addresses
// no rule mentions.
type AllowRuleChecker interface {
	HasAllowForEmail(ctx context.Context, email string) (bool, error)
}

// GenerateOutput carries the freshly issued token pair.
type GenerateOutput struct {
	LinkToken      string
	LinkExpiresAt  time.Time
	FetchToken     string
	FetchExpiresAt time.Time
}

// ResolveOutput carries the fetch token revealed by consuming a link token.
type ResolveOutput struct {
	FetchToken string
	ExpiresAt  time.Time
}

// TokenUseCase defines the token lifecycle operations.
type TokenUseCase interface {
	// Generate issues a link/fetch token pair for the email. Returns
	// (nil, nil) without creating tokens if no allow rule covers the email,
	// so the caller can refuse generically.
	Generate(ctx context.Context, email string) (*GenerateOutput, error)

	// ResolveLink consumes a link token (single use) and reveals the
	// newest-expiring fetch token for the same email.
	ResolveLink(ctx context.Context, linkToken string) (*ResolveOutput, error)

	// EmailForFetch resolves a fetch token to its owning email.
	EmailForFetch(ctx context.Context, fetchToken string, allowExpired bool) (string, error)

	// SweepExpired removes expired tokens. Idempotent.
	SweepExpired(ctx context.Context) (int64, error)
}
