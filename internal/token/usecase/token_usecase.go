package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/dbgrant/internal/config"
	"github.com/allisson/dbgrant/internal/database"
	tokenDomain "github.com/allisson/dbgrant/internal/token/domain"
	tokenService "github.com/allisson/dbgrant/internal/token/service"
)

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	config    *config.Config
	tokenRepo TokenRepository
	allowRepo AllowRuleChecker
	generator tokenService.TokenGenerator
	txManager database.TxManager
	logger    *slog.Logger
}

// Generate issues a link/fetch token pair for the email.
//
// The link token expires at now+LinkTokenTTL; the fetch token at
// now+LinkTokenTTL+FetchTokenTTL, so a link opened at the last moment still
// reveals a fetch token with its full lifetime ahead. If no allow rule
// covers the email, nothing is created and (nil, nil) is returned: the
// caller refuses generically, leaking nothing about which addresses the
// server knows.
func (t *tokenUseCase) Generate(ctx context.Context, email string) (*GenerateOutput, error) {
	allowed, err := t.allowRepo.HasAllowForEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, nil
	}

	now := time.Now().UTC()
	output := &GenerateOutput{
		LinkToken:      t.generator.NewToken(),
		LinkExpiresAt:  now.Add(t.config.LinkTokenTTL),
		FetchToken:     t.generator.NewToken(),
		FetchExpiresAt: now.Add(t.config.LinkTokenTTL + t.config.FetchTokenTTL),
	}

	err = t.txManager.WithTx(ctx, func(ctx context.Context) error {
		link := &tokenDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			Email:     email,
			Kind:      tokenDomain.KindLink,
			Token:     output.LinkToken,
			ExpiresAt: output.LinkExpiresAt,
			CreatedAt: now,
		}
		if err := t.tokenRepo.Create(ctx, link); err != nil {
			return err
		}

		fetch := &tokenDomain.Token{
			ID:        uuid.Must(uuid.NewV7()),
			Email:     email,
			Kind:      tokenDomain.KindFetch,
			Token:     output.FetchToken,
			ExpiresAt: output.FetchExpiresAt,
			CreatedAt: now,
		}
		return t.tokenRepo.Create(ctx, fetch)
	})
	if err != nil {
		return nil, err
	}

	// Piggyback the expiry sweep on generation, like a periodic cleanup
	// would. The sweep only removes rows already expired at this instant,
	// so it cannot touch the pair written above.
	if _, err := t.tokenRepo.DeleteExpired(ctx, now); err != nil {
		t.logger.Warn("expired token sweep failed", slog.Any("error", err))
	}

	return output, nil
}

// ResolveLink consumes a link token and reveals the newest-expiring fetch
// token for the same email. The delete and the reveal happen in one
// transaction, so a link token can never be resolved twice.
func (t *tokenUseCase) ResolveLink(ctx context.Context, linkToken string) (*ResolveOutput, error) {
	now := time.Now().UTC()

	var output *ResolveOutput
	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		link, err := t.tokenRepo.GetValidLink(ctx, linkToken, now)
		if err != nil {
			return err
		}

		if err := t.tokenRepo.Delete(ctx, link.ID); err != nil {
			return err
		}

		fetch, err := t.tokenRepo.LatestFetchForEmail(ctx, link.Email)
		if err != nil {
			return err
		}

		output = &ResolveOutput{
			FetchToken: fetch.Token,
			ExpiresAt:  fetch.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// EmailForFetch resolves a fetch token to its owning email. With
// allowExpired false, expired tokens fail closed with ErrTokenNotFound.
func (t *tokenUseCase) EmailForFetch(ctx context.Context, fetchToken string, allowExpired bool) (string, error) {
	cutoff := time.Now().UTC()
	if allowExpired {
		cutoff = time.Time{}
	}
	return t.tokenRepo.EmailForFetch(ctx, fetchToken, cutoff)
}

// SweepExpired removes expired tokens.
func (t *tokenUseCase) SweepExpired(ctx context.Context) (int64, error) {
	return t.tokenRepo.DeleteExpired(ctx, time.Now().UTC())
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	cfg *config.Config,
	tokenRepo TokenRepository,
	allowRepo AllowRuleChecker,
	generator tokenService.TokenGenerator,
	txManager database.TxManager,
	logger *slog.Logger,
) TokenUseCase {
	return &tokenUseCase{
		config:    cfg,
		tokenRepo: tokenRepo,
		allowRepo: allowRepo,
		generator: generator,
		txManager: txManager,
		logger:    logger,
	}
}
