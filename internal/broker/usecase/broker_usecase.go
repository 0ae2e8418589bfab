package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/dbgrant/internal/config"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
	grantUsecase "github.com/allisson/dbgrant/internal/grant/usecase"
	"github.com/allisson/dbgrant/internal/mailer"
	"github.com/allisson/dbgrant/internal/metrics"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
	tokenDomain "github.com/allisson/dbgrant/internal/token/domain"
	tokenUsecase "github.com/allisson/dbgrant/internal/token/usecase"
)

// brokerUseCase implements BrokerUseCase.
type brokerUseCase struct {
	config          *config.Config
	tokens          tokenUsecase.TokenUseCase
	rules           ruleUsecase.RuleUseCase
	grants          grantUsecase.GrantUseCase
	mail            mailer.Mailer
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger
}

// RequestLink issues a token pair and mails the one-time link. The mail
// body embeds the verification URL built from the public base URL. With
// MailerDryRun set, nothing is sent and the rendered body comes back in
// the output instead.
func (b *brokerUseCase) RequestLink(ctx context.Context, email string) (*RequestLinkOutput, error) {
	output, err := b.tokens.Generate(ctx, email)
	if err != nil {
		b.businessMetrics.RecordOperation(ctx, "token", "generate", "error")
		return nil, err
	}
	if output == nil {
		b.businessMetrics.RecordOperation(ctx, "token", "generate", "refused")
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "email not covered by any allow rule")
	}

	link := b.config.PublicURL + "/verifytoken/" + output.LinkToken
	text := "Retrieve your dbgrant fetch token by opening this one-time link: " + link
	subject := "dbgrant fetch token from " + b.config.PublicURL

	if b.config.MailerDryRun {
		b.businessMetrics.RecordOperation(ctx, "token", "generate", "success")
		return &RequestLinkOutput{Message: text}, nil
	}

	if err := b.mail.Send(ctx, email, subject, text); err != nil {
		b.businessMetrics.RecordOperation(ctx, "token", "generate", "error")
		return nil, apperrors.Wrap(err, "failed to send link mail")
	}

	b.logger.Info("link token mail sent", slog.String("email", email))
	b.businessMetrics.RecordOperation(ctx, "token", "generate", "success")
	return &RequestLinkOutput{Message: "Sent link to " + email + " to retrieve token."}, nil
}

// ResolveLink consumes a link token and reveals the fetch token.
func (b *brokerUseCase) ResolveLink(ctx context.Context, linkToken string) (*ResolveLinkOutput, error) {
	start := time.Now()

	output, err := b.tokens.ResolveLink(ctx, linkToken)
	if err != nil {
		status := "error"
		if apperrors.Is(err, tokenDomain.ErrTokenNotFound) {
			status = "refused"
		}
		b.businessMetrics.RecordOperation(ctx, "token", "resolve_link", status)
		return nil, err
	}

	b.businessMetrics.RecordOperation(ctx, "token", "resolve_link", "success")
	b.businessMetrics.RecordDuration(ctx, "token", "resolve_link", time.Since(start), "success")
	return &ResolveLinkOutput{
		FetchToken: output.FetchToken,
		ExpiresAt:  output.ExpiresAt,
	}, nil
}

// Grant provisions credentials for the fetch token's owner. A bad or
// expired token maps to ErrUnauthorized; everything downstream keeps its
// own error shape and the HTTP layer collapses refusals into one answer.
func (b *brokerUseCase) Grant(
	ctx context.Context,
	fetchToken, host, db string,
	role ruleDomain.Role,
) (*grantDomain.Credentials, error) {
	email, err := b.tokens.EmailForFetch(ctx, fetchToken, false)
	if err != nil {
		if apperrors.Is(err, tokenDomain.ErrTokenNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid or expired fetch token")
		}
		return nil, err
	}

	return b.grants.Provision(ctx, email, host, db, role)
}

// SetRule writes a rule on behalf of the fetch token's owner.
func (b *brokerUseCase) SetRule(
	ctx context.Context,
	fetchToken, email, host, db string,
	role ruleDomain.Role,
	which ruleDomain.Kind,
) error {
	actor, err := b.tokens.EmailForFetch(ctx, fetchToken, false)
	if err != nil {
		if apperrors.Is(err, tokenDomain.ErrTokenNotFound) {
			return apperrors.Wrap(apperrors.ErrUnauthorized, "invalid or expired fetch token")
		}
		return err
	}

	err = b.rules.SetRule(ctx, actor, ruleUsecase.SetRuleInput{
		Email: email,
		Host:  host,
		DB:    db,
		Role:  role,
		Which: which,
	})
	status := "success"
	switch {
	case apperrors.Is(err, apperrors.ErrForbidden):
		status = "refused"
	case err != nil:
		status = "error"
	}
	b.businessMetrics.RecordOperation(ctx, "rule", "set_rule", status)
	return err
}

// NewBrokerUseCase creates a new BrokerUseCase with the provided dependencies.
func NewBrokerUseCase(
	cfg *config.Config,
	tokens tokenUsecase.TokenUseCase,
	rules ruleUsecase.RuleUseCase,
	grants grantUsecase.GrantUseCase,
	mail mailer.Mailer,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) BrokerUseCase {
	return &brokerUseCase{
		config:          cfg,
		tokens:          tokens,
		rules:           rules,
		grants:          grants,
		mail:            mail,
		businessMetrics: businessMetrics,
		logger:          logger,
	}
}
