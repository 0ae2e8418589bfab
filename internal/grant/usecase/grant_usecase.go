package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/dbgrant/internal/errors"
	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
	grantService "github.com/allisson/dbgrant/internal/grant/service"
	"github.com/allisson/dbgrant/internal/metrics"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// grantUseCase implements GrantUseCase.
type grantUseCase struct {
	grantRepo       GrantRepository
	checker         GrantChecker
	userAdmin       grantService.UserAdmin
	passphrases     grantService.PassphraseGenerator
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger
}

// Provision creates or rotates the database user for (email, host, db, role).
//
// Eligibility is re-checked here, not only at token issuance, so a rule
// revoked in between still blocks. A grant record decides the path: present
// means the user is ours and gets a password rotation, absent means a fresh
// create. Two repairs handle records out of step with the host: a rotation
// hitting a missing user retries once as a create (someone dropped the user
// behind our back), and a create hitting an existing user aborts with
// ErrUserCollision (the account is not ours to touch).
func (g *grantUseCase) Provision(
	ctx context.Context,
	email, host, db string,
	role ruleDomain.Role,
) (*grantDomain.Credentials, error) {
	start := time.Now()

	credentials, err := g.provision(ctx, email, host, db, role)
	status := "success"
	switch {
	case apperrors.Is(err, apperrors.ErrForbidden):
		status = "refused"
	case apperrors.Is(err, grantDomain.ErrUserCollision):
		status = "collision"
	case err != nil:
		status = "error"
	}
	g.businessMetrics.RecordOperation(ctx, "grant", "provision", status)
	g.businessMetrics.RecordDuration(ctx, "grant", "provision", time.Since(start), status)

	return credentials, err
}

func (g *grantUseCase) provision(
	ctx context.Context,
	email, host, db string,
	role ruleDomain.Role,
) (*grantDomain.Credentials, error) {
	allowed, err := g.checker.CanGrant(ctx, email, host, db, role)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "grant refused")
	}

	username := grantService.UsernameFromEmail(email, role)
	passphrase, err := g.passphrases.NewPassphrase()
	if err != nil {
		return nil, err
	}

	existing, err := g.grantRepo.GetByTuple(ctx, email, host, db, role)
	if err != nil && !apperrors.Is(err, grantDomain.ErrGrantNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	record := existing
	if record == nil {
		record = &grantDomain.Grant{
			ID:        uuid.Must(uuid.NewV7()),
			Email:     email,
			Host:      host,
			DB:        db,
			Role:      role,
			CreatedAt: now,
		}
	}
	record.Username = username
	record.UpdatedAt = now

	if existing != nil {
		err = g.userAdmin.UpdatePassword(ctx, host, username, passphrase)
		if apperrors.Is(err, grantService.ErrUserNotFound) {
			g.logger.Warn("grant record without database user, recreating",
				slog.String("host", host),
				slog.String("username", username),
			)
			err = g.userAdmin.CreateUser(ctx, host, username, passphrase, db, role)
		}
	} else {
		err = g.userAdmin.CreateUser(ctx, host, username, passphrase, db, role)
		if apperrors.Is(err, grantService.ErrDuplicateUser) {
			g.logger.Error("database user exists without a grant record, refusing to touch it",
				slog.String("host", host),
				slog.String("username", username),
			)
			return nil, grantDomain.ErrUserCollision
		}
	}
	if err != nil {
		return nil, err
	}

	if err := g.grantRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return &grantDomain.Credentials{
		Host:     host,
		DB:       db,
		Role:     role,
		Username: username,
		Password: passphrase,
	}, nil
}

// Revoke drops database users and deletes grant records matching the
// filter. A failed drop is logged and skipped over: the bookkeeping row
// goes away regardless, so a host that is down or misconfigured cannot
// hold revocation hostage.
func (g *grantUseCase) Revoke(ctx context.Context, email, host, db, role string) (int64, error) {
	grants, err := g.grantRepo.FindMatching(ctx, email, host, db, role)
	if err != nil {
		g.businessMetrics.RecordOperation(ctx, "grant", "revoke", "error")
		return 0, err
	}

	var removed int64
	for _, grant := range grants {
		if err := g.userAdmin.DropUser(ctx, grant.Host, grant.Username); err != nil &&
			!apperrors.Is(err, grantService.ErrUserNotFound) {
			g.logger.Warn("failed to drop database user during revoke",
				slog.String("host", grant.Host),
				slog.String("username", grant.Username),
				slog.Any("error", err),
			)
		}
		if err := g.grantRepo.Delete(ctx, grant.ID); err != nil {
			g.businessMetrics.RecordOperation(ctx, "grant", "revoke", "error")
			return removed, err
		}
		removed++
	}

	g.businessMetrics.RecordOperation(ctx, "grant", "revoke", "success")
	return removed, nil
}

// NewGrantUseCase creates a new GrantUseCase with the provided dependencies.
func NewGrantUseCase(
	grantRepo GrantRepository,
	checker GrantChecker,
	userAdmin grantService.UserAdmin,
	passphrases grantService.PassphraseGenerator,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) GrantUseCase {
	return &grantUseCase{
		grantRepo:       grantRepo,
		checker:         checker,
		userAdmin:       userAdmin,
		passphrases:     passphrases,
		businessMetrics: businessMetrics,
		logger:          logger,
	}
}
