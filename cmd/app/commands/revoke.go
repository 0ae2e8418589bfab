package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	grantUsecase "github.com/allisson/dbgrant/internal/grant/usecase"
)

// RunRevoke drops database users and deletes grant records matching the
// filter. Each dimension accepts "*" as a wildcard.
//
// Requirements: Database must be migrated and accessible. Hosts matched by
// the filter must be reachable with admin credentials for the users to be
// dropped; unreachable users are logged and the records removed anyway.
func RunRevoke(
	ctx context.Context,
	grantUseCase grantUsecase.GrantUseCase,
	logger *slog.Logger,
	w io.Writer,
	email, host, db, role string,
) error {
	logger.Info("revoking grants",
		slog.String("email", email),
		slog.String("host", host),
		slog.String("db", db),
		slog.String("role", role),
	)

	count, err := grantUseCase.Revoke(ctx, email, host, db, role)
	if err != nil {
		return fmt.Errorf("failed to revoke grants: %w", err)
	}

	fmt.Fprintf(w, "Revoked %d grant(s)\n", count)
	return nil
}
