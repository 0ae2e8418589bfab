package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
)

// RunCreateRuler registers an admin email that may set rules over the API,
// scoped by host, database-name prefix, email suffix, and rule kind.
//
// Requirements: Database must be migrated and accessible.
func RunCreateRuler(
	ctx context.Context,
	ruleUseCase ruleUsecase.RuleUseCase,
	logger *slog.Logger,
	w io.Writer,
	email, hosts, dbs, emails, which string,
) error {
	logger.Info("creating ruler",
		slog.String("email", email),
		slog.String("hosts", hosts),
		slog.String("dbs", dbs),
		slog.String("emails", emails),
		slog.String("which", which),
	)

	input := ruleUsecase.CreateRulerInput{
		Email:  email,
		Hosts:  hosts,
		DBs:    dbs,
		Emails: emails,
		Which:  which,
	}
	if err := ruleUseCase.CreateRuler(ctx, input); err != nil {
		return fmt.Errorf("failed to create ruler: %w", err)
	}

	fmt.Fprintf(w, "Ruler created: %s\n", email)
	return nil
}
