package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ruleUsecase "github.com/allisson/dbgrant/internal/rule/usecase"
)

// RunSetRule writes an allow or deny rule directly, without ruler scoping.
// Operators run this with database access the scoping exists to gate, so
// the check would be redundant.
//
// Requirements: Database must be migrated and accessible.
func RunSetRule(
	ctx context.Context,
	ruleUseCase ruleUsecase.RuleUseCase,
	logger *slog.Logger,
	w io.Writer,
	email, host, db, role, which string,
) error {
	parsedRole, err := parseRole(role)
	if err != nil {
		return err
	}

	parsedKind, err := parseKind(which)
	if err != nil {
		return err
	}

	logger.Info("setting rule",
		slog.String("email", email),
		slog.String("host", host),
		slog.String("db", db),
		slog.String("role", role),
		slog.String("which", which),
	)

	input := ruleUsecase.SetRuleInput{
		Email: email,
		Host:  host,
		DB:    db,
		Role:  parsedRole,
		Which: parsedKind,
	}
	if err := ruleUseCase.SetRuleAsOperator(ctx, input); err != nil {
		return fmt.Errorf("failed to set rule: %w", err)
	}

	fmt.Fprintf(w, "Rule set: %s %s for %s on %s/%s\n", which, role, email, host, db)
	return nil
}
