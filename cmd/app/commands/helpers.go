// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/dbgrant/internal/app"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// parseRole converts a role string to ruleDomain.Role.
// Returns an error if the role string is invalid.
func parseRole(role string) (ruleDomain.Role, error) {
	parsed := ruleDomain.Role(role)
	if !parsed.Valid() {
		return "", fmt.Errorf("invalid role: %s (valid options: read, readWrite)", role)
	}
	return parsed, nil
}

// parseKind converts a rule kind string to ruleDomain.Kind.
// Returns an error if the kind string is invalid.
func parseKind(which string) (ruleDomain.Kind, error) {
	parsed := ruleDomain.Kind(which)
	if !parsed.Valid() {
		return "", fmt.Errorf("invalid rule kind: %s (valid options: allow, deny)", which)
	}
	return parsed, nil
}
