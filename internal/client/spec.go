package client

import (
	"strings"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

// ParseSpec splits a "<role>:<host>/<db>" spec into its parts. The role
// accepts the ro/rw shorthands; host and db may be aliases, resolved later
// by GetAuth.
func ParseSpec(spec string) (role, host, db string, err error) {
	role, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return "", "", "", apperrors.Wrap(apperrors.ErrInvalidInput, "spec must look like <role>:<host>/<db>")
	}
	host, db, ok = strings.Cut(rest, "/")
	if !ok || host == "" || db == "" {
		return "", "", "", apperrors.Wrap(apperrors.ErrInvalidInput, "spec must look like <role>:<host>/<db>")
	}
	if role, err = resolveRole(role); err != nil {
		return "", "", "", err
	}
	return role, host, db, nil
}
