package domain

import (
	apperrors "github.com/allisson/dbgrant/internal/errors"
)

var (
	// ErrGrantNotFound indicates no grant record matches.
	ErrGrantNotFound = apperrors.Wrap(apperrors.ErrNotFound, "grant not found")

	// ErrUserCollision indicates the database user already exists on the
	// target host but no grant record tracks it. Provisioning aborts rather
	// than touch an account it does not own.
	ErrUserCollision = apperrors.New("database user exists but is not tracked")
)
