package domain

import (
	"github.com/allisson/dbgrant/internal/errors"
)

// Token lookup errors.
var (
	// ErrTokenNotFound covers both absent and expired tokens; lookups fail
	// closed without distinguishing the two to the caller.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")
)
