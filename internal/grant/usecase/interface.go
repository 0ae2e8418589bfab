// Package usecase implements credential provisioning and revocation:
// deriving usernames, creating or rotating database users on provisioning
// hosts, and keeping the grant bookkeeping in step.
package usecase

import (
	"context"

	"github.com/google/uuid"

	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// GrantRepository defines persistence operations for grant records.
type GrantRepository interface {
	// GetByTuple retrieves the grant record for (email, host, db, role).
	// Returns ErrGrantNotFound if none exists.
	GetByTuple(ctx context.Context, email, host, db string, role ruleDomain.Role) (*grantDomain.Grant, error)

	// Upsert stores a grant record.
	Upsert(ctx context.Context, grant *grantDomain.Grant) error

	// FindMatching returns grants matching the filter; "*" wildcards a dimension.
	FindMatching(ctx context.Context, email, host, db, role string) ([]*grantDomain.Grant, error)

	// Delete removes a grant record by ID.
	Delete(ctx context.Context, grantID uuid.UUID) error
}

// GrantChecker answers whether a grant is permitted. Implemented by the
// rule use case; provisioning re-checks right before touching a host so a
// rule revoked after token issuance still blocks.
type GrantChecker interface {
	CanGrant(ctx context.Context, email, host, db string, role ruleDomain.Role) (bool, error)
}

// GrantUseCase defines credential provisioning operations.
type GrantUseCase interface {
	// Provision creates or rotates the database user for
	// (email, host, db, role) and returns fresh credentials. Returns
	// ErrForbidden when the rules refuse, ErrUserCollision when the user
	// exists on the host without a grant record.
	Provision(ctx context.Context, email, host, db string, role ruleDomain.Role) (*grantDomain.Credentials, error)

	// Revoke drops database users and deletes grant records matching the
	// filter; "*" wildcards a dimension. Returns the number of records
	// removed. Drop failures are logged and do not block record removal.
	Revoke(ctx context.Context, email, host, db, role string) (int64, error)
}
