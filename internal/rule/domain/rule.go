// Package domain defines the allow/deny rule models that gate credential
// grants, and the ruler documents that scope which slice of rule-space an
// administrator may edit.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a grantable database role.
type Role string

const (
	// RoleRead grants read-only access.
	RoleRead Role = "read"

	// RoleReadWrite grants read and write access.
	RoleReadWrite Role = "readWrite"
)

// Valid reports whether the role is one of the two grantable roles.
// Any other value is a caller error, never persisted.
func (r Role) Valid() bool {
	return r == RoleRead || r == RoleReadWrite
}

// Kind names the two rule collections.
type Kind string

const (
	// KindAllow rules permit grants.
	KindAllow Kind = "allow"

	// KindDeny rules block grants and take precedence over allows.
	KindDeny Kind = "deny"
)

// Valid reports whether the kind names a known rule collection.
func (k Kind) Valid() bool {
	return k == KindAllow || k == KindDeny
}

// Rule permits or blocks granting role on (host, db) to the owner of email.
// The (email, host, role, which) key owns a set of dbs; rows are one db each
// and grow with set-union semantics.
type Rule struct {
	ID        uuid.UUID
	Email     string
	Host      string
	Role      Role
	DB        string
	Which     Kind
	CreatedAt time.Time
}
