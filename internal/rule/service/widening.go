// Package service implements the pure role-widening rules at the heart of
// grant authorization.
//
// Allow checks widen upward: an allow rule for readWrite also satisfies a
// read request. Deny checks widen downward: a deny rule for read also
// blocks a readWrite request. The asymmetry means denying read is enough
// to deny everything, and permitting readWrite is enough to permit
// everything.
package service

import (
	apperrors "github.com/allisson/dbgrant/internal/errors"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// AllowRoles returns the rule roles that satisfy an allow check for the
// requested role (the role itself or any broader one).
func AllowRoles(role ruleDomain.Role) ([]ruleDomain.Role, error) {
	switch role {
	case ruleDomain.RoleRead:
		return []ruleDomain.Role{ruleDomain.RoleRead, ruleDomain.RoleReadWrite}, nil
	case ruleDomain.RoleReadWrite:
		return []ruleDomain.Role{ruleDomain.RoleReadWrite}, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "role must be one of 'read' or 'readWrite'")
	}
}

// DenyRoles returns the rule roles that trigger a deny for the requested
// role (the role itself or any narrower one).
func DenyRoles(role ruleDomain.Role) ([]ruleDomain.Role, error) {
	switch role {
	case ruleDomain.RoleRead:
		return []ruleDomain.Role{ruleDomain.RoleRead}, nil
	case ruleDomain.RoleReadWrite:
		return []ruleDomain.Role{ruleDomain.RoleReadWrite, ruleDomain.RoleRead}, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "role must be one of 'read' or 'readWrite'")
	}
}
