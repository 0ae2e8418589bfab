package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/dbgrant/internal/errors"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

func TestAllowRoles(t *testing.T) {
	t.Run("read widens upward to readWrite", func(t *testing.T) {
		roles, err := AllowRoles(ruleDomain.RoleRead)
		require.NoError(t, err)
		assert.ElementsMatch(t, []ruleDomain.Role{ruleDomain.RoleRead, ruleDomain.RoleReadWrite}, roles)
	})

	t.Run("readWrite stays narrow", func(t *testing.T) {
		roles, err := AllowRoles(ruleDomain.RoleReadWrite)
		require.NoError(t, err)
		assert.Equal(t, []ruleDomain.Role{ruleDomain.RoleReadWrite}, roles)
	})

	t.Run("unknown role is a caller error", func(t *testing.T) {
		_, err := AllowRoles(ruleDomain.Role("admin"))
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestDenyRoles(t *testing.T) {
	t.Run("readWrite widens downward to read", func(t *testing.T) {
		roles, err := DenyRoles(ruleDomain.RoleReadWrite)
		require.NoError(t, err)
		assert.ElementsMatch(t, []ruleDomain.Role{ruleDomain.RoleRead, ruleDomain.RoleReadWrite}, roles)
	})

	t.Run("read stays narrow", func(t *testing.T) {
		roles, err := DenyRoles(ruleDomain.RoleRead)
		require.NoError(t, err)
		assert.Equal(t, []ruleDomain.Role{ruleDomain.RoleRead}, roles)
	})

	t.Run("unknown role is a caller error", func(t *testing.T) {
		_, err := DenyRoles(ruleDomain.Role(""))
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}
