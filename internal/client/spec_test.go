package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

func TestParseSpec(t *testing.T) {
	t.Run("full spec with shorthand role", func(t *testing.T) {
		role, host, db, err := ParseSpec("rw:db1.example.com:5432/app_db")
		require.NoError(t, err)
		assert.Equal(t, "readWrite", role)
		assert.Equal(t, "db1.example.com:5432", host)
		assert.Equal(t, "app_db", db)
	})

	t.Run("malformed specs", func(t *testing.T) {
		for _, spec := range []string{"read", "read:hostonly", "read:/db", "owner:h/db"} {
			_, _, _, err := ParseSpec(spec)
			require.ErrorIs(t, err, apperrors.ErrInvalidInput, spec)
		}
	})
}
